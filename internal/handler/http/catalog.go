package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psvit/storefront/internal/service"
	"github.com/psvit/storefront/pkg/httputil"
	"github.com/psvit/storefront/pkg/validator"
)

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// ListProducts handles GET /api/v1/products?search=...
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetProduct handles GET /api/v1/products/{productId}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// CreateProduct handles POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.CreateProductInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/admin/products/{productId}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var input service.UpdateProductInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "productId"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/admin/products/{productId}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "productId")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
