package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/internal/service"
	apperrors "github.com/psvit/storefront/pkg/errors"
	"github.com/psvit/storefront/pkg/httputil"
	"github.com/psvit/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	store  *service.CartStore
	logger *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(store *service.CartStore, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		store:  store,
		logger: logger,
	}
}

// AddItemRequest is the JSON request body for adding a product to the cart.
type AddItemRequest struct {
	Product domain.Product `json:"product" validate:"required"`
}

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartResponse is the serialized cart state.
type CartResponse struct {
	Items      domain.Snapshot `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice int64           `json:"total_price"`
}

func cartResponse(snap domain.Snapshot) CartResponse {
	if snap == nil {
		snap = domain.Snapshot{}
	}
	return CartResponse{
		Items:      snap,
		TotalItems: snap.TotalItems(),
		TotalPrice: snap.TotalPrice(),
	}
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartResponse(h.store.Snapshot())})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.store.AddItem(r.Context(), req.Product); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartResponse(h.store.Snapshot())})
}

// UpdateQuantity handles PUT /api/v1/cart/items/{productId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}

	if err := h.store.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartResponse(h.store.Snapshot())})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	if err := h.store.RemoveItem(r.Context(), productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartResponse(h.store.Snapshot())})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cartResponse(nil)})
}

// Events handles GET /api/v1/cart/events as a server-sent event stream.
// The client receives the current cart state immediately and a new event
// after every change until it disconnects.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteError(w, r, apperrors.Internal(fmt.Errorf("streaming unsupported")), h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	updates, cancel := h.store.Subscribe()
	defer cancel()

	writeEvent := func(snap domain.Snapshot) bool {
		data, err := json.Marshal(cartResponse(snap))
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to encode cart event",
				slog.String("error", err.Error()),
			)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: cart\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(h.store.Snapshot()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if !writeEvent(snap) {
				return
			}
		}
	}
}
