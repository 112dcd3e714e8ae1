package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/internal/repository"
	apperrors "github.com/psvit/storefront/pkg/errors"
)

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name               string         `json:"name" validate:"required,min=2,max=200"`
	Description        string         `json:"description" validate:"max=5000"`
	Price              int64          `json:"price" validate:"required,gte=0"`
	Category           string         `json:"category" validate:"required"`
	ImageURL           string         `json:"image_url" validate:"omitempty,url"`
	Images             []string       `json:"images"`
	StockQuantity      int            `json:"stock_quantity" validate:"gte=0"`
	Specifications     map[string]any `json:"specifications"`
	IsRental           bool           `json:"is_rental"`
	RentalPriceMonthly *int64         `json:"rental_price_monthly" validate:"omitempty,gte=0"`
}

// UpdateProductInput holds the parameters for a partial product update.
// Nil fields are left unchanged.
type UpdateProductInput struct {
	Name               *string         `json:"name" validate:"omitempty,min=2,max=200"`
	Description        *string         `json:"description" validate:"omitempty,max=5000"`
	Price              *int64          `json:"price" validate:"omitempty,gte=0"`
	Category           *string         `json:"category"`
	ImageURL           *string         `json:"image_url" validate:"omitempty,url"`
	Images             *[]string       `json:"images"`
	StockQuantity      *int            `json:"stock_quantity" validate:"omitempty,gte=0"`
	Specifications     *map[string]any `json:"specifications"`
	IsRental           *bool           `json:"is_rental"`
	RentalPriceMonthly *int64          `json:"rental_price_monthly" validate:"omitempty,gte=0"`
}

// CatalogService implements the read and admin write paths over the
// product repository.
type CatalogService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// GetProduct fetches a single product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// ListProducts returns the catalog, optionally narrowed by a search query.
// The query matches product name and category case-insensitively as a
// substring. No match yields an empty slice, never an error.
func (s *CatalogService) ListProducts(ctx context.Context, query string) ([]domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return products, nil
	}

	q := strings.ToLower(query)
	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(string(p.Category)), q) {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// CreateProduct adds a new product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", input.Category))
	}
	if input.IsRental && input.RentalPriceMonthly == nil {
		return nil, apperrors.InvalidInput("rental products require a monthly rental price")
	}

	p := &domain.Product{
		ID:                 uuid.NewString(),
		Name:               input.Name,
		Description:        input.Description,
		Price:              input.Price,
		Category:           domain.Category(input.Category),
		ImageURL:           input.ImageURL,
		Images:             input.Images,
		StockQuantity:      input.StockQuantity,
		Specifications:     input.Specifications,
		IsRental:           input.IsRental,
		RentalPriceMonthly: input.RentalPriceMonthly,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("category", string(p.Category)),
	)

	return p, nil
}

// UpdateProduct applies a partial update to an existing product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Category != nil && !domain.IsValidCategory(*input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown category %q", *input.Category))
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Category != nil {
		p.Category = domain.Category(*input.Category)
	}
	if input.ImageURL != nil {
		p.ImageURL = *input.ImageURL
	}
	if input.Images != nil {
		p.Images = *input.Images
	}
	if input.StockQuantity != nil {
		p.StockQuantity = *input.StockQuantity
	}
	if input.Specifications != nil {
		p.Specifications = *input.Specifications
	}
	if input.IsRental != nil {
		p.IsRental = *input.IsRental
	}
	if input.RentalPriceMonthly != nil {
		p.RentalPriceMonthly = input.RentalPriceMonthly
	}
	if p.IsRental && p.RentalPriceMonthly == nil {
		return nil, apperrors.InvalidInput("rental products require a monthly rental price")
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", p.ID),
	)

	return p, nil
}

// DeleteProduct removes a product from the catalog.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("product id is required")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.String("product_id", id),
	)

	return nil
}
