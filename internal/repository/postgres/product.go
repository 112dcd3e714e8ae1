package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/psvit/storefront/internal/domain"
	"github.com/psvit/storefront/pkg/database"
	apperrors "github.com/psvit/storefront/pkg/errors"
)

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.Pool
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, description, price, category, image_url, images, stock_quantity, specifications, is_rental, rental_price_monthly, created_at`

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	specsJSON, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("marshal specifications: %w", err)
	}

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO products (id, name, description, price, category, image_url, images, stock_quantity, specifications, is_rental, rental_price_monthly, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.ImageURL,
		p.Images,
		p.StockQuantity,
		specsJSON,
		p.IsRental,
		p.RentalPriceMonthly,
		p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "id", p.ID)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	var (
		p         domain.Product
		specsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Category,
		&p.ImageURL,
		&p.Images,
		&p.StockQuantity,
		&specsJSON,
		&p.IsRental,
		&p.RentalPriceMonthly,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if specsJSON != nil {
		if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
			return nil, fmt.Errorf("unmarshal specifications: %w", err)
		}
	}

	return &p, nil
}

// List returns all products ordered by creation time, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY created_at DESC`, productColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p         domain.Product
			specsJSON []byte
		)

		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.Price,
			&p.Category,
			&p.ImageURL,
			&p.Images,
			&p.StockQuantity,
			&specsJSON,
			&p.IsRental,
			&p.RentalPriceMonthly,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}

		if specsJSON != nil {
			if err := json.Unmarshal(specsJSON, &p.Specifications); err != nil {
				return nil, fmt.Errorf("unmarshal specifications: %w", err)
			}
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// Update modifies an existing product in the database.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	specsJSON, err := json.Marshal(p.Specifications)
	if err != nil {
		return fmt.Errorf("marshal specifications: %w", err)
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, image_url = $5,
		    images = $6, stock_quantity = $7, specifications = $8, is_rental = $9, rental_price_monthly = $10
		WHERE id = $11`

	ct, err := r.pool.Exec(ctx, query,
		p.Name,
		p.Description,
		p.Price,
		p.Category,
		p.ImageURL,
		p.Images,
		p.StockQuantity,
		specsJSON,
		p.IsRental,
		p.RentalPriceMonthly,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the database by its ID.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM products WHERE id = $1`

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
