package domain

import "time"

// Category is the fixed set of product categories the shop sells.
type Category string

const (
	CategoryComputers    Category = "computers"
	CategoryPrinters     Category = "printers"
	CategoryScanners     Category = "scanners"
	CategoryCopiers      Category = "copiers"
	CategorySurveillance Category = "surveillance"
	CategorySpareParts   Category = "spare-parts"
)

// Categories returns all valid product categories.
func Categories() []Category {
	return []Category{
		CategoryComputers,
		CategoryPrinters,
		CategoryScanners,
		CategoryCopiers,
		CategorySurveillance,
		CategorySpareParts,
	}
}

// IsValidCategory checks whether the given string is a valid category.
func IsValidCategory(c string) bool {
	for _, valid := range Categories() {
		if Category(c) == valid {
			return true
		}
	}
	return false
}

// Product represents a catalog product. Prices are integer minor units
// (cents) so totals stay exact under repeated arithmetic. The cart treats
// products as immutable once fetched; StockQuantity is informational only
// and never enforced by the cart.
type Product struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Price              int64          `json:"price"`
	Category           Category       `json:"category"`
	ImageURL           string         `json:"image_url"`
	Images             []string       `json:"images,omitempty"`
	StockQuantity      int            `json:"stock_quantity"`
	Specifications     map[string]any `json:"specifications,omitempty"`
	IsRental           bool           `json:"is_rental"`
	RentalPriceMonthly *int64         `json:"rental_price_monthly,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}
