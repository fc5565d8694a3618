package product

import (
	"context"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// WithStock pairs a product with its derived on-hand quantity.
type WithStock struct {
	Product

	// OnHand is SUM(quantity) over the product's quants
	OnHand types.Quantity `db:"on_hand" json:"onHand"`

	// DefaultLocationCode is joined for list views
	DefaultLocationCode *string `db:"default_location_code" json:"defaultLocationCode,omitempty"`
}

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetBySKU retrieves a product by its SKU.
	GetBySKU(ctx context.Context, sku string) (*Product, error)

	// ListWithStock returns products with their derived on-hand quantity.
	ListWithStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*WithStock], error)

	// ExistsBySKU checks SKU uniqueness.
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// IDsByCategory returns product ids in a category (for reports).
	IDsByCategory(ctx context.Context, category string) ([]id.ID, error)
}
