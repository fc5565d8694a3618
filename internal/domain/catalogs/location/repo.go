package location

import (
	"context"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// Repository defines the interface for Location persistence.
type Repository interface {
	domain.CatalogRepository[*Location]

	// ListByWarehouse returns all active locations of a warehouse.
	ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*Location, error)
}
