// Package warehouse provides the Warehouse catalog.
// Warehouses group storage locations under one physical site.
package warehouse

import (
	"context"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
)

// Warehouse represents a physical site containing stock locations.
type Warehouse struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// CapacityPct is the utilization percentage shown on dashboards
	CapacityPct int `db:"capacity_pct" json:"capacityPct"`

	// IsActive indicates if warehouse is operational
	IsActive bool `db:"is_active" json:"isActive"`
}

// NewWarehouse creates a new Warehouse with required fields.
func NewWarehouse(code, name string) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if w.CapacityPct < 0 || w.CapacityPct > 100 {
		return apperror.NewValidation("capacity must be between 0 and 100").
			WithDetail("field", "capacityPct").
			WithDetail("value", w.CapacityPct)
	}

	return nil
}
