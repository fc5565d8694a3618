// Package location provides the Location catalog.
// Locations are the endpoints of every stock movement. INTERNAL
// locations hold trackable stock; VENDOR and CUSTOMER locations are
// virtual counterparties that absorb receipts and deliveries.
package location

import (
	"context"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
)

// Kind defines the location kind.
type Kind string

const (
	KindInternal Kind = "INTERNAL"
	KindVendor   Kind = "VENDOR"
	KindCustomer Kind = "CUSTOMER"
)

// Location represents a stock location within a warehouse.
type Location struct {
	entity.Catalog

	// WarehouseID is the owning warehouse (nil for virtual locations)
	WarehouseID *id.ID `db:"warehouse_id" json:"warehouseId,omitempty"`

	// Kind distinguishes physical locations from virtual counterparties
	Kind Kind `db:"kind" json:"kind"`
}

// NewLocation creates a new Location with required fields.
func NewLocation(code, name string, kind Kind) *Location {
	return &Location{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// IsVirtual returns true for vendor/customer locations.
// Virtual locations never get quant rows.
func (l *Location) IsVirtual() bool {
	return l.Kind == KindVendor || l.Kind == KindCustomer
}

// Validate implements entity.Validatable interface.
func (l *Location) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}

	if l.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}

	switch l.Kind {
	case KindInternal, KindVendor, KindCustomer:
	default:
		return apperror.NewValidation("invalid location kind").
			WithDetail("field", "kind").
			WithDetail("value", string(l.Kind))
	}

	return nil
}
