// Package uom provides the unit-of-measure catalog.
package uom

import (
	"context"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
)

// UoM represents a unit of measure (pcs, kg, box).
type UoM struct {
	entity.Catalog
}

// NewUoM creates a new unit of measure.
func NewUoM(code, name string) *UoM {
	return &UoM{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity.Validatable interface.
func (u *UoM) Validate(ctx context.Context) error {
	if err := u.Catalog.Validate(ctx); err != nil {
		return err
	}
	if u.Code == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	return nil
}
