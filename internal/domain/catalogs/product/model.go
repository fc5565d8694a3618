// Package product provides the Product catalog.
package product

import (
	"context"
	"strings"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// QCStatus defines the quality-control status of a product.
type QCStatus string

const (
	QCPass    QCStatus = "PASS"
	QCFail    QCStatus = "FAIL"
	QCPending QCStatus = "PENDING"
)

// Product represents a stock-keeping unit.
// On-hand quantity is never stored here; it is derived from quants.
type Product struct {
	entity.Catalog

	// SKU is the unique stock-keeping code. Kept separate from Code so
	// external systems can use their own identifiers.
	SKU string `db:"sku" json:"sku"`

	// Category is a free-form grouping label
	Category *string `db:"category" json:"category,omitempty"`

	// UomID references the unit of measure
	UomID id.ID `db:"uom_id" json:"uomId"`

	// MinStock / MaxStock bound the desired on-hand quantity
	MinStock types.Quantity `db:"min_stock" json:"minStock"`
	MaxStock types.Quantity `db:"max_stock" json:"maxStock"`

	// Price is the list price
	Price types.Money `db:"price" json:"price"`

	// DefaultLocationID is where receipts land when not specified
	DefaultLocationID *id.ID `db:"default_location_id" json:"defaultLocationId,omitempty"`

	// QCStatus gates whether the product is cleared for movement
	QCStatus QCStatus `db:"qc_status" json:"qcStatus"`

	// Barcode for scanner integrations
	Barcode *string `db:"barcode" json:"barcode,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(sku, name string, uomID id.ID) *Product {
	return &Product{
		Catalog:  entity.NewCatalog(sku, name),
		SKU:      sku,
		UomID:    uomID,
		QCStatus: QCPending,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if strings.TrimSpace(p.SKU) == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if id.IsNil(p.UomID) {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "uomId")
	}

	switch p.QCStatus {
	case QCPass, QCFail, QCPending:
	default:
		return apperror.NewValidation("invalid qc status").
			WithDetail("field", "qcStatus").
			WithDetail("value", string(p.QCStatus))
	}

	if p.MinStock.IsNegative() || p.MaxStock.IsNegative() {
		return apperror.NewValidation("stock bounds cannot be negative")
	}
	if !p.MaxStock.IsZero() && p.MaxStock < p.MinStock {
		return apperror.NewValidation("max stock cannot be below min stock")
	}

	if p.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price")
	}

	return nil
}
