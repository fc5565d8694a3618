// Package partner provides the Partner catalog (vendors and customers).
package partner

import (
	"context"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
)

// Kind defines the partner kind.
type Kind string

const (
	KindVendor   Kind = "VENDOR"
	KindCustomer Kind = "CUSTOMER"
)

// Partner represents an external counterparty.
type Partner struct {
	entity.Catalog

	// Kind distinguishes vendors from customers
	Kind Kind `db:"kind" json:"kind"`

	// Contact details
	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`
}

// NewPartner creates a new Partner with required fields.
func NewPartner(code, name string, kind Kind) *Partner {
	return &Partner{
		Catalog: entity.NewCatalog(code, name),
		Kind:    kind,
	}
}

// Validate implements entity.Validatable interface.
func (p *Partner) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Kind {
	case KindVendor, KindCustomer:
	default:
		return apperror.NewValidation("invalid partner kind").
			WithDetail("field", "kind").
			WithDetail("value", string(p.Kind))
	}

	return nil
}
