// Package operations provides the stock operation document: the single
// entry point for every quantity mutation in the system.
package operations

import (
	"context"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/entity"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

// Type defines the operation type.
type Type string

const (
	TypeReceipt    Type = "RECEIPT"
	TypeDelivery   Type = "DELIVERY"
	TypeInternal   Type = "INTERNAL"
	TypeAdjustment Type = "ADJUSTMENT"
)

// ValidType reports whether t is a known operation type.
func ValidType(t Type) bool {
	switch t {
	case TypeReceipt, TypeDelivery, TypeInternal, TypeAdjustment:
		return true
	}
	return false
}

// Status defines the operation lifecycle status.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusWaiting   Status = "WAITING"
	StatusReady     Status = "READY"
	StatusDone      Status = "DONE"
	StatusCancelled Status = "CANCELLED"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusWaiting, StatusReady, StatusDone, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether the status change from -> to is legal.
// DONE is terminal: the only accepted transition out of it is DONE ->
// DONE, which is a stock no-op. All moves among non-DONE states are
// allowed, including reviving a CANCELLED operation.
func CanTransition(from, to Status) bool {
	if !ValidStatus(to) {
		return false
	}
	if from == StatusDone {
		return to == StatusDone
	}
	return true
}

// Item is one line of an operation: a product and a quantity.
// For ADJUSTMENT operations the quantity is the absolute counted
// quantity, not a delta.
type Item struct {
	ID          id.ID          `db:"id" json:"id"`
	OperationID id.ID          `db:"operation_id" json:"operationId"`
	ProductID   id.ID          `db:"product_id" json:"productId"`
	Quantity    types.Quantity `db:"quantity" json:"quantity"`

	// ProductName and SKU are joined for read views, never written
	ProductName string `db:"product_name" json:"productName,omitempty"`
	SKU         string `db:"sku" json:"sku,omitempty"`
}

// Operation is a stock move document. Transitioning it to DONE applies
// its items to the quants and appends valuation layers; no other code
// path writes quantities.
type Operation struct {
	entity.Document

	Type   Type   `db:"type" json:"type"`
	Status Status `db:"status" json:"status"`

	// Contact is the counterparty name shown on the document
	Contact *string `db:"contact" json:"contact,omitempty"`

	// Responsible is the user accountable for fulfilment
	Responsible *string `db:"responsible" json:"responsible,omitempty"`

	// SourceLocationID and DestLocationID are the move endpoints.
	// Which of them is required depends on Type.
	SourceLocationID *id.ID `db:"source_location_id" json:"sourceLocationId,omitempty"`
	DestLocationID   *id.ID `db:"dest_location_id" json:"destLocationId,omitempty"`

	// ScheduledAt is the planned execution time
	ScheduledAt *time.Time `db:"scheduled_at" json:"scheduledAt,omitempty"`

	// LastEditedBy is the actor of the most recent mutation
	LastEditedBy string `db:"last_edited_by" json:"lastEditedBy,omitempty"`

	// Items live in their own table
	Items []Item `db:"-" json:"items"`
}

// NewOperation creates a draft operation of the given type.
func NewOperation(opType Type) *Operation {
	return &Operation{
		Document: entity.NewDocument(),
		Type:     opType,
		Status:   StatusDraft,
	}
}

// TargetLocation returns the location an ADJUSTMENT applies to:
// destination when present, source otherwise, nil when neither is set.
func (o *Operation) TargetLocation() *id.ID {
	if o.DestLocationID != nil {
		return o.DestLocationID
	}
	return o.SourceLocationID
}

// Validate implements entity.Validatable interface.
func (o *Operation) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if !ValidType(o.Type) {
		return apperror.NewValidation("invalid operation type").
			WithDetail("field", "type").
			WithDetail("value", string(o.Type))
	}
	if !ValidStatus(o.Status) {
		return apperror.NewValidation("invalid operation status").
			WithDetail("field", "status").
			WithDetail("value", string(o.Status))
	}

	for i, item := range o.Items {
		if id.IsNil(item.ProductID) {
			return apperror.NewValidation("item product is required").
				WithDetail("line", i+1)
		}
		if item.Quantity.IsNegative() {
			return apperror.NewValidation("item quantity cannot be negative").
				WithDetail("line", i+1).
				WithDetail("quantity", item.Quantity.String())
		}
		if o.Type != TypeAdjustment && item.Quantity.IsZero() {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("line", i+1)
		}
	}

	return o.validateLocations()
}

// validateLocations checks the per-type location requirements.
func (o *Operation) validateLocations() error {
	missing := func(side string) error {
		return apperror.NewInvalidState("operation has no usable " + side + " location").
			WithDetail("type", string(o.Type))
	}

	switch o.Type {
	case TypeReceipt:
		if o.DestLocationID == nil {
			return missing("destination")
		}
	case TypeDelivery:
		if o.SourceLocationID == nil {
			return missing("source")
		}
	case TypeInternal:
		if o.SourceLocationID == nil {
			return missing("source")
		}
		if o.DestLocationID == nil {
			return missing("destination")
		}
	case TypeAdjustment:
		if o.TargetLocation() == nil {
			return missing("target")
		}
	}

	return nil
}
