package operations

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/domain"
)

// Repository defines persistence operations for stock operations.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, op *Operation) error
	GetByID(ctx context.Context, opID id.ID) (*Operation, error)
	GetByReference(ctx context.Context, reference string) (*Operation, error)
	Update(ctx context.Context, op *Operation) error
	Delete(ctx context.Context, opID id.ID) error

	// Item operations
	GetItems(ctx context.Context, opID id.ID) ([]Item, error)
	ReplaceItems(ctx context.Context, opID id.ID, items []Item) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Operation], error)

	// GetForUpdate loads the operation row FOR UPDATE so concurrent
	// mutations of the same document serialize.
	GetForUpdate(ctx context.Context, opID id.ID) (*Operation, error)
}

// ListFilter for filtering operations.
type ListFilter struct {
	domain.ListFilter

	Type       *Type
	Status     *Status
	LocationID *id.ID
	DateFrom   *time.Time
	DateTo     *time.Time
}
