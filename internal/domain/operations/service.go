package operations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/valuation"
	"stockflow/pkg/logger"
	"stockflow/pkg/numerator"
)

// LocationResolver maps location codes to IDs. Resolution runs inside
// the mutation's transaction so it cannot go stale before the write.
type LocationResolver interface {
	ResolveCode(ctx context.Context, code string) (id.ID, error)
}

// ReferenceGenerator issues document references.
type ReferenceGenerator interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error)
}

// Auditor records entity change history.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// ItemInput is one requested operation line.
type ItemInput struct {
	ProductID id.ID
	Quantity  types.Quantity
}

// CreateInput describes a new operation. Locations may be given as IDs
// or as codes; codes are resolved inside the create transaction.
type CreateInput struct {
	Type Type

	// Reference is the document number; generated when empty.
	Reference string

	// Status is the initial lifecycle status, DRAFT when empty.
	// Creating directly at DONE applies the items to stock.
	Status Status

	Date        *time.Time
	Contact     *string
	Responsible *string
	Notes       string
	ScheduledAt *time.Time

	SourceLocationID   *id.ID
	DestLocationID     *id.ID
	SourceLocationCode *string
	DestLocationCode   *string

	Items []ItemInput
}

// UpdateInput carries partial changes to an operation. Nil fields are
// left untouched. ExpectedVersion, when set, must match the stored
// version or the update is rejected.
type UpdateInput struct {
	ExpectedVersion *int

	Date        *time.Time
	Contact     *string
	Responsible *string
	Notes       *string
	ScheduledAt *time.Time

	SourceLocationID   *id.ID
	DestLocationID     *id.ID
	SourceLocationCode *string
	DestLocationCode   *string

	Items *[]ItemInput
}

// Service provides business operations for stock operation documents.
// Status transitions to DONE run the valuation engine; everything the
// transition touches commits or rolls back as one unit.
type Service struct {
	repo      Repository
	engine    *valuation.Engine
	locations LocationResolver
	numerator ReferenceGenerator
	txManager tx.Manager
	audit     Auditor
}

// NewService creates a new operation service.
// audit may be nil; change history is then skipped.
func NewService(
	repo Repository,
	engine *valuation.Engine,
	locations LocationResolver,
	refs ReferenceGenerator,
	txManager tx.Manager,
	audit Auditor,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		locations: locations,
		numerator: refs,
		txManager: txManager,
		audit:     audit,
	}
}

// referencePrefix returns the document numbering prefix per type.
func referencePrefix(t Type) string {
	switch t {
	case TypeReceipt:
		return "RCPT"
	case TypeDelivery:
		return "DLV"
	case TypeInternal:
		return "INT"
	case TypeAdjustment:
		return "ADJ"
	}
	return "OP"
}

// Create creates a new operation with its items. The document starts
// at the requested status; an initial DONE runs the valuation engine
// in the same transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Operation, error) {
	if !ValidType(input.Type) {
		return nil, apperror.NewValidation("invalid operation type").
			WithDetail("field", "type").
			WithDetail("value", string(input.Type))
	}

	status := StatusDraft
	if input.Status != "" {
		if !ValidStatus(input.Status) {
			return nil, apperror.NewValidation("invalid operation status").
				WithDetail("field", "status").
				WithDetail("value", string(input.Status))
		}
		status = input.Status
	}

	actor := appctx.GetActorName(ctx)

	op := NewOperation(input.Type)
	op.Reference = strings.TrimSpace(input.Reference)
	op.Contact = input.Contact
	op.Responsible = input.Responsible
	op.Notes = input.Notes
	op.ScheduledAt = input.ScheduledAt
	op.CreatedBy = actor
	op.UpdatedBy = actor
	op.LastEditedBy = actor
	if input.Date != nil {
		op.Date = *input.Date
	}
	op.SourceLocationID = input.SourceLocationID
	op.DestLocationID = input.DestLocationID
	op.Items = buildItems(op.ID, input.Items)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.resolveLocations(ctx, op, input.SourceLocationCode, input.DestLocationCode); err != nil {
			return err
		}

		if err := op.Validate(ctx); err != nil {
			return err
		}

		if op.Reference == "" {
			reference, err := s.numerator.GetNextNumber(ctx,
				numerator.DefaultConfig(referencePrefix(op.Type)), numerator.DefaultOptions(), op.Date)
			if err != nil {
				return fmt.Errorf("generate reference: %w", err)
			}
			op.Reference = reference
		}

		if status == StatusDone {
			effects, err := op.Effects()
			if err != nil {
				return err
			}
			if err := s.engine.Apply(ctx, op.ID, effects, actor); err != nil {
				return err
			}
		}
		op.Status = status

		if err := s.repo.Create(ctx, op); err != nil {
			return fmt.Errorf("create operation: %w", err)
		}
		if err := s.repo.ReplaceItems(ctx, op.ID, op.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		s.logChange(ctx, op.ID, "create", map[string]any{
			"type":      string(op.Type),
			"status":    string(op.Status),
			"reference": op.Reference,
			"items":     len(op.Items),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "operation created",
		"id", op.ID,
		"type", op.Type,
		"reference", op.Reference)

	return op, nil
}

// GetByID retrieves an operation with its items.
func (s *Service) GetByID(ctx context.Context, opID id.ID) (*Operation, error) {
	op, err := s.repo.GetByID(ctx, opID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, opID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	op.Items = items

	return op, nil
}

// GetByReference retrieves an operation by its document reference.
func (s *Service) GetByReference(ctx context.Context, reference string) (*Operation, error) {
	op, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, op.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	op.Items = items

	return op, nil
}

// Update applies partial changes to an operation. Completed operations
// are immutable; the attempt fails without touching the row.
func (s *Service) Update(ctx context.Context, opID id.ID, input UpdateInput) (*Operation, error) {
	actor := appctx.GetActorName(ctx)

	var op *Operation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		op, err = s.repo.GetForUpdate(ctx, opID)
		if err != nil {
			return err
		}

		if op.Status == StatusDone {
			return apperror.NewInvalidState("operation is completed and can no longer be edited").
				WithDetail("id", opID.String())
		}
		if input.ExpectedVersion != nil && *input.ExpectedVersion != op.Version {
			return apperror.NewConcurrentModification("operation", opID.String())
		}

		applyUpdate(op, input)
		if err := s.resolveLocations(ctx, op, input.SourceLocationCode, input.DestLocationCode); err != nil {
			return err
		}

		if input.Items != nil {
			op.Items = buildItems(op.ID, *input.Items)
		} else {
			op.Items, err = s.repo.GetItems(ctx, opID)
			if err != nil {
				return fmt.Errorf("get items: %w", err)
			}
		}

		if err := op.Validate(ctx); err != nil {
			return err
		}

		op.UpdatedBy = actor
		op.LastEditedBy = actor
		if err := s.repo.Update(ctx, op); err != nil {
			return err
		}
		if input.Items != nil {
			if err := s.repo.ReplaceItems(ctx, op.ID, op.Items); err != nil {
				return fmt.Errorf("save items: %w", err)
			}
		}

		s.logChange(ctx, op.ID, "update", map[string]any{
			"version": op.Version,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

// TransitionStatus moves the operation to a new lifecycle status.
// The transition to DONE applies the operation's items to stock and
// appends valuation layers in the same transaction; a repeated DONE
// is accepted as a stock no-op. Every accepted transition, including
// the no-op, bumps the version and records the acting user.
func (s *Service) TransitionStatus(ctx context.Context, opID id.ID, to Status, expectedVersion *int) (*Operation, error) {
	if !ValidStatus(to) {
		return nil, apperror.NewValidation("invalid operation status").
			WithDetail("field", "status").
			WithDetail("value", string(to))
	}

	actor := appctx.GetActorName(ctx)

	var op *Operation
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		op, err = s.repo.GetForUpdate(ctx, opID)
		if err != nil {
			return err
		}

		if expectedVersion != nil && *expectedVersion != op.Version {
			return apperror.NewConcurrentModification("operation", opID.String())
		}
		from := op.Status
		if !CanTransition(from, to) {
			return apperror.NewInvalidState("illegal status transition").
				WithDetail("from", string(from)).
				WithDetail("to", string(to))
		}

		op.Items, err = s.repo.GetItems(ctx, opID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}

		if to == StatusDone && from != StatusDone {
			if err := op.Validate(ctx); err != nil {
				return err
			}
			effects, err := op.Effects()
			if err != nil {
				return err
			}
			if err := s.engine.Apply(ctx, op.ID, effects, actor); err != nil {
				return err
			}
		}

		op.Status = to
		op.UpdatedBy = actor
		op.LastEditedBy = actor
		if err := s.repo.Update(ctx, op); err != nil {
			return err
		}

		s.logChange(ctx, op.ID, "status", map[string]any{
			"from": string(from),
			"to":   string(to),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "operation status changed",
		"id", op.ID,
		"status", op.Status)

	return op, nil
}

// Delete soft-deletes an operation. Completed operations are part of
// the stock history and cannot be removed.
func (s *Service) Delete(ctx context.Context, opID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		op, err := s.repo.GetForUpdate(ctx, opID)
		if err != nil {
			return err
		}
		if op.Status == StatusDone {
			return apperror.NewInvalidState("completed operation cannot be deleted").
				WithDetail("id", opID.String())
		}

		if err := s.repo.Delete(ctx, opID); err != nil {
			return err
		}
		s.logChange(ctx, opID, "delete", nil)
		return nil
	})
}

// List retrieves operations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Operation], error) {
	return s.repo.List(ctx, filter)
}

// RecordInitialQuantity posts an auto-completed adjustment that seeds
// the opening balance of a freshly created product. The document and
// its stock effect commit atomically with the caller's transaction.
func (s *Service) RecordInitialQuantity(ctx context.Context, productID, locationID id.ID, qty types.Quantity, actor string) error {
	if qty.IsNegative() {
		return apperror.NewValidation("initial quantity cannot be negative").
			WithDetail("quantity", qty.String())
	}

	if actor != "" {
		ctx = appctx.WithActor(ctx, &appctx.Actor{Name: actor})
	}
	actor = appctx.GetActorName(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		op := NewOperation(TypeAdjustment)
		op.DestLocationID = &locationID
		op.Notes = "initial stock"
		op.CreatedBy = actor
		op.UpdatedBy = actor
		op.LastEditedBy = actor
		op.Items = buildItems(op.ID, []ItemInput{{ProductID: productID, Quantity: qty}})

		if err := op.Validate(ctx); err != nil {
			return err
		}

		reference, err := s.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig(referencePrefix(op.Type)), numerator.DefaultOptions(), op.Date)
		if err != nil {
			return fmt.Errorf("generate reference: %w", err)
		}
		op.Reference = reference

		effects, err := op.Effects()
		if err != nil {
			return err
		}
		if err := s.engine.Apply(ctx, op.ID, effects, actor); err != nil {
			return err
		}

		op.Status = StatusDone
		if err := s.repo.Create(ctx, op); err != nil {
			return fmt.Errorf("create operation: %w", err)
		}
		if err := s.repo.ReplaceItems(ctx, op.ID, op.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		s.logChange(ctx, op.ID, "create", map[string]any{
			"type":      string(op.Type),
			"reference": op.Reference,
			"initial":   true,
		})
		return nil
	})
}

// resolveLocations fills location IDs from codes when codes are given.
func (s *Service) resolveLocations(ctx context.Context, op *Operation, sourceCode, destCode *string) error {
	if sourceCode != nil {
		locID, err := s.locations.ResolveCode(ctx, *sourceCode)
		if err != nil {
			return fmt.Errorf("resolve source location: %w", err)
		}
		op.SourceLocationID = &locID
	}
	if destCode != nil {
		locID, err := s.locations.ResolveCode(ctx, *destCode)
		if err != nil {
			return fmt.Errorf("resolve destination location: %w", err)
		}
		op.DestLocationID = &locID
	}
	return nil
}

func (s *Service) logChange(ctx context.Context, opID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, "operation", opID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "error", err, "operation_id", opID)
	}
}

func applyUpdate(op *Operation, input UpdateInput) {
	if input.Date != nil {
		op.Date = *input.Date
	}
	if input.Contact != nil {
		op.Contact = input.Contact
	}
	if input.Responsible != nil {
		op.Responsible = input.Responsible
	}
	if input.Notes != nil {
		op.Notes = *input.Notes
	}
	if input.ScheduledAt != nil {
		op.ScheduledAt = input.ScheduledAt
	}
	if input.SourceLocationID != nil {
		op.SourceLocationID = input.SourceLocationID
	}
	if input.DestLocationID != nil {
		op.DestLocationID = input.DestLocationID
	}
}

func buildItems(opID id.ID, inputs []ItemInput) []Item {
	items := make([]Item, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, Item{
			ID:          id.New(),
			OperationID: opID,
			ProductID:   in.ProductID,
			Quantity:    in.Quantity,
		})
	}
	return items
}
