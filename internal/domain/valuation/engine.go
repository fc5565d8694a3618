// Package valuation applies stock operations to on-hand quantities and
// the append-only valuation ledger. It is the only writer of quants and
// layers; document services call it, nothing bypasses it.
package valuation

import (
	"bytes"
	"context"
	"sort"
	"time"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/pkg/logger"
)

// QuantKey identifies one on-hand balance: a (product, location) pair.
type QuantKey struct {
	ProductID  id.ID
	LocationID id.ID
}

// Layer is one append-only ledger row. Balance is the on-hand quantity
// at the row's location immediately after the mutation.
type Layer struct {
	ID          id.ID          `db:"id"`
	OperationID id.ID          `db:"operation_id"`
	ProductID   id.ID          `db:"product_id"`
	LocationID  id.ID          `db:"location_id"`
	Debit       types.Quantity `db:"debit"`
	Credit      types.Quantity `db:"credit"`
	Balance     types.Quantity `db:"balance"`
	UnitCost    types.Money    `db:"unit_cost"`
	Actor       string         `db:"actor"`
	CreatedAt   time.Time      `db:"created_at"`
}

// Effect is one quant mutation derived from an operation item.
// When Absolute is set, Value is the counted quantity the balance is
// set to; otherwise Value is a signed delta added to the balance.
type Effect struct {
	ProductID  id.ID
	LocationID id.ID
	Absolute   bool
	Value      types.Quantity

	// RecordLayer appends a ledger row for this effect. Internal
	// transfers record only their destination side.
	RecordLayer bool
}

// Store is the persistence contract the engine runs against.
// All methods must execute inside the caller's transaction.
type Store interface {
	// LockQuants locks the given balances FOR UPDATE and returns the
	// current quantities. Keys without a stored row are materialized at
	// zero before locking, so the result holds an entry for every key
	// and concurrent writers to a fresh pair serialize on the same row.
	LockQuants(ctx context.Context, keys []QuantKey) (map[QuantKey]types.Quantity, error)

	// UpsertQuant sets the balance for a key locked by LockQuants.
	UpsertQuant(ctx context.Context, key QuantKey, qty types.Quantity) error

	// InsertLayers appends ledger rows.
	InsertLayers(ctx context.Context, layers []Layer) error
}

// Engine turns operation effects into quant updates and ledger rows.
type Engine struct {
	store Store
}

// NewEngine creates a new valuation engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Apply executes the effects of one operation atomically within the
// caller's transaction. Balances are locked up front in a stable order
// (product id, then location id) so concurrent operations touching the
// same pairs serialize instead of deadlocking. Any failure, including a
// balance driven negative, aborts the whole batch.
func (e *Engine) Apply(ctx context.Context, operationID id.ID, effects []Effect, actor string) error {
	if len(effects) == 0 {
		return nil
	}

	keys := lockOrder(effects)
	current, err := e.store.LockQuants(ctx, keys)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	layers := make([]Layer, 0, len(effects))

	for _, ef := range effects {
		key := QuantKey{ProductID: ef.ProductID, LocationID: ef.LocationID}
		cur := current[key]

		var next types.Quantity
		if ef.Absolute {
			next = ef.Value
		} else {
			next = cur.Add(ef.Value)
		}

		if next.IsNegative() {
			return apperror.NewInsufficientStock(
				ef.ProductID.String(),
				ef.Value.Neg().Float64(),
				cur.Float64(),
			).WithDetail("location_id", ef.LocationID.String())
		}

		if err := e.store.UpsertQuant(ctx, key, next); err != nil {
			return err
		}
		current[key] = next

		if ef.RecordLayer {
			delta := next.Sub(cur)
			var debit, credit types.Quantity
			if delta.IsNegative() {
				credit = delta.Abs()
			} else {
				debit = delta
			}
			layers = append(layers, Layer{
				ID:          id.New(),
				OperationID: operationID,
				ProductID:   ef.ProductID,
				LocationID:  ef.LocationID,
				Debit:       debit,
				Credit:      credit,
				Balance:     next,
				UnitCost:    types.Zero(),
				Actor:       actor,
				CreatedAt:   now,
			})
		}
	}

	if len(layers) > 0 {
		if err := e.store.InsertLayers(ctx, layers); err != nil {
			return err
		}
	}

	logger.Debug(ctx, "operation effects applied",
		"operation_id", operationID.String(),
		"effects", len(effects),
		"layers", len(layers),
	)

	return nil
}

// lockOrder returns the distinct touched keys sorted by product id,
// then location id.
func lockOrder(effects []Effect) []QuantKey {
	seen := make(map[QuantKey]struct{}, len(effects))
	keys := make([]QuantKey, 0, len(effects))
	for _, ef := range effects {
		key := QuantKey{ProductID: ef.ProductID, LocationID: ef.LocationID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if c := bytes.Compare(keys[i].ProductID[:], keys[j].ProductID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(keys[i].LocationID[:], keys[j].LocationID[:]) < 0
	})

	return keys
}
