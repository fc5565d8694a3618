package stock

import (
	"context"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// Repository defines read operations over quants and the ledger.
type Repository interface {
	// GetQuantity returns the on-hand quantity for one product at one
	// location. A missing quant row means zero.
	GetQuantity(ctx context.Context, productID, locationID id.ID) (types.Quantity, error)

	// GetProductBalances returns per-location balances for a product.
	GetProductBalances(ctx context.Context, productID id.ID) ([]Balance, error)

	// GetLocationBalances returns balances at a location.
	GetLocationBalances(ctx context.Context, locationID id.ID, filter BalanceFilter) ([]Balance, error)

	// GetTotalOnHand sums a product's quantity across all locations.
	GetTotalOnHand(ctx context.Context, productID id.ID) (types.Quantity, error)

	// ListLedger returns ledger entries newest first.
	ListLedger(ctx context.Context, filter LedgerFilter) (domain.ListResult[LedgerEntry], error)

	// GetTurnover aggregates debits and credits over a period.
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
}

// LedgerFilter for filtering ledger listings.
type LedgerFilter struct {
	ProductID   *id.ID
	LocationID  *id.ID
	OperationID *id.ID
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

// TurnoverFilter for turnover aggregation.
type TurnoverFilter struct {
	ProductID  *id.ID
	LocationID *id.ID
	FromDate   time.Time
	ToDate     time.Time
}
