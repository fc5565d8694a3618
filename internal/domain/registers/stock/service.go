package stock

import (
	"context"
	"fmt"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// Service provides stock register queries.
type Service struct {
	repo Repository
}

// NewService creates a new stock register service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetOnHand returns the on-hand quantity for a product at a location.
func (s *Service) GetOnHand(ctx context.Context, productID, locationID id.ID) (types.Quantity, error) {
	qty, err := s.repo.GetQuantity(ctx, productID, locationID)
	if err != nil {
		return 0, fmt.Errorf("get quantity: %w", err)
	}
	return qty, nil
}

// GetProductBalances returns per-location balances for a product.
func (s *Service) GetProductBalances(ctx context.Context, productID id.ID) ([]Balance, error) {
	return s.repo.GetProductBalances(ctx, productID)
}

// GetLocationBalances returns balances at a location.
func (s *Service) GetLocationBalances(ctx context.Context, locationID id.ID, filter BalanceFilter) ([]Balance, error) {
	return s.repo.GetLocationBalances(ctx, locationID, filter)
}

// GetTotalOnHand sums a product's quantity across all locations.
func (s *Service) GetTotalOnHand(ctx context.Context, productID id.ID) (types.Quantity, error) {
	return s.repo.GetTotalOnHand(ctx, productID)
}

// ListLedger returns ledger entries newest first.
func (s *Service) ListLedger(ctx context.Context, filter LedgerFilter) (domain.ListResult[LedgerEntry], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListLedger(ctx, filter)
}

// GetTurnover aggregates debits and credits over a period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
