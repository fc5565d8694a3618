package location

import (
	"context"
	"strings"

	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
)

// Service provides business logic for Location catalog.
type Service struct {
	*domain.CatalogService[*Location]
	repo Repository
}

// NewService creates a new Location service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Location]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "location",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.normalizeCode)
	base.Hooks().On(domain.BeforeUpdate, svc.normalizeCode)

	return svc
}

func (s *Service) normalizeCode(ctx context.Context, loc *Location) error {
	loc.Code = strings.ToUpper(strings.TrimSpace(loc.Code))
	return nil
}

// ResolveCode maps a location code to its ID.
// Must be called inside the same transaction as the mutation it serves,
// so the resolution cannot go stale before the write.
func (s *Service) ResolveCode(ctx context.Context, code string) (id.ID, error) {
	loc, err := s.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return id.Nil(), err
	}
	return loc.ID, nil
}

// ListByWarehouse returns all active locations of a warehouse.
func (s *Service) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*Location, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID)
}
