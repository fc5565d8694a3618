package partner

import (
	"context"
	"fmt"
	"time"

	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
	"stockflow/pkg/numerator"
)

// Service provides business logic for the Partner catalog.
type Service struct {
	*domain.CatalogService[*Partner]
	repo      Repository
	numerator *numerator.Service
}

// NewService creates a new Partner service.
func NewService(repo Repository, txManager tx.Manager, num *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Partner]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "partner",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      num,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Partner) error {
	if p.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.Config{Prefix: "PRT", PadWidth: 4, ResetPeriod: "never"}, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		p.Code = code
	}
	return nil
}
