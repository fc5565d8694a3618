package uom

import (
	"stockflow/internal/core/tx"
	"stockflow/internal/domain"
)

// Service provides business logic for the UoM catalog.
type Service struct {
	*domain.CatalogService[*UoM]
	repo Repository
}

// NewService creates a new UoM service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*UoM]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "uom",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
