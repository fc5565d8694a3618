package product

import (
	"context"
	"strings"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/tx"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// StockInitializer records an initial on-hand quantity for a freshly
// created product. Implemented by the operations service as an
// auto-completed adjustment, so every quant write still flows through
// the movement engine.
type StockInitializer interface {
	RecordInitialQuantity(ctx context.Context, productID, locationID id.ID, qty types.Quantity, actor string) error
}

// Service provides business logic for the Product catalog.
type Service struct {
	*domain.CatalogService[*Product]
	repo        Repository
	txManager   tx.Manager
	initializer StockInitializer
}

// NewService creates a new Product service.
// initializer may be nil; initial quantities are then rejected.
func NewService(repo Repository, txManager tx.Manager, initializer StockInitializer) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		initializer:    initializer,
	}

	base.Hooks().On(domain.BeforeCreate, svc.prepareForCreate)

	return svc
}

func (s *Service) prepareForCreate(ctx context.Context, p *Product) error {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if p.Code == "" {
		p.Code = p.SKU
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}
	return nil
}

// CreateWithInitialStock creates a product and, when qty is positive,
// books the counted quantity onto the target location through the
// movement engine. Product row and opening balance commit as one
// transaction; a failed booking never leaves a committed product
// behind.
func (s *Service) CreateWithInitialStock(ctx context.Context, p *Product, qty types.Quantity, locationID *id.ID, actor string) error {
	if qty.IsNegative() {
		return apperror.NewValidation("initial quantity cannot be negative").
			WithDetail("field", "initialQuantity")
	}

	if qty.IsZero() {
		return s.Create(ctx, p)
	}

	target := locationID
	if target == nil {
		target = p.DefaultLocationID
	}
	if target == nil {
		return apperror.NewValidation("initial quantity requires a location").
			WithDetail("field", "initialLocationId")
	}
	if s.initializer == nil {
		return apperror.NewInvalidState("initial quantities are not supported in this deployment")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, p); err != nil {
			return err
		}
		return s.initializer.RecordInitialQuantity(ctx, p.ID, *target, qty, actor)
	})
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	p, err := s.repo.GetBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// ListWithStock returns products with derived on-hand quantities.
func (s *Service) ListWithStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*WithStock], error) {
	return s.repo.ListWithStock(ctx, f)
}
