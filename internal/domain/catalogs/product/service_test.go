package product

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
)

// --- fakes ---

type memRepo struct {
	products map[id.ID]*Product
}

func newMemRepo() *memRepo {
	return &memRepo{products: make(map[id.ID]*Product)}
}

func (r *memRepo) Create(_ context.Context, p *Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, entityID id.ID) (*Product, error) {
	p, ok := r.products[entityID]
	if !ok {
		return nil, apperror.NewNotFound("product", entityID)
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) GetByCode(_ context.Context, code string) (*Product, error) {
	for _, p := range r.products {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", code)
}

func (r *memRepo) Update(_ context.Context, p *Product) error {
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, entityID id.ID) error {
	delete(r.products, entityID)
	return nil
}

func (r *memRepo) SetDeletionMark(_ context.Context, entityID id.ID, marked bool) error {
	if p, ok := r.products[entityID]; ok {
		p.DeletionMark = marked
	}
	return nil
}

func (r *memRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Product], error) {
	return domain.ListResult[*Product]{}, nil
}

func (r *memRepo) Exists(_ context.Context, entityID id.ID) (bool, error) {
	_, ok := r.products[entityID]
	return ok, nil
}

func (r *memRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	for _, p := range r.products {
		if p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) GetBySKU(_ context.Context, sku string) (*Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (r *memRepo) ExistsBySKU(_ context.Context, sku string) (bool, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) ListWithStock(_ context.Context, _ domain.ListFilter) (domain.ListResult[*WithStock], error) {
	return domain.ListResult[*WithStock]{}, nil
}

func (r *memRepo) IDsByCategory(_ context.Context, _ string) ([]id.ID, error) {
	return nil, nil
}

type initCall struct {
	productID  id.ID
	locationID id.ID
	qty        types.Quantity
	actor      string
}

type fakeInitializer struct {
	fail  bool
	calls []initCall
}

func (f *fakeInitializer) RecordInitialQuantity(_ context.Context, productID, locationID id.ID, qty types.Quantity, actor string) error {
	if f.fail {
		return errors.New("booking failed")
	}
	f.calls = append(f.calls, initCall{productID, locationID, qty, actor})
	return nil
}

// fakeTx restores the repo state when the transaction body fails,
// mimicking a database rollback. Nested calls join the same snapshot.
type fakeTx struct {
	repo *memRepo
}

func (f *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snapshot := make(map[id.ID]*Product, len(f.repo.products))
	for k, v := range f.repo.products {
		cp := *v
		snapshot[k] = &cp
	}
	if err := fn(ctx); err != nil {
		f.repo.products = snapshot
		return err
	}
	return nil
}

type env struct {
	svc  *Service
	repo *memRepo
	init *fakeInitializer
}

func newEnv() *env {
	repo := newMemRepo()
	init := &fakeInitializer{}
	svc := NewService(repo, &fakeTx{repo: repo}, init)
	return &env{svc: svc, repo: repo, init: init}
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

// --- tests ---

func TestCreateWithInitialStock_BooksOpeningBalance(t *testing.T) {
	e := newEnv()
	loc := id.New()
	p := NewProduct("DESK-001", "Desk", id.New())

	err := e.svc.CreateWithInitialStock(context.Background(), p, qty(15), &loc, "importer")
	require.NoError(t, err)

	_, ok := e.repo.products[p.ID]
	assert.True(t, ok)

	require.Len(t, e.init.calls, 1)
	call := e.init.calls[0]
	assert.Equal(t, p.ID, call.productID)
	assert.Equal(t, loc, call.locationID)
	assert.Equal(t, qty(15), call.qty)
	assert.Equal(t, "importer", call.actor)
}

func TestCreateWithInitialStock_FallsBackToDefaultLocation(t *testing.T) {
	e := newEnv()
	def := id.New()
	p := NewProduct("CHAIR-001", "Chair", id.New())
	p.DefaultLocationID = &def

	err := e.svc.CreateWithInitialStock(context.Background(), p, qty(4), nil, "importer")
	require.NoError(t, err)

	require.Len(t, e.init.calls, 1)
	assert.Equal(t, def, e.init.calls[0].locationID)
}

func TestCreateWithInitialStock_ZeroSkipsBooking(t *testing.T) {
	e := newEnv()
	p := NewProduct("PEN-BLUE", "Pen", id.New())

	err := e.svc.CreateWithInitialStock(context.Background(), p, 0, nil, "importer")
	require.NoError(t, err)

	_, ok := e.repo.products[p.ID]
	assert.True(t, ok)
	assert.Empty(t, e.init.calls)
}

func TestCreateWithInitialStock_NegativeRejectedBeforeCreate(t *testing.T) {
	e := newEnv()
	loc := id.New()
	p := NewProduct("DESK-002", "Desk", id.New())

	err := e.svc.CreateWithInitialStock(context.Background(), p, qty(-1), &loc, "importer")
	require.Error(t, err)

	assert.Empty(t, e.repo.products)
	assert.Empty(t, e.init.calls)
}

func TestCreateWithInitialStock_MissingLocationRejectedBeforeCreate(t *testing.T) {
	e := newEnv()
	p := NewProduct("DESK-003", "Desk", id.New())

	err := e.svc.CreateWithInitialStock(context.Background(), p, qty(2), nil, "importer")
	require.Error(t, err)

	assert.Empty(t, e.repo.products)
}

func TestCreateWithInitialStock_FailedBookingRollsBackProduct(t *testing.T) {
	e := newEnv()
	e.init.fail = true
	loc := id.New()
	p := NewProduct("PAPER-A4", "Paper", id.New())

	err := e.svc.CreateWithInitialStock(context.Background(), p, qty(10), &loc, "importer")
	require.Error(t, err)

	// the product row and the opening balance commit together or not
	// at all
	assert.Empty(t, e.repo.products)
}
