package operations

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/valuation"
	"stockflow/pkg/numerator"
)

// --- fakes ---

type memRepo struct {
	ops   map[id.ID]*Operation
	items map[id.ID][]Item
}

func newMemRepo() *memRepo {
	return &memRepo{
		ops:   make(map[id.ID]*Operation),
		items: make(map[id.ID][]Item),
	}
}

func (r *memRepo) Create(_ context.Context, op *Operation) error {
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, opID id.ID) (*Operation, error) {
	op, ok := r.ops[opID]
	if !ok || op.DeletionMark {
		return nil, apperror.NewNotFound("operation", opID)
	}
	cp := *op
	return &cp, nil
}

func (r *memRepo) GetByReference(_ context.Context, reference string) (*Operation, error) {
	for _, op := range r.ops {
		if op.Reference == reference && !op.DeletionMark {
			cp := *op
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("operation", reference)
}

func (r *memRepo) GetForUpdate(ctx context.Context, opID id.ID) (*Operation, error) {
	return r.GetByID(ctx, opID)
}

func (r *memRepo) Update(_ context.Context, op *Operation) error {
	stored, ok := r.ops[op.ID]
	if !ok {
		return apperror.NewNotFound("operation", op.ID)
	}
	if stored.Version != op.Version {
		return apperror.NewConcurrentModification("operation", op.ID.String())
	}
	op.Touch()
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, opID id.ID) error {
	op, ok := r.ops[opID]
	if !ok {
		return apperror.NewNotFound("operation", opID)
	}
	op.DeletionMark = true
	return nil
}

func (r *memRepo) GetItems(_ context.Context, opID id.ID) ([]Item, error) {
	return append([]Item(nil), r.items[opID]...), nil
}

func (r *memRepo) ReplaceItems(_ context.Context, opID id.ID, items []Item) error {
	r.items[opID] = append([]Item(nil), items...)
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Operation], error) {
	var out []*Operation
	for _, op := range r.ops {
		if !op.DeletionMark {
			cp := *op
			out = append(out, &cp)
		}
	}
	return domain.ListResult[*Operation]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeStore struct {
	quants map[valuation.QuantKey]types.Quantity
	layers []valuation.Layer
}

func newFakeStore() *fakeStore {
	return &fakeStore{quants: make(map[valuation.QuantKey]types.Quantity)}
}

func (m *fakeStore) LockQuants(_ context.Context, keys []valuation.QuantKey) (map[valuation.QuantKey]types.Quantity, error) {
	out := make(map[valuation.QuantKey]types.Quantity, len(keys))
	for _, k := range keys {
		if _, ok := m.quants[k]; !ok {
			m.quants[k] = 0
		}
		out[k] = m.quants[k]
	}
	return out, nil
}

func (m *fakeStore) UpsertQuant(_ context.Context, key valuation.QuantKey, qty types.Quantity) error {
	m.quants[key] = qty
	return nil
}

func (m *fakeStore) InsertLayers(_ context.Context, layers []valuation.Layer) error {
	m.layers = append(m.layers, layers...)
	return nil
}

// fakeTx snapshots the in-memory state and restores it when the
// transaction body fails, mimicking a database rollback.
type fakeTx struct {
	repo  *memRepo
	store *fakeStore
}

func (f *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ops := make(map[id.ID]*Operation, len(f.repo.ops))
	for k, v := range f.repo.ops {
		cp := *v
		ops[k] = &cp
	}
	items := make(map[id.ID][]Item, len(f.repo.items))
	for k, v := range f.repo.items {
		items[k] = append([]Item(nil), v...)
	}
	quants := make(map[valuation.QuantKey]types.Quantity, len(f.store.quants))
	for k, v := range f.store.quants {
		quants[k] = v
	}
	layers := append([]valuation.Layer(nil), f.store.layers...)

	if err := fn(ctx); err != nil {
		f.repo.ops = ops
		f.repo.items = items
		f.store.quants = quants
		f.store.layers = layers
		return err
	}
	return nil
}

type fakeResolver struct {
	codes map[string]id.ID
}

func (f *fakeResolver) ResolveCode(_ context.Context, code string) (id.ID, error) {
	if locID, ok := f.codes[code]; ok {
		return locID, nil
	}
	return id.Nil(), apperror.NewNotFound("location", code)
}

type fakeRefs struct {
	n int64
}

func (f *fakeRefs) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, _ time.Time) (string, error) {
	f.n++
	return fmt.Sprintf("%s-2026-%05d", cfg.Prefix, f.n), nil
}

type env struct {
	svc   *Service
	repo  *memRepo
	store *fakeStore
	codes map[string]id.ID
}

func newEnv() *env {
	repo := newMemRepo()
	store := newFakeStore()
	codes := make(map[string]id.ID)
	svc := NewService(
		repo,
		valuation.NewEngine(store),
		&fakeResolver{codes: codes},
		&fakeRefs{},
		&fakeTx{repo: repo, store: store},
		nil,
	)
	return &env{svc: svc, repo: repo, store: store, codes: codes}
}

func actorCtx(name string) context.Context {
	return appctx.WithActor(context.Background(), &appctx.Actor{Name: name})
}

// seedQuant places stock directly for test setup.
func (e *env) seedQuant(product, location id.ID, q types.Quantity) {
	e.store.quants[valuation.QuantKey{ProductID: product, LocationID: location}] = q
}

func (e *env) quant(product, location id.ID) types.Quantity {
	return e.store.quants[valuation.QuantKey{ProductID: product, LocationID: location}]
}

// --- tests ---

func TestService_CreateReceipt(t *testing.T) {
	e := newEnv()
	dst := id.New()
	product := id.New()

	op, err := e.svc.Create(actorCtx("alice"), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: product, Quantity: qty(5)}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, op.Status)
	assert.Equal(t, "RCPT-2026-00001", op.Reference)
	assert.Equal(t, "alice", op.CreatedBy)
	assert.Equal(t, "alice", op.LastEditedBy)
	assert.Equal(t, 1, op.Version)

	stored, err := e.svc.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, product, stored.Items[0].ProductID)

	// draft creation must not touch stock
	assert.Empty(t, e.store.quants)
	assert.Empty(t, e.store.layers)
}

func TestService_CreateResolvesLocationCodes(t *testing.T) {
	e := newEnv()
	dst := id.New()
	e.codes["RECEIVING"] = dst
	code := "RECEIVING"

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:             TypeReceipt,
		DestLocationCode: &code,
		Items:            []ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	require.NoError(t, err)
	require.NotNil(t, op.DestLocationID)
	assert.Equal(t, dst, *op.DestLocationID)

	unknown := "NOWHERE"
	_, err = e.svc.Create(context.Background(), CreateInput{
		Type:             TypeReceipt,
		DestLocationCode: &unknown,
		Items:            []ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_CreateRejectsInvalidType(t *testing.T) {
	e := newEnv()
	_, err := e.svc.Create(context.Background(), CreateInput{Type: Type("TELEPORT")})
	require.Error(t, err)
}

func TestService_CreateKeepsExplicitReference(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		Reference:      "RCPT-IMPORT-0042",
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-IMPORT-0042", op.Reference)

	// the numerator is untouched, so the next blank reference still
	// gets the first generated number
	next, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "RCPT-2026-00001", next.Reference)
}

func TestService_CreateWithInitialStatus(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		Status:         StatusReady,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusReady, op.Status)

	// only DONE touches stock
	assert.Empty(t, e.store.quants)
	assert.Empty(t, e.store.layers)
}

func TestService_CreateRejectsInvalidStatus(t *testing.T) {
	e := newEnv()
	dst := id.New()

	_, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		Status:         Status("SHIPPED"),
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.Error(t, err)
}

func TestService_CreateAtDoneAppliesStock(t *testing.T) {
	e := newEnv()
	dst := id.New()
	product := id.New()

	op, err := e.svc.Create(actorCtx("importer"), CreateInput{
		Type:           TypeReceipt,
		Status:         StatusDone,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: product, Quantity: qty(5)}},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDone, op.Status)
	assert.Equal(t, qty(5), e.quant(product, dst))
	require.Len(t, e.store.layers, 1)
	assert.Equal(t, "importer", e.store.layers[0].Actor)
}

func TestService_CreateAtDoneRollsBackOnInsufficientStock(t *testing.T) {
	e := newEnv()
	src := id.New()

	_, err := e.svc.Create(context.Background(), CreateInput{
		Type:             TypeDelivery,
		Status:           StatusDone,
		SourceLocationID: &src,
		Items:            []ItemInput{{ProductID: id.New(), Quantity: qty(3)}},
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	list, err := e.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Empty(t, e.store.layers)
}

func TestService_CompleteReceipt(t *testing.T) {
	e := newEnv()
	dst := id.New()
	product := id.New()

	op, err := e.svc.Create(actorCtx("alice"), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: product, Quantity: qty(5)}},
	})
	require.NoError(t, err)

	done, err := e.svc.TransitionStatus(actorCtx("bob"), op.ID, StatusDone, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusDone, done.Status)
	assert.Equal(t, 2, done.Version)
	assert.Equal(t, "bob", done.LastEditedBy)
	assert.Equal(t, qty(5), e.quant(product, dst))

	require.Len(t, e.store.layers, 1)
	assert.Equal(t, op.ID, e.store.layers[0].OperationID)
	assert.Equal(t, qty(5), e.store.layers[0].Debit)
	assert.Equal(t, "bob", e.store.layers[0].Actor)
}

func TestService_DeliveryInsufficientStockRollsBack(t *testing.T) {
	e := newEnv()
	src := id.New()
	p1 := id.New()
	p2 := id.New()
	e.seedQuant(p1, src, qty(10))
	e.seedQuant(p2, src, qty(1))

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:             TypeDelivery,
		SourceLocationID: &src,
		Items: []ItemInput{
			{ProductID: p1, Quantity: qty(4)},
			{ProductID: p2, Quantity: qty(2)},
		},
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// nothing from the failed transition survives
	assert.Equal(t, qty(10), e.quant(p1, src))
	assert.Equal(t, qty(1), e.quant(p2, src))
	assert.Empty(t, e.store.layers)

	stored, err := e.svc.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestService_InternalTransfer(t *testing.T) {
	e := newEnv()
	src := id.New()
	dst := id.New()
	product := id.New()
	e.seedQuant(product, src, qty(8))

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:             TypeInternal,
		SourceLocationID: &src,
		DestLocationID:   &dst,
		Items:            []ItemInput{{ProductID: product, Quantity: qty(3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "INT-2026-00001", op.Reference)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.NoError(t, err)

	assert.Equal(t, qty(5), e.quant(product, src))
	assert.Equal(t, qty(3), e.quant(product, dst))

	require.Len(t, e.store.layers, 1)
	assert.Equal(t, dst, e.store.layers[0].LocationID)
}

func TestService_AdjustmentSetsAbsoluteQuantity(t *testing.T) {
	e := newEnv()
	loc := id.New()
	product := id.New()
	e.seedQuant(product, loc, qty(12))

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeAdjustment,
		DestLocationID: &loc,
		Items:          []ItemInput{{ProductID: product, Quantity: qty(7)}},
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.NoError(t, err)

	assert.Equal(t, qty(7), e.quant(product, loc))
	require.Len(t, e.store.layers, 1)
	assert.Equal(t, qty(5), e.store.layers[0].Credit)
	assert.Equal(t, qty(7), e.store.layers[0].Balance)
}

func TestService_RepeatedDoneIsStockNoOp(t *testing.T) {
	e := newEnv()
	dst := id.New()
	product := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: product, Quantity: qty(5)}},
	})
	require.NoError(t, err)

	first, err := e.svc.TransitionStatus(actorCtx("alice"), op.ID, StatusDone, nil)
	require.NoError(t, err)

	again, err := e.svc.TransitionStatus(actorCtx("carol"), op.ID, StatusDone, nil)
	require.NoError(t, err)

	// bookkeeping advances, stock does not
	assert.Equal(t, first.Version+1, again.Version)
	assert.Equal(t, "carol", again.LastEditedBy)
	assert.Equal(t, qty(5), e.quant(product, dst))
	assert.Len(t, e.store.layers, 1)
}

func TestService_DoneIsTerminal(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.NoError(t, err)

	for _, to := range []Status{StatusDraft, StatusWaiting, StatusReady, StatusCancelled} {
		_, err = e.svc.TransitionStatus(context.Background(), op.ID, to, nil)
		require.Error(t, err, "DONE -> %s must be rejected", to)
		assert.True(t, apperror.IsInvalidState(err))
	}
}

func TestService_UpdateRejectedOnDone(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.NoError(t, err)

	notes := "late correction"
	_, err = e.svc.Update(context.Background(), op.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestService_UpdateExpectedVersion(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.NoError(t, err)

	stale := op.Version - 1
	notes := "edited"
	_, err = e.svc.Update(context.Background(), op.ID, UpdateInput{
		ExpectedVersion: &stale,
		Notes:           &notes,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))

	current := op.Version
	updated, err := e.svc.Update(actorCtx("alice"), op.ID, UpdateInput{
		ExpectedVersion: &current,
		Notes:           &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Notes)
	assert.Equal(t, op.Version+1, updated.Version)
	assert.Equal(t, "alice", updated.LastEditedBy)
}

func TestService_UpdateReplacesItems(t *testing.T) {
	e := newEnv()
	dst := id.New()
	p1 := id.New()
	p2 := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: p1, Quantity: qty(5)}},
	})
	require.NoError(t, err)

	newItems := []ItemInput{
		{ProductID: p1, Quantity: qty(2)},
		{ProductID: p2, Quantity: qty(4)},
	}
	_, err = e.svc.Update(context.Background(), op.ID, UpdateInput{Items: &newItems})
	require.NoError(t, err)

	stored, err := e.svc.GetByID(context.Background(), op.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, qty(2), stored.Items[0].Quantity)
	assert.Equal(t, p2, stored.Items[1].ProductID)
}

func TestService_DeleteOnlyBeforeDone(t *testing.T) {
	e := newEnv()
	dst := id.New()

	op, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(5)}},
	})
	require.NoError(t, err)

	_, err = e.svc.TransitionStatus(context.Background(), op.ID, StatusDone, nil)
	require.NoError(t, err)

	err = e.svc.Delete(context.Background(), op.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidState(err))

	draft, err := e.svc.Create(context.Background(), CreateInput{
		Type:           TypeReceipt,
		DestLocationID: &dst,
		Items:          []ItemInput{{ProductID: id.New(), Quantity: qty(1)}},
	})
	require.NoError(t, err)
	require.NoError(t, e.svc.Delete(context.Background(), draft.ID))

	_, err = e.svc.GetByID(context.Background(), draft.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_RecordInitialQuantity(t *testing.T) {
	e := newEnv()
	loc := id.New()
	product := id.New()

	err := e.svc.RecordInitialQuantity(context.Background(), product, loc, qty(15), "importer")
	require.NoError(t, err)

	assert.Equal(t, qty(15), e.quant(product, loc))

	list, err := e.svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	op := list.Items[0]
	assert.Equal(t, TypeAdjustment, op.Type)
	assert.Equal(t, StatusDone, op.Status)
	assert.Equal(t, "importer", op.CreatedBy)
	assert.Contains(t, op.Reference, "ADJ-")

	require.Len(t, e.store.layers, 1)
	assert.Equal(t, "importer", e.store.layers[0].Actor)
}

func TestService_RecordInitialQuantityRejectsNegative(t *testing.T) {
	e := newEnv()
	err := e.svc.RecordInitialQuantity(context.Background(), id.New(), id.New(), qty(-1), "importer")
	require.Error(t, err)
}
