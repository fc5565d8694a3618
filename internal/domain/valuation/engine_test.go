package valuation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

type memStore struct {
	quants map[QuantKey]types.Quantity
	layers []Layer
	locked [][]QuantKey
}

func newMemStore() *memStore {
	return &memStore{quants: make(map[QuantKey]types.Quantity)}
}

func (m *memStore) LockQuants(_ context.Context, keys []QuantKey) (map[QuantKey]types.Quantity, error) {
	m.locked = append(m.locked, keys)
	out := make(map[QuantKey]types.Quantity, len(keys))
	for _, k := range keys {
		if _, ok := m.quants[k]; !ok {
			m.quants[k] = 0
		}
		out[k] = m.quants[k]
	}
	return out, nil
}

func (m *memStore) UpsertQuant(_ context.Context, key QuantKey, qty types.Quantity) error {
	m.quants[key] = qty
	return nil
}

func (m *memStore) InsertLayers(_ context.Context, layers []Layer) error {
	m.layers = append(m.layers, layers...)
	return nil
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func TestApply_DebitCreatesQuantAndLayer(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	opID := id.New()

	err := engine.Apply(context.Background(), opID, []Effect{
		{ProductID: product, LocationID: location, Value: qty(10), RecordLayer: true},
	}, "alice")
	require.NoError(t, err)

	key := QuantKey{ProductID: product, LocationID: location}
	assert.Equal(t, qty(10), store.quants[key])

	require.Len(t, store.layers, 1)
	layer := store.layers[0]
	assert.Equal(t, opID, layer.OperationID)
	assert.Equal(t, qty(10), layer.Debit)
	assert.True(t, layer.Credit.IsZero())
	assert.Equal(t, qty(10), layer.Balance)
	assert.Equal(t, "alice", layer.Actor)
}

func TestApply_CreditFromExistingBalance(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}
	store.quants[key] = qty(25)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Value: qty(10).Neg(), RecordLayer: true},
	}, "bob")
	require.NoError(t, err)

	assert.Equal(t, qty(15), store.quants[key])

	require.Len(t, store.layers, 1)
	assert.True(t, store.layers[0].Debit.IsZero())
	assert.Equal(t, qty(10), store.layers[0].Credit)
	assert.Equal(t, qty(15), store.layers[0].Balance)
}

func TestApply_InsufficientStock(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}
	store.quants[key] = qty(3)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Value: qty(5).Neg(), RecordLayer: true},
	}, "bob")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Empty(t, store.layers)
}

func TestApply_MissingQuantTreatedAsZero(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: id.New(), LocationID: id.New(), Value: qty(1).Neg(), RecordLayer: true},
	}, "bob")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
}

func TestApply_AbsoluteSetsBalanceAndSignsDelta(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}
	store.quants[key] = qty(12)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Absolute: true, Value: qty(7), RecordLayer: true},
	}, "counter")
	require.NoError(t, err)

	assert.Equal(t, qty(7), store.quants[key])

	require.Len(t, store.layers, 1)
	assert.True(t, store.layers[0].Debit.IsZero())
	assert.Equal(t, qty(5), store.layers[0].Credit)
	assert.Equal(t, qty(7), store.layers[0].Balance)
}

func TestApply_AbsoluteZeroDeltaStillRecordsLayer(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}
	store.quants[key] = qty(9)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Absolute: true, Value: qty(9), RecordLayer: true},
	}, "counter")
	require.NoError(t, err)

	require.Len(t, store.layers, 1)
	assert.True(t, store.layers[0].Debit.IsZero())
	assert.True(t, store.layers[0].Credit.IsZero())
	assert.Equal(t, qty(9), store.layers[0].Balance)
}

func TestApply_TransferRecordsOnlyDestination(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	src := id.New()
	dst := id.New()
	store.quants[QuantKey{ProductID: product, LocationID: src}] = qty(20)

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: src, Value: qty(8).Neg()},
		{ProductID: product, LocationID: dst, Value: qty(8), RecordLayer: true},
	}, "mover")
	require.NoError(t, err)

	assert.Equal(t, qty(12), store.quants[QuantKey{ProductID: product, LocationID: src}])
	assert.Equal(t, qty(8), store.quants[QuantKey{ProductID: product, LocationID: dst}])

	require.Len(t, store.layers, 1)
	assert.Equal(t, dst, store.layers[0].LocationID)
	assert.Equal(t, qty(8), store.layers[0].Debit)
}

func TestApply_RepeatedEffectsOnSamePairAccumulate(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Value: qty(4), RecordLayer: true},
		{ProductID: product, LocationID: location, Value: qty(6), RecordLayer: true},
	}, "alice")
	require.NoError(t, err)

	assert.Equal(t, qty(10), store.quants[key])
	require.Len(t, store.layers, 2)
	assert.Equal(t, qty(4), store.layers[0].Balance)
	assert.Equal(t, qty(10), store.layers[1].Balance)
}

func TestApply_SequentialOperationsOnFreshPairAccumulate(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	product := id.New()
	location := id.New()
	key := QuantKey{ProductID: product, LocationID: location}

	err := engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Value: qty(5), RecordLayer: true},
	}, "alice")
	require.NoError(t, err)

	err = engine.Apply(context.Background(), id.New(), []Effect{
		{ProductID: product, LocationID: location, Value: qty(7), RecordLayer: true},
	}, "bob")
	require.NoError(t, err)

	// the second operation builds on the first's balance, never
	// overwrites it
	assert.Equal(t, qty(12), store.quants[key])

	require.Len(t, store.layers, 2)
	assert.Equal(t, qty(5), store.layers[0].Balance)
	assert.Equal(t, qty(12), store.layers[1].Balance)

	// both passes locked the pair before writing
	require.Len(t, store.locked, 2)
	assert.Equal(t, []QuantKey{key}, store.locked[0])
	assert.Equal(t, []QuantKey{key}, store.locked[1])
}

func TestApply_EmptyEffectsIsNoOp(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store)

	err := engine.Apply(context.Background(), id.New(), nil, "alice")
	require.NoError(t, err)
	assert.Empty(t, store.locked)
}

func TestLockOrder_SortedAndDeduped(t *testing.T) {
	pA := id.MustParse("00000000-0000-7000-8000-000000000001")
	pB := id.MustParse("00000000-0000-7000-8000-000000000002")
	lA := id.MustParse("10000000-0000-7000-8000-000000000001")
	lB := id.MustParse("10000000-0000-7000-8000-000000000002")

	keys := lockOrder([]Effect{
		{ProductID: pB, LocationID: lB},
		{ProductID: pA, LocationID: lB},
		{ProductID: pA, LocationID: lA},
		{ProductID: pB, LocationID: lB},
	})

	require.Len(t, keys, 3)
	assert.Equal(t, QuantKey{ProductID: pA, LocationID: lA}, keys[0])
	assert.Equal(t, QuantKey{ProductID: pA, LocationID: lB}, keys[1])
	assert.Equal(t, QuantKey{ProductID: pB, LocationID: lB}, keys[2])
}
