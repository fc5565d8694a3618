package operations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
)

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"draft to waiting", StatusDraft, StatusWaiting, true},
		{"draft to done", StatusDraft, StatusDone, true},
		{"ready to cancelled", StatusReady, StatusCancelled, true},
		{"cancelled revived to draft", StatusCancelled, StatusDraft, true},
		{"waiting back to draft", StatusWaiting, StatusDraft, true},
		{"done repeated", StatusDone, StatusDone, true},
		{"done to draft", StatusDone, StatusDraft, false},
		{"done to cancelled", StatusDone, StatusCancelled, false},
		{"unknown target", StatusDraft, Status("SHIPPED"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidate_LocationRequirements(t *testing.T) {
	loc := id.New()
	item := Item{ID: id.New(), ProductID: id.New(), Quantity: qty(1)}

	tests := []struct {
		name  string
		setup func(op *Operation)
		ok    bool
	}{
		{"receipt without destination", func(op *Operation) {}, false},
		{"receipt with destination", func(op *Operation) { op.DestLocationID = &loc }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := NewOperation(TypeReceipt)
			op.Items = []Item{item}
			tt.setup(op)
			err := op.Validate(context.Background())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperror.IsInvalidState(err))
			}
		})
	}

	t.Run("delivery needs source", func(t *testing.T) {
		op := NewOperation(TypeDelivery)
		op.Items = []Item{item}
		op.DestLocationID = &loc
		assert.True(t, apperror.IsInvalidState(op.Validate(context.Background())))

		op.SourceLocationID = &loc
		assert.NoError(t, op.Validate(context.Background()))
	})

	t.Run("internal needs both", func(t *testing.T) {
		op := NewOperation(TypeInternal)
		op.Items = []Item{item}
		op.SourceLocationID = &loc
		assert.True(t, apperror.IsInvalidState(op.Validate(context.Background())))

		dst := id.New()
		op.DestLocationID = &dst
		assert.NoError(t, op.Validate(context.Background()))
	})

	t.Run("adjustment falls back to source", func(t *testing.T) {
		op := NewOperation(TypeAdjustment)
		op.Items = []Item{item}
		assert.True(t, apperror.IsInvalidState(op.Validate(context.Background())))

		op.SourceLocationID = &loc
		assert.NoError(t, op.Validate(context.Background()))
	})
}

func TestValidate_Items(t *testing.T) {
	loc := id.New()

	op := NewOperation(TypeReceipt)
	op.DestLocationID = &loc
	op.Items = []Item{{ID: id.New(), ProductID: id.Nil(), Quantity: qty(1)}}
	err := op.Validate(context.Background())
	require.Error(t, err)

	op.Items = []Item{{ID: id.New(), ProductID: id.New(), Quantity: qty(-1)}}
	require.Error(t, op.Validate(context.Background()))

	// zero quantity only allowed on adjustments
	op.Items = []Item{{ID: id.New(), ProductID: id.New(), Quantity: 0}}
	require.Error(t, op.Validate(context.Background()))

	adj := NewOperation(TypeAdjustment)
	adj.DestLocationID = &loc
	adj.Items = []Item{{ID: id.New(), ProductID: id.New(), Quantity: 0}}
	assert.NoError(t, adj.Validate(context.Background()))
}

func TestEffects_PerType(t *testing.T) {
	product := id.New()
	src := id.New()
	dst := id.New()

	t.Run("receipt debits destination", func(t *testing.T) {
		op := NewOperation(TypeReceipt)
		op.DestLocationID = &dst
		op.Items = []Item{{ProductID: product, Quantity: qty(5)}}

		effects, err := op.Effects()
		require.NoError(t, err)
		require.Len(t, effects, 1)
		assert.Equal(t, dst, effects[0].LocationID)
		assert.Equal(t, qty(5), effects[0].Value)
		assert.False(t, effects[0].Absolute)
		assert.True(t, effects[0].RecordLayer)
	})

	t.Run("delivery credits source", func(t *testing.T) {
		op := NewOperation(TypeDelivery)
		op.SourceLocationID = &src
		op.Items = []Item{{ProductID: product, Quantity: qty(5)}}

		effects, err := op.Effects()
		require.NoError(t, err)
		require.Len(t, effects, 1)
		assert.Equal(t, src, effects[0].LocationID)
		assert.Equal(t, qty(5).Neg(), effects[0].Value)
		assert.True(t, effects[0].RecordLayer)
	})

	t.Run("internal moves with one ledger side", func(t *testing.T) {
		op := NewOperation(TypeInternal)
		op.SourceLocationID = &src
		op.DestLocationID = &dst
		op.Items = []Item{{ProductID: product, Quantity: qty(3)}}

		effects, err := op.Effects()
		require.NoError(t, err)
		require.Len(t, effects, 2)
		assert.Equal(t, src, effects[0].LocationID)
		assert.Equal(t, qty(3).Neg(), effects[0].Value)
		assert.False(t, effects[0].RecordLayer)
		assert.Equal(t, dst, effects[1].LocationID)
		assert.Equal(t, qty(3), effects[1].Value)
		assert.True(t, effects[1].RecordLayer)
	})

	t.Run("adjustment is absolute", func(t *testing.T) {
		op := NewOperation(TypeAdjustment)
		op.SourceLocationID = &src
		op.Items = []Item{{ProductID: product, Quantity: qty(7)}}

		effects, err := op.Effects()
		require.NoError(t, err)
		require.Len(t, effects, 1)
		assert.Equal(t, src, effects[0].LocationID)
		assert.True(t, effects[0].Absolute)
		assert.Equal(t, qty(7), effects[0].Value)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		op := NewOperation(Type("TRANSMUTATION"))
		op.Items = []Item{{ProductID: product, Quantity: qty(1)}}

		_, err := op.Effects()
		require.Error(t, err)
	})
}

func TestTargetLocation(t *testing.T) {
	src := id.New()
	dst := id.New()

	op := NewOperation(TypeAdjustment)
	assert.Nil(t, op.TargetLocation())

	op.SourceLocationID = &src
	assert.Equal(t, &src, op.TargetLocation())

	op.DestLocationID = &dst
	assert.Equal(t, &dst, op.TargetLocation())
}
