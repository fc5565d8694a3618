package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_String(t *testing.T) {
	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"zero", 0, "0.0000"},
		{"integer", Quantity(5 * QuantityScale), "5.0000"},
		{"fractional", Quantity(25*QuantityScale + 5000), "25.5000"},
		{"small fraction", Quantity(1), "0.0001"},
		{"negative", Quantity(-3*QuantityScale - 2500), "-3.2500"},
		{"negative fraction only", Quantity(-1), "-0.0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestQuantity_Arithmetic(t *testing.T) {
	a := NewQuantityFromFloat64(10.5)
	b := NewQuantityFromFloat64(3.25)

	assert.Equal(t, NewQuantityFromFloat64(13.75), a.Add(b))
	assert.Equal(t, NewQuantityFromFloat64(7.25), a.Sub(b))
	assert.Equal(t, NewQuantityFromFloat64(-10.5), a.Neg())
	assert.Equal(t, a, a.Neg().Abs())

	assert.True(t, a.IsPositive())
	assert.True(t, a.Neg().IsNegative())
	assert.True(t, a.Sub(a).IsZero())
}

func TestQuantity_Float64RoundTrip(t *testing.T) {
	q := NewQuantityFromFloat64(12.3456)
	assert.InDelta(t, 12.3456, q.Float64(), 1e-9)

	// Sub-scale precision is rounded away, not truncated.
	assert.Equal(t, NewQuantityFromFloat64(1.0001), NewQuantityFromFloat64(1.00005))
}

func TestQuantity_JSONMarshal(t *testing.T) {
	data, err := json.Marshal(NewQuantityFromFloat64(25.5))
	require.NoError(t, err)
	assert.Equal(t, "25.5000", string(data))
}

func TestQuantity_JSONUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Quantity
	}{
		{"number", `25.5`, NewQuantityFromFloat64(25.5)},
		{"integer number", `7`, Quantity(7 * QuantityScale)},
		{"string", `"3.1415"`, Quantity(3*QuantityScale + 1415)},
		{"negative", `-0.0001`, Quantity(-1)},
		{"null", `null`, 0},
		{"excess digits truncated", `1.00019`, Quantity(1*QuantityScale + 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.input), &q))
			assert.Equal(t, tt.want, q)
		})
	}
}

func TestQuantity_JSONUnmarshalInvalid(t *testing.T) {
	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &q))
	assert.Error(t, json.Unmarshal([]byte(`""`), &q))
}

func TestQuantity_JSONUnmarshalOutOfRange(t *testing.T) {
	var q Quantity
	assert.Error(t, json.Unmarshal([]byte(`1000000000000000`), &q))
	assert.Error(t, json.Unmarshal([]byte(`"922337203685477.5808"`), &q))

	// Largest representable value must still parse.
	require.NoError(t, json.Unmarshal([]byte(`"922337203685477.5807"`), &q))
	assert.Equal(t, Quantity(9223372036854775807), q)
}

func TestMoney(t *testing.T) {
	m, err := NewMoneyFromString("19.99")
	require.NoError(t, err)
	assert.True(t, m.Equal(MustMoney("19.99")))
	assert.True(t, Zero().IsZero())
}
