package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockflow/internal/domain/operations"
)

func TestDirectionForType(t *testing.T) {
	assert.Equal(t, DirectionIn, DirectionForType(operations.TypeReceipt))
	assert.Equal(t, DirectionOut, DirectionForType(operations.TypeDelivery))
	assert.Equal(t, DirectionMove, DirectionForType(operations.TypeInternal))
	assert.Equal(t, DirectionAdjust, DirectionForType(operations.TypeAdjustment))
}
