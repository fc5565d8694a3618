package register_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantSeedSQL_MaterializesWithoutOverwriting(t *testing.T) {
	assert.Contains(t, quantSeedSQL, "VALUES ($1, $2, 0, NOW())")

	// An existing balance must survive the seed; the losing inserter
	// of a concurrent pair waits on the unique index instead of
	// replacing the row.
	assert.Contains(t, quantSeedSQL, "ON CONFLICT (product_id, location_id) DO NOTHING")
	assert.NotContains(t, quantSeedSQL, "DO UPDATE")
}

func TestQuantLockSQL_TakesRowLock(t *testing.T) {
	assert.Contains(t, quantLockSQL, "FOR UPDATE")
}
