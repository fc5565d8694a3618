package catalog_repo

import (
	"testing"

	"github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/id"
)

func TestBaseCatalogRepo_Delete_SQL(t *testing.T) {
	repo := testRepo()
	entityID := id.New()

	q := repo.Builder().
		Delete(repo.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM test_table WHERE id = $1", sql)
	require.Len(t, args, 1)
	assert.Equal(t, entityID, args[0])
}

func TestBaseCatalogRepo_SetDeletionMark_SQL(t *testing.T) {
	repo := testRepo()
	entityID := id.New()

	q := repo.Builder().
		Update(repo.tableName).
		Set("deletion_mark", true).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE test_table SET deletion_mark = $1, version = version + 1 WHERE id = $2", sql)
	require.Len(t, args, 2)
}
