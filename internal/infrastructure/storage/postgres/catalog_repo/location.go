package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/infrastructure/storage/postgres"
)

const locationTable = "cat_locations"

// LocationRepo implements location.Repository.
type LocationRepo struct {
	*BaseCatalogRepo[*location.Location]
}

// NewLocationRepo creates a new location repository.
func NewLocationRepo(txManager *postgres.TxManager) *LocationRepo {
	return &LocationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			locationTable,
			postgres.ExtractDBColumns[location.Location](),
			func() *location.Location { return &location.Location{} },
		),
	}
}

// ListByWarehouse returns all active locations of a warehouse.
func (r *LocationRepo) ListByWarehouse(ctx context.Context, warehouseID id.ID) ([]*location.Location, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"warehouse_id": warehouseID, "deletion_mark": false}).
		OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var locations []*location.Location
	if err := pgxscan.Select(ctx, r.querier(ctx), &locations, sql, args...); err != nil {
		return nil, fmt.Errorf("list by warehouse: %w", err)
	}

	return locations, nil
}
