package catalog_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetBySKU retrieves a product by its SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"sku": sku, "deletion_mark": false}).
		Limit(1)

	p, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, err
	}
	return p, nil
}

// ExistsBySKU checks SKU uniqueness.
func (r *ProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	q := r.Builder().
		Select("1").
		From(productTable).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("exists by sku: %w", err)
	}
	return true, nil
}

// IDsByCategory returns product ids in a category.
func (r *ProductRepo) IDsByCategory(ctx context.Context, category string) ([]id.ID, error) {
	q := r.Builder().
		Select("id").
		From(productTable).
		Where(squirrel.Eq{"category": category, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ids []id.ID
	if err := pgxscan.Select(ctx, r.querier(ctx), &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("ids by category: %w", err)
	}
	return ids, nil
}

// onHandSubquery aggregates quants per product.
const onHandSubquery = `(SELECT product_id, SUM(quantity) AS on_hand
	FROM reg_stock_quants GROUP BY product_id) s ON s.product_id = p.id`

// ListWithStock returns products joined with their total on-hand
// quantity and the code of their default location.
func (r *ProductRepo) ListWithStock(ctx context.Context, f domain.ListFilter) (domain.ListResult[*product.WithStock], error) {
	result := domain.ListResult[*product.WithStock]{
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	cols := postgres.ExtractDBColumns[product.Product]()
	selectCols := make([]string, 0, len(cols)+2)
	for _, col := range cols {
		selectCols = append(selectCols, "p."+col)
	}
	selectCols = append(selectCols,
		"COALESCE(s.on_hand, 0) AS on_hand",
		"l.code AS default_location_code",
	)

	applyFilters := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if !f.IncludeDeleted {
			q = q.Where(squirrel.Eq{"p.deletion_mark": false})
		}
		if len(f.IDs) > 0 {
			q = q.Where(squirrel.Eq{"p.id": f.IDs})
		}
		if f.Search != "" {
			pattern := "%" + f.Search + "%"
			q = q.Where(squirrel.Or{
				squirrel.ILike{"p.name": pattern},
				squirrel.ILike{"p.code": pattern},
				squirrel.ILike{"p.sku": pattern},
			})
		}
		return q
	}

	countQuery := applyFilters(r.Builder().
		Select("COUNT(*)").
		From(productTable + " p"))

	sql, args, err := countQuery.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	orderBy, err := parseStockOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}

	query := applyFilters(r.Builder().
		Select(selectCols...).
		From(productTable+" p").
		LeftJoin(onHandSubquery).
		LeftJoin("cat_locations l ON l.id = p.default_location_id")).
		OrderBy(orderBy)

	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		query = query.Offset(uint64(f.Offset))
	}

	sql, args, err = query.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list products with stock: %w", err)
	}

	return result, nil
}

func parseStockOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "p.name ASC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(field, "-")
	}

	switch field {
	case "name", "code", "sku", "category", "price":
		return "p." + field + " " + direction, nil
	case "on_hand":
		return "on_hand " + direction, nil
	default:
		return "", apperror.NewValidation("unsupported order field").
			WithDetail("field", field)
	}
}
