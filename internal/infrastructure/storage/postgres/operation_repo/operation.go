// Package operation_repo provides the PostgreSQL implementation of the
// stock operation repository.
package operation_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/operations"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	operationsTable     = "doc_operations"
	operationItemsTable = "doc_operation_items"
)

// Repo implements operations.Repository.
type Repo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewRepo creates a new operation repository.
func NewRepo(txManager *postgres.TxManager) *Repo {
	return &Repo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[operations.Operation](),
	}
}

// Builder returns a new squirrel builder.
func (r *Repo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *Repo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *Repo) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(operationsTable)
}

// Create inserts a new operation row. Items are saved separately.
func (r *Repo) Create(ctx context.Context, op *operations.Operation) error {
	data := postgres.StructToMap(op)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Insert(operationsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("operation", "reference", op.Reference).WithCause(err)
		}
		return fmt.Errorf("insert operation: %w", err)
	}

	return nil
}

// Update updates an operation with optimistic locking and bumps the
// entity version on success.
func (r *Repo) Update(ctx context.Context, op *operations.Operation) error {
	data := postgres.StructToMap(op)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "created_at", "created_by":
			continue // immutable
		case "version", "updated_at":
			continue // managed below
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(operationsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": op.ID}).
		Where(squirrel.Eq{"version": op.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("operation", op.ID.String())
	}

	op.SetVersion(op.Version + 1)
	return nil
}

// Delete soft-deletes an operation.
func (r *Repo) Delete(ctx context.Context, opID id.ID) error {
	q := r.Builder().
		Update(operationsTable).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": opID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete operation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("operation", opID.String())
	}

	return nil
}

// GetByID retrieves an operation by ID.
func (r *Repo) GetByID(ctx context.Context, opID id.ID) (*operations.Operation, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": opID}), opID.String())
}

// GetByReference retrieves an operation by its document reference.
func (r *Repo) GetByReference(ctx context.Context, reference string) (*operations.Operation, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"reference": reference}), reference)
}

// GetForUpdate retrieves an operation with a row lock.
func (r *Repo) GetForUpdate(ctx context.Context, opID id.ID) (*operations.Operation, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": opID}).
		Suffix("FOR UPDATE")
	return r.getOne(ctx, q, opID.String())
}

func (r *Repo) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*operations.Operation, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var op operations.Operation
	if err := pgxscan.Get(ctx, r.querier(ctx), &op, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("operation", key)
		}
		return nil, fmt.Errorf("get operation: %w", err)
	}

	return &op, nil
}

// GetItems retrieves operation items with joined product fields.
func (r *Repo) GetItems(ctx context.Context, opID id.ID) ([]operations.Item, error) {
	q := r.Builder().
		Select(
			"i.id", "i.operation_id", "i.product_id", "i.quantity",
			"p.name AS product_name", "p.sku",
		).
		From(operationItemsTable + " i").
		Join("cat_products p ON p.id = i.product_id").
		Where(squirrel.Eq{"i.operation_id": opID}).
		OrderBy("i.id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []operations.Item
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// ReplaceItems swaps the operation's items (delete existing + insert new).
func (r *Repo) ReplaceItems(ctx context.Context, opID id.ID, items []operations.Item) error {
	querier := r.querier(ctx)

	deleteSQL := "DELETE FROM " + operationItemsTable + " WHERE operation_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, opID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(operationItemsTable).
		Columns("id", "operation_id", "product_id", "quantity")

	for _, item := range items {
		q = q.Values(item.ID, opID, item.ProductID, item.Quantity)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// List retrieves operations with filtering.
func (r *Repo) List(ctx context.Context, filter operations.ListFilter) (domain.ListResult[*operations.Operation], error) {
	result := domain.ListResult[*operations.Operation]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"source_location_id": *filter.LocationID},
			squirrel.Eq{"dest_location_id": *filter.LocationID},
		})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"reference": pattern},
			squirrel.ILike{"contact": pattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list operations: %w", err)
	}

	return result, nil
}

func (r *Repo) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(r.selectCols))
	for _, col := range r.selectCols {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	}

	field = strings.TrimSpace(field)
	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").
			WithDetail("field", field)
	}

	return field + " " + direction, nil
}
