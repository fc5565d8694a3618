// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/domain/valuation"
	"stockflow/internal/infrastructure/storage/postgres"
)

const (
	quantsTable = "reg_stock_quants"
	layersTable = "reg_valuation_layers"
)

// StockRepo implements stock.Repository and valuation.Store: it is both
// the write target of the valuation engine and the read side of the
// stock register.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StockRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// --- valuation.Store ---

const (
	// quantSeedSQL materializes a zero balance for a key that has no
	// row yet. DO NOTHING keeps an existing balance untouched; the
	// losing inserter of a concurrent pair simply waits for the row.
	quantSeedSQL = `INSERT INTO reg_stock_quants (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (product_id, location_id) DO NOTHING`

	quantLockSQL = `SELECT quantity FROM reg_stock_quants
		WHERE product_id = $1 AND location_id = $2 FOR UPDATE`
)

// LockQuants locks balances row by row in the order given, so every
// writer that sorts its keys the same way acquires locks in the same
// sequence. A key without a stored row is seeded at zero before the
// lock is taken: two operations racing on a fresh (product, location)
// pair must serialize on the same row, or the second committer would
// overwrite the first's balance instead of building on it.
func (r *StockRepo) LockQuants(ctx context.Context, keys []valuation.QuantKey) (map[valuation.QuantKey]types.Quantity, error) {
	querier := r.querier(ctx)
	out := make(map[valuation.QuantKey]types.Quantity, len(keys))

	for _, key := range keys {
		if _, err := querier.Exec(ctx, quantSeedSQL, key.ProductID, key.LocationID); err != nil {
			return nil, fmt.Errorf("seed quant: %w", err)
		}

		var qty types.Quantity
		if err := querier.QueryRow(ctx, quantLockSQL, key.ProductID, key.LocationID).Scan(&qty); err != nil {
			return nil, fmt.Errorf("lock quant: %w", err)
		}
		out[key] = qty
	}

	return out, nil
}

// UpsertQuant sets the balance for a key. The row is guaranteed by
// LockQuants, so a zero-row update means the caller skipped the lock.
func (r *StockRepo) UpsertQuant(ctx context.Context, key valuation.QuantKey, qty types.Quantity) error {
	const updateSQL = `UPDATE reg_stock_quants
		SET quantity = $3, updated_at = NOW()
		WHERE product_id = $1 AND location_id = $2`

	result, err := r.querier(ctx).Exec(ctx, updateSQL, key.ProductID, key.LocationID, qty)
	if err != nil {
		return fmt.Errorf("update quant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("quant %s/%s not locked before write", key.ProductID, key.LocationID)
	}
	return nil
}

// InsertLayers appends ledger rows, using COPY when inside a transaction.
func (r *StockRepo) InsertLayers(ctx context.Context, layers []valuation.Layer) error {
	if len(layers) == 0 {
		return nil
	}

	columns := []string{
		"id", "operation_id", "product_id", "location_id",
		"debit", "credit", "balance", "unit_cost", "actor", "created_at",
	}

	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(layers))
		for _, l := range layers {
			rows = append(rows, []any{
				l.ID, l.OperationID, l.ProductID, l.LocationID,
				l.Debit, l.Credit, l.Balance, l.UnitCost, l.Actor, l.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, layersTable, columns, rows); err != nil {
			return fmt.Errorf("copy layers: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(layersTable).Columns(columns...)
	for _, l := range layers {
		q = q.Values(
			l.ID, l.OperationID, l.ProductID, l.LocationID,
			l.Debit, l.Credit, l.Balance, l.UnitCost, l.Actor, l.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert layers: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert layers: %w", err)
	}

	return nil
}

// --- stock.Repository ---

// GetQuantity returns the on-hand quantity for a product at a location.
// A missing row means zero.
func (r *StockRepo) GetQuantity(ctx context.Context, productID, locationID id.ID) (types.Quantity, error) {
	const sql = `SELECT quantity FROM reg_stock_quants
		WHERE product_id = $1 AND location_id = $2`

	var qty types.Quantity
	err := r.querier(ctx).QueryRow(ctx, sql, productID, locationID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quantity: %w", err)
	}
	return qty, nil
}

func (r *StockRepo) balanceSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(
			"q.product_id", "q.location_id",
			"p.sku", "p.name AS product_name", "l.code AS location_code",
			"q.quantity", "q.updated_at",
		).
		From(quantsTable + " q").
		Join("cat_products p ON p.id = q.product_id").
		Join("cat_locations l ON l.id = q.location_id")
}

// GetProductBalances returns per-location balances for a product.
func (r *StockRepo) GetProductBalances(ctx context.Context, productID id.ID) ([]stock.Balance, error) {
	q := r.balanceSelect().
		Where(squirrel.Eq{"q.product_id": productID}).
		OrderBy("l.code")

	return r.selectBalances(ctx, q)
}

// GetLocationBalances returns balances at a location.
func (r *StockRepo) GetLocationBalances(ctx context.Context, locationID id.ID, filter stock.BalanceFilter) ([]stock.Balance, error) {
	q := r.balanceSelect().
		Where(squirrel.Eq{"q.location_id": locationID}).
		OrderBy("p.sku")

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"q.product_id": filter.ProductIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"q.quantity": 0})
	}

	return r.selectBalances(ctx, q)
}

func (r *StockRepo) selectBalances(ctx context.Context, q squirrel.SelectBuilder) ([]stock.Balance, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []stock.Balance
	if err := pgxscan.Select(ctx, r.querier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// GetTotalOnHand sums a product's quantity across all locations.
func (r *StockRepo) GetTotalOnHand(ctx context.Context, productID id.ID) (types.Quantity, error) {
	const sql = `SELECT COALESCE(SUM(quantity), 0) FROM reg_stock_quants
		WHERE product_id = $1`

	var total types.Quantity
	if err := r.querier(ctx).QueryRow(ctx, sql, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total on hand: %w", err)
	}
	return total, nil
}

func (r *StockRepo) ledgerSelect() squirrel.SelectBuilder {
	return r.builder.
		Select(
			"v.id", "v.operation_id", "o.type AS operation_type", "o.reference",
			"v.product_id", "p.sku", "v.location_id", "l.code AS location_code",
			"v.debit", "v.credit", "v.balance", "v.unit_cost", "v.actor", "v.created_at",
		).
		From(layersTable + " v").
		Join("doc_operations o ON o.id = v.operation_id").
		Join("cat_products p ON p.id = v.product_id").
		Join("cat_locations l ON l.id = v.location_id")
}

func applyLedgerFilter(q squirrel.SelectBuilder, filter stock.LedgerFilter) squirrel.SelectBuilder {
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"v.product_id": *filter.ProductID})
	}
	if filter.LocationID != nil {
		q = q.Where(squirrel.Eq{"v.location_id": *filter.LocationID})
	}
	if filter.OperationID != nil {
		q = q.Where(squirrel.Eq{"v.operation_id": *filter.OperationID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"v.created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"v.created_at": *filter.ToDate})
	}
	return q
}

// ListLedger returns ledger entries newest first.
func (r *StockRepo) ListLedger(ctx context.Context, filter stock.LedgerFilter) (domain.ListResult[stock.LedgerEntry], error) {
	result := domain.ListResult[stock.LedgerEntry]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := applyLedgerFilter(r.ledgerSelect(), filter)

	countQ := r.builder.Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count ledger: %w", err)
	}

	q = q.OrderBy("v.created_at DESC", "v.id DESC")
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
		return result, fmt.Errorf("list ledger: %w", err)
	}

	return result, nil
}

// GetTurnover aggregates ledger debits and credits over a period.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	turnover := stock.Turnover{
		ProductID:  filter.ProductID,
		LocationID: filter.LocationID,
	}

	scope := func(q squirrel.SelectBuilder) squirrel.SelectBuilder {
		if filter.ProductID != nil {
			q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
		}
		if filter.LocationID != nil {
			q = q.Where(squirrel.Eq{"location_id": *filter.LocationID})
		}
		return q
	}

	openingQ := scope(r.builder.
		Select("COALESCE(SUM(debit - credit), 0)").
		From(layersTable).
		Where(squirrel.Lt{"created_at": filter.FromDate}))

	sql, args, err := openingQ.ToSql()
	if err != nil {
		return turnover, fmt.Errorf("build opening query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&turnover.OpeningBalance); err != nil {
		return turnover, fmt.Errorf("opening balance: %w", err)
	}

	periodQ := scope(r.builder.
		Select("COALESCE(SUM(debit), 0)", "COALESCE(SUM(credit), 0)").
		From(layersTable).
		Where(squirrel.GtOrEq{"created_at": filter.FromDate}).
		Where(squirrel.LtOrEq{"created_at": filter.ToDate}))

	sql, args, err = periodQ.ToSql()
	if err != nil {
		return turnover, fmt.Errorf("build period query: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&turnover.Debit, &turnover.Credit); err != nil {
		return turnover, fmt.Errorf("period turnover: %w", err)
	}

	turnover.ClosingBalance = turnover.OpeningBalance.
		Add(turnover.Debit).
		Sub(turnover.Credit)

	return turnover, nil
}
