// Package main provides a CLI tool for bootstrapping the database
// schema and seeding demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"stockflow/internal/config"
	"stockflow/internal/core/id"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := config.Load()

	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN())
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := applySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// schema is idempotent; every statement tolerates re-runs.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS cat_uoms (
		id            UUID PRIMARY KEY,
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_uoms_code
		ON cat_uoms (code) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS cat_warehouses (
		id            UUID PRIMARY KEY,
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		address       TEXT,
		capacity_pct  INT NOT NULL DEFAULT 0,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_warehouses_code
		ON cat_warehouses (code) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS cat_locations (
		id            UUID PRIMARY KEY,
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		warehouse_id  UUID REFERENCES cat_warehouses(id),
		kind          TEXT NOT NULL,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_locations_code
		ON cat_locations (code) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS cat_partners (
		id            UUID PRIMARY KEY,
		code          TEXT NOT NULL,
		name          TEXT NOT NULL,
		kind          TEXT NOT NULL,
		email         TEXT,
		phone         TEXT,
		deletion_mark BOOLEAN NOT NULL DEFAULT FALSE,
		version       INT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_partners_code
		ON cat_partners (code) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS cat_products (
		id                  UUID PRIMARY KEY,
		code                TEXT NOT NULL,
		name                TEXT NOT NULL,
		sku                 TEXT NOT NULL,
		category            TEXT,
		uom_id              UUID NOT NULL REFERENCES cat_uoms(id),
		min_stock           BIGINT NOT NULL DEFAULT 0,
		max_stock           BIGINT NOT NULL DEFAULT 0,
		price               NUMERIC(15,2) NOT NULL DEFAULT 0,
		default_location_id UUID REFERENCES cat_locations(id),
		qc_status           TEXT NOT NULL DEFAULT 'PENDING',
		barcode             TEXT,
		deletion_mark       BOOLEAN NOT NULL DEFAULT FALSE,
		version             INT NOT NULL DEFAULT 1
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cat_products_sku
		ON cat_products (sku) WHERE deletion_mark = FALSE`,

	`CREATE TABLE IF NOT EXISTS doc_operations (
		id                 UUID PRIMARY KEY,
		reference          TEXT NOT NULL,
		type               TEXT NOT NULL,
		status             TEXT NOT NULL,
		date               TIMESTAMPTZ NOT NULL,
		notes              TEXT NOT NULL DEFAULT '',
		contact            TEXT,
		responsible        TEXT,
		source_location_id UUID REFERENCES cat_locations(id),
		dest_location_id   UUID REFERENCES cat_locations(id),
		scheduled_at       TIMESTAMPTZ,
		last_edited_by     TEXT NOT NULL DEFAULT '',
		deletion_mark      BOOLEAN NOT NULL DEFAULT FALSE,
		version            INT NOT NULL DEFAULT 1,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_by         TEXT NOT NULL DEFAULT '',
		updated_by         TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_doc_operations_reference
		ON doc_operations (reference) WHERE deletion_mark = FALSE`,
	`CREATE INDEX IF NOT EXISTS ix_doc_operations_date
		ON doc_operations (date DESC)`,

	`CREATE TABLE IF NOT EXISTS doc_operation_items (
		id           UUID PRIMARY KEY,
		operation_id UUID NOT NULL REFERENCES doc_operations(id) ON DELETE CASCADE,
		product_id   UUID NOT NULL REFERENCES cat_products(id),
		quantity     BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS ix_doc_operation_items_operation
		ON doc_operation_items (operation_id)`,

	`CREATE TABLE IF NOT EXISTS reg_stock_quants (
		product_id  UUID NOT NULL REFERENCES cat_products(id),
		location_id UUID NOT NULL REFERENCES cat_locations(id),
		quantity    BIGINT NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (product_id, location_id)
	)`,

	`CREATE TABLE IF NOT EXISTS reg_valuation_layers (
		id           UUID PRIMARY KEY,
		operation_id UUID NOT NULL REFERENCES doc_operations(id),
		product_id   UUID NOT NULL REFERENCES cat_products(id),
		location_id  UUID NOT NULL REFERENCES cat_locations(id),
		debit        BIGINT NOT NULL DEFAULT 0,
		credit       BIGINT NOT NULL DEFAULT 0,
		balance      BIGINT NOT NULL DEFAULT 0,
		unit_cost    NUMERIC(15,4) NOT NULL DEFAULT 0,
		actor        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_valuation_layers_product
		ON reg_valuation_layers (product_id, location_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS ix_reg_valuation_layers_operation
		ON reg_valuation_layers (operation_id)`,

	`CREATE TABLE IF NOT EXISTS sys_sequences (
		key         TEXT PRIMARY KEY,
		current_val BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS sys_audit (
		id                 UUID PRIMARY KEY,
		entity_type        TEXT NOT NULL,
		entity_id          UUID NOT NULL,
		action             TEXT NOT NULL,
		actor              TEXT NOT NULL DEFAULT '',
		changes            JSONB,
		changes_compressed BYTEA,
		compression_algo   TEXT NOT NULL DEFAULT 'none',
		metadata           JSONB,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS ix_sys_audit_entity
		ON sys_audit (entity_type, entity_id, created_at)`,
}

func applySchema(ctx context.Context, pool *postgres.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	// 1. Units of measure
	uoms := []struct {
		code string
		name string
	}{
		{"PCS", "Pieces"},
		{"KG", "Kilogram"},
		{"L", "Litre"},
		{"BOX", "Box"},
	}

	uomIDs := make(map[string]id.ID)
	for _, u := range uoms {
		uid, err := upsertCatalogRow(ctx, pool, "cat_uoms",
			`INSERT INTO cat_uoms (id, code, name)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING`,
			u.code, u.code, u.name)
		if err != nil {
			log.Warnw("failed to seed uom", "code", u.code, "error", err)
			continue
		}
		uomIDs[u.code] = uid
	}

	// 2. Warehouse
	whID, err := upsertCatalogRow(ctx, pool, "cat_warehouses",
		`INSERT INTO cat_warehouses (id, code, name, address)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING`,
		"WH-001", "WH-001", "Main Warehouse", "1 Dock Road")
	if err != nil {
		return fmt.Errorf("seed warehouse: %w", err)
	}

	// 3. Locations: physical stock plus the virtual counterparties
	locations := []struct {
		code        string
		name        string
		kind        string
		warehouseID *id.ID
	}{
		{"STOCK", "Main Stock", "INTERNAL", &whID},
		{"INPUT", "Receiving Bay", "INTERNAL", &whID},
		{"OUTPUT", "Dispatch Bay", "INTERNAL", &whID},
		{"VENDORS", "Vendors", "VENDOR", nil},
		{"CUSTOMERS", "Customers", "CUSTOMER", nil},
	}

	locIDs := make(map[string]id.ID)
	for _, l := range locations {
		lid, err := upsertCatalogRow(ctx, pool, "cat_locations",
			`INSERT INTO cat_locations (id, code, name, kind, warehouse_id)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING`,
			l.code, l.code, l.name, l.kind, l.warehouseID)
		if err != nil {
			log.Warnw("failed to seed location", "code", l.code, "error", err)
			continue
		}
		locIDs[l.code] = lid
	}

	// 4. Partners
	partners := []struct {
		code string
		name string
		kind string
	}{
		{"VND-001", "Acme Supplies", "VENDOR"},
		{"VND-002", "Global Parts Co", "VENDOR"},
		{"CST-001", "Northwind Retail", "CUSTOMER"},
	}

	for _, p := range partners {
		if _, err := upsertCatalogRow(ctx, pool, "cat_partners",
			`INSERT INTO cat_partners (id, code, name, kind)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING`,
			p.code, p.code, p.name, p.kind); err != nil {
			log.Warnw("failed to seed partner", "code", p.code, "error", err)
		}
	}

	// 5. Products
	stockLoc, hasStockLoc := locIDs["STOCK"]
	products := []struct {
		sku      string
		name     string
		category string
		uomCode  string
	}{
		{"DESK-001", "Office Desk", "Furniture", "PCS"},
		{"CHAIR-001", "Office Chair", "Furniture", "PCS"},
		{"PAPER-A4", "Copy Paper A4", "Office Supplies", "BOX"},
		{"PEN-BLUE", "Ballpoint Pen Blue", "Office Supplies", "PCS"},
	}

	for _, p := range products {
		uomID, ok := uomIDs[p.uomCode]
		if !ok {
			uomID = uomIDs["PCS"]
		}
		var defaultLoc any
		if hasStockLoc {
			defaultLoc = stockLoc
		}
		if _, err := upsertCatalogRow(ctx, pool, "cat_products",
			`INSERT INTO cat_products (id, code, name, sku, category, uom_id, default_location_id, qc_status)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'PASS')
			 ON CONFLICT (sku) WHERE deletion_mark = FALSE DO NOTHING`,
			p.sku, p.sku, p.name, p.sku, p.category, uomID, defaultLoc); err != nil {
			log.Warnw("failed to seed product", "sku", p.sku, "error", err)
		}
	}

	log.Info("demo data seeded successfully")
	return nil
}

// upsertCatalogRow inserts a row keyed by its code (or sku), returning
// the id of the inserted or already-present row. The insert statement
// must take the generated id as $1 and the lookup key as $2.
func upsertCatalogRow(ctx context.Context, pool *postgres.Pool, table, insertSQL string, key string, args ...any) (id.ID, error) {
	rowID := id.New()

	allArgs := append([]any{rowID}, args...)
	tag, err := pool.Exec(ctx, insertSQL, allArgs...)
	if err != nil {
		return id.Nil(), err
	}
	if tag.RowsAffected() > 0 {
		return rowID, nil
	}

	// Conflict: fetch the existing row.
	keyCol := "code"
	if table == "cat_products" {
		keyCol = "sku"
	}
	err = pool.QueryRow(ctx,
		`SELECT id FROM `+table+` WHERE `+keyCol+` = $1 AND deletion_mark = FALSE`,
		key,
	).Scan(&rowID)
	if err != nil {
		return id.Nil(), err
	}
	return rowID, nil
}
