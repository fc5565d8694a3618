// Package v1 provides HTTP API version 1.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/catalogs/partner"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/uom"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/domain/operations"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/domain/valuation"
	"stockflow/internal/infrastructure/http/v1/handlers"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/catalog_repo"
	"stockflow/internal/infrastructure/storage/postgres/operation_repo"
	"stockflow/internal/infrastructure/storage/postgres/register_repo"
	"stockflow/pkg/logger"
	"stockflow/pkg/numerator"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager manages database transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// AuditEnabled records entity change history to the audit table
	AuditEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Actor())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	deps, err := buildDependencies(cfg)
	if err != nil {
		return nil, err
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		registerCatalogRoutes(v1, deps)
		registerOperationRoutes(v1, deps)
		registerRegisterRoutes(v1, deps)
	}

	return router, nil
}

// dependencies is the wired service graph shared by all route groups.
type dependencies struct {
	locations  *location.Service
	warehouses *warehouse.Service
	uoms       *uom.Service
	partners   *partner.Service
	products   *product.Service
	operations *operations.Service
	stock      *stock.Service
}

// buildDependencies wires repositories and services onto the TxManager.
func buildDependencies(cfg RouterConfig) (*dependencies, error) {
	txManager := cfg.TxManager

	nums := numerator.New(txQuerier{txManager})

	var auditor operations.Auditor
	if cfg.AuditEnabled {
		auditService, err := postgres.NewAuditService(txManager)
		if err != nil {
			return nil, err
		}
		auditor = auditAdapter{auditService}
	}

	// Stock register and movement engine
	stockRepo := register_repo.NewStockRepo(txManager)
	stockService := stock.NewService(stockRepo)
	engine := valuation.NewEngine(stockRepo)

	// Catalogs
	locationService := location.NewService(catalog_repo.NewLocationRepo(txManager), txManager)
	warehouseService := warehouse.NewService(catalog_repo.NewWarehouseRepo(txManager), txManager, nums)
	uomService := uom.NewService(catalog_repo.NewUoMRepo(txManager), txManager)
	partnerService := partner.NewService(catalog_repo.NewPartnerRepo(txManager), txManager, nums)

	// Operations
	operationService := operations.NewService(
		operation_repo.NewRepo(txManager),
		engine,
		locationService,
		nums,
		txManager,
		auditor,
	)

	// Products book initial quantities through the operation service
	productService := product.NewService(catalog_repo.NewProductRepo(txManager), txManager, operationService)

	return &dependencies{
		locations:  locationService,
		warehouses: warehouseService,
		uoms:       uomService,
		partners:   partnerService,
		products:   productService,
		operations: operationService,
		stock:      stockService,
	}, nil
}

// txQuerier adapts the TxManager to the numerator querier so sequence
// bumps join the surrounding transaction when one is active.
type txQuerier struct {
	txm *postgres.TxManager
}

func (q txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}

// auditAdapter bridges the domain auditor to the audit store.
type auditAdapter struct {
	svc *postgres.AuditService
}

func (a auditAdapter) LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return a.svc.LogChange(ctx, entityType, entityID, postgres.AuditAction(action), changes)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, deps *dependencies) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	// --- PRODUCTS ---
	{
		handler := handlers.NewProductHandler(baseHandler, deps.products)
		group := catalogs.Group("/products")
		RegisterCatalogRoutes(group, handler)
		group.GET("/sku/:sku", handler.GetBySKU)
	}

	// --- WAREHOUSES ---
	{
		handler := handlers.NewWarehouseHandler(baseHandler, deps.warehouses, deps.locations)
		group := catalogs.Group("/warehouses")
		RegisterCatalogRoutes(group, handler)
		group.GET("/:id/locations", handler.ListLocations)
	}

	// --- LOCATIONS ---
	{
		handler := handlers.NewLocationHandler(baseHandler, deps.locations)
		RegisterCatalogRoutes(catalogs.Group("/locations"), handler)
	}

	// --- UNITS OF MEASURE ---
	{
		handler := handlers.NewUoMHandler(baseHandler, deps.uoms)
		RegisterCatalogRoutes(catalogs.Group("/uoms"), handler)
	}

	// --- PARTNERS ---
	{
		handler := handlers.NewPartnerHandler(baseHandler, deps.partners)
		RegisterCatalogRoutes(catalogs.Group("/partners"), handler)
	}
}

// registerOperationRoutes registers stock operation endpoints.
func registerOperationRoutes(rg *gin.RouterGroup, deps *dependencies) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewOperationHandler(baseHandler, deps.operations)

	ops := rg.Group("/operations")
	{
		ops.GET("", handler.List)
		ops.POST("", handler.Create)
		ops.GET("/:id", handler.Get)
		ops.PUT("/:id", handler.Update)
		ops.DELETE("/:id", handler.Delete)
		ops.POST("/:id/status", handler.TransitionStatus)
		ops.GET("/reference/:reference", handler.GetByReference)
	}
}

// registerRegisterRoutes registers stock register read endpoints.
func registerRegisterRoutes(rg *gin.RouterGroup, deps *dependencies) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewStockHandler(baseHandler, deps.stock)

	registers := rg.Group("/registers/stock")
	{
		registers.GET("/balances", handler.GetBalances)
		registers.GET("/ledger", handler.GetLedger)
		registers.GET("/turnover", handler.GetTurnover)
		registers.GET("/availability/:productId", handler.GetProductAvailability)
	}
}
