package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/registers/stock"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// StockHandler serves read-only stock register endpoints: balances,
// the movement ledger and period turnovers.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a stock register handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetBalances handles GET /registers/stock/balances.
// Requires either productId (per-location balances of one product) or
// locationId (balances at one location).
func (h *StockHandler) GetBalances(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.parseOptionalIDQuery(c, "productId")
	if !ok {
		return
	}
	locationID, ok := h.parseOptionalIDQuery(c, "locationId")
	if !ok {
		return
	}

	switch {
	case productID != nil:
		balances, err := h.service.GetProductBalances(ctx, *productID)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{"items": dto.FromBalances(balances)})

	case locationID != nil:
		filter := stock.BalanceFilter{
			ExcludeZero: c.Query("excludeZero") == "true",
		}
		balances, err := h.service.GetLocationBalances(ctx, *locationID, filter)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, gin.H{"items": dto.FromBalances(balances)})

	default:
		h.Error(c, apperror.NewValidation("productId or locationId is required"))
	}
}

// GetLedger handles GET /registers/stock/ledger.
func (h *StockHandler) GetLedger(c *gin.Context) {
	ctx := c.Request.Context()

	filter := stock.LedgerFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	var ok bool
	if filter.ProductID, ok = h.parseOptionalIDQuery(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.parseOptionalIDQuery(c, "locationId"); !ok {
		return
	}
	if filter.OperationID, ok = h.parseOptionalIDQuery(c, "operationId"); !ok {
		return
	}
	if filter.FromDate, ok = h.parseOptionalTimeQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.parseOptionalTimeQuery(c, "to"); !ok {
		return
	}

	result, err := h.service.ListLedger(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, entry := range result.Items {
		items[i] = dto.FromLedgerEntry(entry)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// GetTurnover handles GET /registers/stock/turnover.
func (h *StockHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	from, ok := h.parseOptionalTimeQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.parseOptionalTimeQuery(c, "to")
	if !ok {
		return
	}
	if from == nil || to == nil {
		h.Error(c, apperror.NewValidation("from and to are required"))
		return
	}

	filter := stock.TurnoverFilter{FromDate: *from, ToDate: *to}
	if filter.ProductID, ok = h.parseOptionalIDQuery(c, "productId"); !ok {
		return
	}
	if filter.LocationID, ok = h.parseOptionalIDQuery(c, "locationId"); !ok {
		return
	}

	turnover, err := h.service.GetTurnover(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromTurnover(turnover))
}

// GetProductAvailability handles GET /registers/stock/availability/:productId.
func (h *StockHandler) GetProductAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	onHand, err := h.service.GetTotalOnHand(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.AvailabilityResponse{
		ProductID: productID.String(),
		OnHand:    onHand,
	})
}

// parseOptionalIDQuery parses a nullable ID query parameter.
func (h *BaseHandler) parseOptionalIDQuery(c *gin.Context, key string) (*id.ID, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := id.Parse(val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format"))
		return nil, false
	}
	return &parsed, true
}

// parseOptionalTimeQuery parses a nullable RFC3339 query parameter.
func (h *BaseHandler) parseOptionalTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format (RFC3339 expected)"))
		return nil, false
	}
	return &parsed, true
}
