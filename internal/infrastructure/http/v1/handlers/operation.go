package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/operations"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// OperationHandler serves the stock operation document.
type OperationHandler struct {
	*BaseHandler
	service *operations.Service
}

// NewOperationHandler creates an operation handler.
func NewOperationHandler(base *BaseHandler, service *operations.Service) *OperationHandler {
	return &OperationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /operations.
func (h *OperationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, op := range result.Items {
		items[i] = dto.FromOperation(op)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Get handles GET /operations/:id.
func (h *OperationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	opID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	op, err := h.service.GetByID(ctx, opID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOperation(op))
}

// GetByReference handles GET /operations/reference/:reference.
func (h *OperationHandler) GetByReference(c *gin.Context) {
	ctx := c.Request.Context()

	op, err := h.service.GetByReference(ctx, c.Param("reference"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOperation(op))
}

// Create handles POST /operations - create a draft operation.
func (h *OperationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOperationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	op, err := h.service.Create(ctx, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOperation(op))
}

// Update handles PUT /operations/:id.
func (h *OperationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	opID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateOperationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	input, err := req.ToInput()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	op, err := h.service.Update(ctx, opID, input)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOperation(op))
}

// TransitionStatus handles POST /operations/:id/status.
// Transitioning to DONE applies the operation's items to stock.
func (h *OperationHandler) TransitionStatus(c *gin.Context) {
	ctx := c.Request.Context()

	opID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.TransitionStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if actor := strings.TrimSpace(req.Actor); actor != "" {
		ctx = appctx.WithActor(ctx, &appctx.Actor{Name: actor})
	}

	op, err := h.service.TransitionStatus(ctx, opID, operations.Status(req.Status), req.ExpectedVersion)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromOperation(op))
}

// Delete handles DELETE /operations/:id.
func (h *OperationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	opID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(ctx, opID); err != nil {
		h.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseFilter extracts operation list parameters from the query string.
func (h *OperationHandler) parseFilter(c *gin.Context) (operations.ListFilter, bool) {
	base, ok := h.ParseListFilter(c)
	if !ok {
		return operations.ListFilter{}, false
	}
	base.OrderBy = c.DefaultQuery("orderBy", "-date")

	filter := operations.ListFilter{ListFilter: base}

	if t := c.Query("type"); t != "" {
		opType := operations.Type(t)
		filter.Type = &opType
	}
	if s := c.Query("status"); s != "" {
		status := operations.Status(s)
		filter.Status = &status
	}
	if loc := c.Query("locationId"); loc != "" {
		locID, err := id.Parse(loc)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid locationId format"))
			return filter, false
		}
		filter.LocationID = &locID
	}

	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{
		{"dateFrom", &filter.DateFrom},
		{"dateTo", &filter.DateTo},
	} {
		if v := c.Query(bound.key); v != "" {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				h.Error(c, apperror.NewValidation("invalid "+bound.key+" format (RFC3339 expected)"))
				return filter, false
			}
			*bound.dest = &parsed
		}
	}

	return filter, true
}
