package handlers

import (
	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// WarehouseHandler serves the warehouse catalog plus its location listing.
type WarehouseHandler struct {
	*CatalogHandler[*warehouse.Warehouse, dto.CreateWarehouseRequest, dto.UpdateWarehouseRequest]
	locations *location.Service
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(
	base *BaseHandler,
	service *warehouse.Service,
	locations *location.Service,
) *WarehouseHandler {
	config := CatalogHandlerConfig[*warehouse.Warehouse, dto.CreateWarehouseRequest, dto.UpdateWarehouseRequest]{
		Service:    service.CatalogService,
		EntityName: "warehouse",
		MapCreateDTO: func(req dto.CreateWarehouseRequest) (*warehouse.Warehouse, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateWarehouseRequest, existing *warehouse.Warehouse) (*warehouse.Warehouse, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(wh *warehouse.Warehouse) any {
			return dto.FromWarehouse(wh)
		},
	}

	return &WarehouseHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		locations:      locations,
	}
}

// ListLocations handles GET /warehouses/:id/locations.
func (h *WarehouseHandler) ListLocations(c *gin.Context) {
	ctx := c.Request.Context()

	warehouseID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	locs, err := h.locations.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(locs))
	for i, loc := range locs {
		items[i] = dto.FromLocation(loc)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      len(items),
	})
}
