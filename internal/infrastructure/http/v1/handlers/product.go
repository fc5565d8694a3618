package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockflow/internal/core/apperror"
	appctx "stockflow/internal/core/context"
	"stockflow/internal/core/id"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog. List and Create diverge
// from the generic catalog shape: lists carry derived on-hand
// quantities, and creation can book an initial counted quantity through
// the movement engine.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	config := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",
		MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// List handles GET /products - products with derived on-hand quantity.
func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter, ok := h.ParseListFilter(c)
	if !ok {
		return
	}

	result, err := h.service.ListWithStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = dto.FromProductWithStock(item)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// Create handles POST /products - create product, optionally with
// an initial counted quantity.
func (h *ProductHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := req.ToEntity()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return
	}

	var locID *id.ID
	if req.InitialLocationID != nil && *req.InitialLocationID != "" {
		parsed, err := id.Parse(*req.InitialLocationID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid initialLocationId"))
			return
		}
		locID = &parsed
	}

	actor := appctx.GetActorName(ctx)
	if err := h.service.CreateWithInitialStock(ctx, p, req.InitialQuantity, locID, actor); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromProduct(p))
}

// GetBySKU handles GET /products/sku/:sku.
func (h *ProductHandler) GetBySKU(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.service.GetBySKU(ctx, c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProduct(p))
}
