package handlers

import (
	"stockflow/internal/domain/catalogs/uom"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// UoMHTTPHandler is an alias to keep wiring readable.
type UoMHTTPHandler = CatalogHandler[
	*uom.UoM,
	dto.CreateUoMRequest,
	dto.UpdateUoMRequest,
]

// NewUoMHandler creates a unit-of-measure handler.
func NewUoMHandler(base *BaseHandler, service *uom.Service) *UoMHTTPHandler {
	config := CatalogHandlerConfig[*uom.UoM, dto.CreateUoMRequest, dto.UpdateUoMRequest]{
		Service:    service.CatalogService,
		EntityName: "uom",
		MapCreateDTO: func(req dto.CreateUoMRequest) (*uom.UoM, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateUoMRequest, existing *uom.UoM) (*uom.UoM, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(u *uom.UoM) any {
			return dto.FromUoM(u)
		},
	}

	return NewCatalogHandler(base, config)
}
