package handlers

import (
	"stockflow/internal/domain/catalogs/location"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// LocationHTTPHandler is an alias to keep wiring readable.
type LocationHTTPHandler = CatalogHandler[
	*location.Location,
	dto.CreateLocationRequest,
	dto.UpdateLocationRequest,
]

// NewLocationHandler creates a location handler.
func NewLocationHandler(base *BaseHandler, service *location.Service) *LocationHTTPHandler {
	config := CatalogHandlerConfig[*location.Location, dto.CreateLocationRequest, dto.UpdateLocationRequest]{
		Service:    service.CatalogService,
		EntityName: "location",
		MapCreateDTO: func(req dto.CreateLocationRequest) (*location.Location, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateLocationRequest, existing *location.Location) (*location.Location, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(loc *location.Location) any {
			return dto.FromLocation(loc)
		},
	}

	return NewCatalogHandler(base, config)
}
