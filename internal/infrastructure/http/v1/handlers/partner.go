package handlers

import (
	"stockflow/internal/domain/catalogs/partner"
	"stockflow/internal/infrastructure/http/v1/dto"
)

// PartnerHTTPHandler is an alias to keep wiring readable.
type PartnerHTTPHandler = CatalogHandler[
	*partner.Partner,
	dto.CreatePartnerRequest,
	dto.UpdatePartnerRequest,
]

// NewPartnerHandler creates a partner handler.
func NewPartnerHandler(base *BaseHandler, service *partner.Service) *PartnerHTTPHandler {
	config := CatalogHandlerConfig[*partner.Partner, dto.CreatePartnerRequest, dto.UpdatePartnerRequest]{
		Service:    service.CatalogService,
		EntityName: "partner",
		MapCreateDTO: func(req dto.CreatePartnerRequest) (*partner.Partner, error) {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePartnerRequest, existing *partner.Partner) (*partner.Partner, error) {
			if err := req.ApplyTo(existing); err != nil {
				return nil, err
			}
			return existing, nil
		},
		MapToDTO: func(p *partner.Partner) any {
			return dto.FromPartner(p)
		},
	}

	return NewCatalogHandler(base, config)
}
