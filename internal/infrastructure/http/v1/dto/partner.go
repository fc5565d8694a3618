package dto

import (
	"stockflow/internal/domain/catalogs/partner"
)

// CreatePartnerRequest is the request body for creating a partner.
type CreatePartnerRequest struct {
	Code  string  `json:"code" binding:"required"`
	Name  string  `json:"name" binding:"required"`
	Kind  string  `json:"kind" binding:"required"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePartnerRequest) ToEntity() (*partner.Partner, error) {
	p := partner.NewPartner(r.Code, r.Name, partner.Kind(r.Kind))
	p.Email = r.Email
	p.Phone = r.Phone
	return p, nil
}

// UpdatePartnerRequest is the request body for updating a partner.
type UpdatePartnerRequest struct {
	Code    string  `json:"code" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Kind    string  `json:"kind" binding:"required"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Version int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePartnerRequest) ApplyTo(p *partner.Partner) error {
	p.Code = r.Code
	p.Name = r.Name
	p.Kind = partner.Kind(r.Kind)
	p.Email = r.Email
	p.Phone = r.Phone
	p.Version = r.Version
	return nil
}

// PartnerResponse is the response body for a partner.
type PartnerResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromPartner creates response DTO from domain entity.
func FromPartner(p *partner.Partner) *PartnerResponse {
	return &PartnerResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Kind:         string(p.Kind),
		Email:        p.Email,
		Phone:        p.Phone,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
}
