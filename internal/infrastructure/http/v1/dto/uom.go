package dto

import (
	"stockflow/internal/domain/catalogs/uom"
)

// CreateUoMRequest is the request body for creating a unit of measure.
type CreateUoMRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateUoMRequest) ToEntity() (*uom.UoM, error) {
	return uom.NewUoM(r.Code, r.Name), nil
}

// UpdateUoMRequest is the request body for updating a unit of measure.
type UpdateUoMRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Version int    `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateUoMRequest) ApplyTo(u *uom.UoM) error {
	u.Code = r.Code
	u.Name = r.Name
	u.Version = r.Version
	return nil
}

// UoMResponse is the response body for a unit of measure.
type UoMResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DeletionMark bool   `json:"deletionMark"`
	Version      int    `json:"version"`
}

// FromUoM creates response DTO from domain entity.
func FromUoM(u *uom.UoM) *UoMResponse {
	return &UoMResponse{
		ID:           u.ID.String(),
		Code:         u.Code,
		Name:         u.Name,
		DeletionMark: u.DeletionMark,
		Version:      u.Version,
	}
}
