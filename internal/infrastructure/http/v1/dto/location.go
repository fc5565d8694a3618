package dto

import (
	"stockflow/internal/domain/catalogs/location"
)

// --- Request DTOs ---

// CreateLocationRequest is the request body for creating a location.
type CreateLocationRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Kind        string  `json:"kind" binding:"required"`
	WarehouseID *string `json:"warehouseId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateLocationRequest) ToEntity() (*location.Location, error) {
	loc := location.NewLocation(r.Code, r.Name, location.Kind(r.Kind))
	whID, err := parseOptionalID(r.WarehouseID)
	if err != nil {
		return nil, err
	}
	loc.WarehouseID = whID
	return loc, nil
}

// UpdateLocationRequest is the request body for updating a location.
type UpdateLocationRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Kind        string  `json:"kind" binding:"required"`
	WarehouseID *string `json:"warehouseId"`
	Version     int     `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateLocationRequest) ApplyTo(loc *location.Location) error {
	whID, err := parseOptionalID(r.WarehouseID)
	if err != nil {
		return err
	}
	loc.Code = r.Code
	loc.Name = r.Name
	loc.Kind = location.Kind(r.Kind)
	loc.WarehouseID = whID
	loc.Version = r.Version
	return nil
}

// --- Response DTOs ---

// LocationResponse is the response body for a location.
type LocationResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	WarehouseID  *string `json:"warehouseId,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromLocation creates response DTO from domain entity.
func FromLocation(loc *location.Location) *LocationResponse {
	resp := &LocationResponse{
		ID:           loc.ID.String(),
		Code:         loc.Code,
		Name:         loc.Name,
		Kind:         string(loc.Kind),
		DeletionMark: loc.DeletionMark,
		Version:      loc.Version,
	}
	if loc.WarehouseID != nil {
		s := loc.WarehouseID.String()
		resp.WarehouseID = &s
	}
	return resp
}
