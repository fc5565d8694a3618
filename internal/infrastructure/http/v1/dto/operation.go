package dto

import (
	"time"

	"stockflow/internal/core/types"
	"stockflow/internal/domain/operations"
)

// --- Request DTOs ---

// OperationItemRequest is one requested operation line.
type OperationItemRequest struct {
	ProductID string         `json:"productId" binding:"required"`
	Quantity  types.Quantity `json:"quantity"`
}

// CreateOperationRequest is the request body for creating an operation.
// Locations may be given as IDs or as codes. Reference is generated
// when omitted; status defaults to DRAFT.
type CreateOperationRequest struct {
	Type        string     `json:"type" binding:"required"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	Date        *time.Time `json:"date"`
	Contact     *string    `json:"contact"`
	Responsible *string    `json:"responsible"`
	Notes       string     `json:"notes"`
	ScheduledAt *time.Time `json:"scheduledAt"`

	SourceLocationID   *string `json:"sourceLocationId"`
	DestLocationID     *string `json:"destLocationId"`
	SourceLocationCode *string `json:"sourceLocationCode"`
	DestLocationCode   *string `json:"destLocationCode"`

	Items []OperationItemRequest `json:"items"`
}

// ToInput converts DTO to a service input.
func (r *CreateOperationRequest) ToInput() (operations.CreateInput, error) {
	sourceID, err := parseOptionalID(r.SourceLocationID)
	if err != nil {
		return operations.CreateInput{}, err
	}
	destID, err := parseOptionalID(r.DestLocationID)
	if err != nil {
		return operations.CreateInput{}, err
	}
	items, err := toItemInputs(r.Items)
	if err != nil {
		return operations.CreateInput{}, err
	}

	return operations.CreateInput{
		Type:               operations.Type(r.Type),
		Reference:          r.Reference,
		Status:             operations.Status(r.Status),
		Date:               r.Date,
		Contact:            r.Contact,
		Responsible:        r.Responsible,
		Notes:              r.Notes,
		ScheduledAt:        r.ScheduledAt,
		SourceLocationID:   sourceID,
		DestLocationID:     destID,
		SourceLocationCode: r.SourceLocationCode,
		DestLocationCode:   r.DestLocationCode,
		Items:              items,
	}, nil
}

// UpdateOperationRequest is the request body for updating an operation.
// Nil fields are left unchanged. ExpectedVersion, when set, must match
// the stored document version.
type UpdateOperationRequest struct {
	ExpectedVersion *int `json:"expectedVersion"`

	Date        *time.Time `json:"date"`
	Contact     *string    `json:"contact"`
	Responsible *string    `json:"responsible"`
	Notes       *string    `json:"notes"`
	ScheduledAt *time.Time `json:"scheduledAt"`

	SourceLocationID   *string `json:"sourceLocationId"`
	DestLocationID     *string `json:"destLocationId"`
	SourceLocationCode *string `json:"sourceLocationCode"`
	DestLocationCode   *string `json:"destLocationCode"`

	Items *[]OperationItemRequest `json:"items"`
}

// ToInput converts DTO to a service input.
func (r *UpdateOperationRequest) ToInput() (operations.UpdateInput, error) {
	sourceID, err := parseOptionalID(r.SourceLocationID)
	if err != nil {
		return operations.UpdateInput{}, err
	}
	destID, err := parseOptionalID(r.DestLocationID)
	if err != nil {
		return operations.UpdateInput{}, err
	}

	input := operations.UpdateInput{
		ExpectedVersion:    r.ExpectedVersion,
		Date:               r.Date,
		Contact:            r.Contact,
		Responsible:        r.Responsible,
		Notes:              r.Notes,
		ScheduledAt:        r.ScheduledAt,
		SourceLocationID:   sourceID,
		DestLocationID:     destID,
		SourceLocationCode: r.SourceLocationCode,
		DestLocationCode:   r.DestLocationCode,
	}

	if r.Items != nil {
		items, err := toItemInputs(*r.Items)
		if err != nil {
			return operations.UpdateInput{}, err
		}
		input.Items = &items
	}

	return input, nil
}

// TransitionStatusRequest is the request body for a status transition.
// Actor overrides the X-Actor header when set.
type TransitionStatusRequest struct {
	Status          string `json:"status" binding:"required"`
	Actor           string `json:"actor"`
	ExpectedVersion *int   `json:"expectedVersion"`
}

func toItemInputs(reqs []OperationItemRequest) ([]operations.ItemInput, error) {
	items := make([]operations.ItemInput, 0, len(reqs))
	for _, it := range reqs {
		productID, err := parseOptionalID(&it.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, operations.ItemInput{
			ProductID: *productID,
			Quantity:  it.Quantity,
		})
	}
	return items, nil
}

// --- Response DTOs ---

// OperationItemResponse is one operation line.
type OperationItemResponse struct {
	ID          string         `json:"id"`
	ProductID   string         `json:"productId"`
	ProductName string         `json:"productName,omitempty"`
	SKU         string         `json:"sku,omitempty"`
	Quantity    types.Quantity `json:"quantity"`
}

// OperationResponse is the response body for an operation.
type OperationResponse struct {
	ID           string     `json:"id"`
	Reference    string     `json:"reference"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	Date         time.Time  `json:"date"`
	Contact      *string    `json:"contact,omitempty"`
	Responsible  *string    `json:"responsible,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	DeletionMark bool       `json:"deletionMark"`
	Version      int        `json:"version"`

	SourceLocationID *string `json:"sourceLocationId,omitempty"`
	DestLocationID   *string `json:"destLocationId,omitempty"`

	Items []OperationItemResponse `json:"items"`

	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	CreatedBy    string    `json:"createdBy,omitempty"`
	LastEditedBy string    `json:"lastEditedBy,omitempty"`
}

// FromOperation creates response DTO from domain entity.
func FromOperation(op *operations.Operation) *OperationResponse {
	resp := &OperationResponse{
		ID:           op.ID.String(),
		Reference:    op.Reference,
		Type:         string(op.Type),
		Status:       string(op.Status),
		Date:         op.Date,
		Contact:      op.Contact,
		Responsible:  op.Responsible,
		Notes:        op.Notes,
		ScheduledAt:  op.ScheduledAt,
		DeletionMark: op.DeletionMark,
		Version:      op.Version,
		Items:        make([]OperationItemResponse, 0, len(op.Items)),
		CreatedAt:    op.CreatedAt,
		UpdatedAt:    op.UpdatedAt,
		CreatedBy:    op.CreatedBy,
		LastEditedBy: op.LastEditedBy,
	}

	if op.SourceLocationID != nil {
		s := op.SourceLocationID.String()
		resp.SourceLocationID = &s
	}
	if op.DestLocationID != nil {
		s := op.DestLocationID.String()
		resp.DestLocationID = &s
	}

	for _, item := range op.Items {
		resp.Items = append(resp.Items, OperationItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			SKU:         item.SKU,
			Quantity:    item.Quantity,
		})
	}

	return resp
}
