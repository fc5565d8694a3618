package dto

import (
	"github.com/shopspring/decimal"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
// InitialQuantity, when positive, is booked onto InitialLocationID (or
// the product's default location) as an auto-completed adjustment.
type CreateProductRequest struct {
	Code              string          `json:"code"`
	Name              string          `json:"name" binding:"required"`
	SKU               string          `json:"sku" binding:"required"`
	Category          *string         `json:"category"`
	UomID             string          `json:"uomId" binding:"required"`
	MinStock          types.Quantity  `json:"minStock"`
	MaxStock          types.Quantity  `json:"maxStock"`
	Price             decimal.Decimal `json:"price"`
	DefaultLocationID *string         `json:"defaultLocationId"`
	QCStatus          string          `json:"qcStatus"`
	Barcode           *string         `json:"barcode"`

	InitialQuantity   types.Quantity `json:"initialQuantity"`
	InitialLocationID *string        `json:"initialLocationId"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() (*product.Product, error) {
	uomID, err := id.Parse(r.UomID)
	if err != nil {
		return nil, err
	}

	p := product.NewProduct(r.SKU, r.Name, uomID)
	if r.Code != "" {
		p.Code = r.Code
	}
	p.Category = r.Category
	p.MinStock = r.MinStock
	p.MaxStock = r.MaxStock
	p.Price = r.Price
	p.Barcode = r.Barcode
	if r.QCStatus != "" {
		p.QCStatus = product.QCStatus(r.QCStatus)
	}

	defaultLoc, err := parseOptionalID(r.DefaultLocationID)
	if err != nil {
		return nil, err
	}
	p.DefaultLocationID = defaultLoc

	return p, nil
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code              string          `json:"code"`
	Name              string          `json:"name" binding:"required"`
	SKU               string          `json:"sku" binding:"required"`
	Category          *string         `json:"category"`
	UomID             string          `json:"uomId" binding:"required"`
	MinStock          types.Quantity  `json:"minStock"`
	MaxStock          types.Quantity  `json:"maxStock"`
	Price             decimal.Decimal `json:"price"`
	DefaultLocationID *string         `json:"defaultLocationId"`
	QCStatus          string          `json:"qcStatus"`
	Barcode           *string         `json:"barcode"`
	Version           int             `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) error {
	uomID, err := id.Parse(r.UomID)
	if err != nil {
		return err
	}
	defaultLoc, err := parseOptionalID(r.DefaultLocationID)
	if err != nil {
		return err
	}

	p.Code = r.Code
	p.Name = r.Name
	p.SKU = r.SKU
	p.Category = r.Category
	p.UomID = uomID
	p.MinStock = r.MinStock
	p.MaxStock = r.MaxStock
	p.Price = r.Price
	p.DefaultLocationID = defaultLoc
	p.QCStatus = product.QCStatus(r.QCStatus)
	p.Barcode = r.Barcode
	p.Version = r.Version
	return nil
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Category          *string         `json:"category,omitempty"`
	UomID             string          `json:"uomId"`
	MinStock          types.Quantity  `json:"minStock"`
	MaxStock          types.Quantity  `json:"maxStock"`
	Price             decimal.Decimal `json:"price"`
	DefaultLocationID *string         `json:"defaultLocationId,omitempty"`
	QCStatus          string          `json:"qcStatus"`
	Barcode           *string         `json:"barcode,omitempty"`
	DeletionMark      bool            `json:"deletionMark"`
	Version           int             `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	resp := &ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		SKU:          p.SKU,
		Category:     p.Category,
		UomID:        p.UomID.String(),
		MinStock:     p.MinStock,
		MaxStock:     p.MaxStock,
		Price:        p.Price,
		QCStatus:     string(p.QCStatus),
		Barcode:      p.Barcode,
		DeletionMark: p.DeletionMark,
		Version:      p.Version,
	}
	if p.DefaultLocationID != nil {
		s := p.DefaultLocationID.String()
		resp.DefaultLocationID = &s
	}
	return resp
}

// ProductWithStockResponse extends ProductResponse with on-hand data.
type ProductWithStockResponse struct {
	ProductResponse
	OnHand              types.Quantity `json:"onHand"`
	DefaultLocationCode *string        `json:"defaultLocationCode,omitempty"`
}

// FromProductWithStock creates response DTO from the list projection.
func FromProductWithStock(p *product.WithStock) *ProductWithStockResponse {
	return &ProductWithStockResponse{
		ProductResponse:     *FromProduct(&p.Product),
		OnHand:              p.OnHand,
		DefaultLocationCode: p.DefaultLocationCode,
	}
}
