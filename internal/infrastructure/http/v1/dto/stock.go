package dto

import (
	"time"

	"stockflow/internal/core/types"
	"stockflow/internal/domain/registers/stock"
)

// --- Response DTOs ---

// BalanceResponse is one on-hand balance row.
type BalanceResponse struct {
	ProductID    string         `json:"productId"`
	LocationID   string         `json:"locationId"`
	SKU          string         `json:"sku"`
	ProductName  string         `json:"productName"`
	LocationCode string         `json:"locationCode"`
	Quantity     types.Quantity `json:"quantity"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// FromBalance creates response DTO from register row.
func FromBalance(b stock.Balance) BalanceResponse {
	return BalanceResponse{
		ProductID:    b.ProductID.String(),
		LocationID:   b.LocationID.String(),
		SKU:          b.SKU,
		ProductName:  b.ProductName,
		LocationCode: b.LocationCode,
		Quantity:     b.Quantity,
		UpdatedAt:    b.UpdatedAt,
	}
}

// FromBalances maps a slice of register rows.
func FromBalances(balances []stock.Balance) []BalanceResponse {
	out := make([]BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, FromBalance(b))
	}
	return out
}

// LedgerEntryResponse is one valuation layer row.
type LedgerEntryResponse struct {
	ID            string         `json:"id"`
	OperationID   string         `json:"operationId"`
	OperationType string         `json:"operationType"`
	Reference     string         `json:"reference"`
	Direction     string         `json:"direction"`
	ProductID     string         `json:"productId"`
	SKU           string         `json:"sku"`
	LocationID    string         `json:"locationId"`
	LocationCode  string         `json:"locationCode"`
	Debit         types.Quantity `json:"debit"`
	Credit        types.Quantity `json:"credit"`
	Balance       types.Quantity `json:"balance"`
	UnitCost      types.Money    `json:"unitCost"`
	Actor         string         `json:"actor,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// FromLedgerEntry creates response DTO from ledger row.
func FromLedgerEntry(e stock.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID.String(),
		OperationID:   e.OperationID.String(),
		OperationType: string(e.OperationType),
		Reference:     e.Reference,
		Direction:     string(e.Direction()),
		ProductID:     e.ProductID.String(),
		SKU:           e.SKU,
		LocationID:    e.LocationID.String(),
		LocationCode:  e.LocationCode,
		Debit:         e.Debit,
		Credit:        e.Credit,
		Balance:       e.Balance,
		UnitCost:      e.UnitCost,
		Actor:         e.Actor,
		CreatedAt:     e.CreatedAt,
	}
}

// TurnoverResponse aggregates ledger movement over a period.
type TurnoverResponse struct {
	ProductID      *string        `json:"productId,omitempty"`
	LocationID     *string        `json:"locationId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Debit          types.Quantity `json:"debit"`
	Credit         types.Quantity `json:"credit"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}

// FromTurnover creates response DTO from register aggregation.
func FromTurnover(t stock.Turnover) TurnoverResponse {
	resp := TurnoverResponse{
		OpeningBalance: t.OpeningBalance,
		Debit:          t.Debit,
		Credit:         t.Credit,
		ClosingBalance: t.ClosingBalance,
	}
	if t.ProductID != nil {
		s := t.ProductID.String()
		resp.ProductID = &s
	}
	if t.LocationID != nil {
		s := t.LocationID.String()
		resp.LocationID = &s
	}
	return resp
}

// AvailabilityResponse is the total on-hand quantity of one product.
type AvailabilityResponse struct {
	ProductID string         `json:"productId"`
	OnHand    types.Quantity `json:"onHand"`
}
