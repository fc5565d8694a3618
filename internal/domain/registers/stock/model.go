// Package stock provides the read side of the stock register: on-hand
// balances and the valuation ledger. All writes happen through the
// valuation engine; this package only queries.
package stock

import (
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/core/types"
	"stockflow/internal/domain/operations"
)

// Direction tags a ledger entry with the business meaning of the
// operation that produced it.
type Direction string

const (
	DirectionIn     Direction = "IN"
	DirectionOut    Direction = "OUT"
	DirectionMove   Direction = "MOVE"
	DirectionAdjust Direction = "ADJ"
)

// DirectionForType maps an operation type to its ledger direction.
func DirectionForType(t operations.Type) Direction {
	switch t {
	case operations.TypeReceipt:
		return DirectionIn
	case operations.TypeDelivery:
		return DirectionOut
	case operations.TypeInternal:
		return DirectionMove
	default:
		return DirectionAdjust
	}
}

// Balance is one on-hand quantity with joined display fields.
type Balance struct {
	ProductID    id.ID          `db:"product_id" json:"productId"`
	LocationID   id.ID          `db:"location_id" json:"locationId"`
	SKU          string         `db:"sku" json:"sku"`
	ProductName  string         `db:"product_name" json:"productName"`
	LocationCode string         `db:"location_code" json:"locationCode"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// LedgerEntry is one valuation layer joined with its operation and
// catalog display fields, newest first in listings.
type LedgerEntry struct {
	ID            id.ID           `db:"id" json:"id"`
	OperationID   id.ID           `db:"operation_id" json:"operationId"`
	OperationType operations.Type `db:"operation_type" json:"operationType"`
	Reference     string          `db:"reference" json:"reference"`
	ProductID     id.ID           `db:"product_id" json:"productId"`
	SKU           string          `db:"sku" json:"sku"`
	LocationID    id.ID           `db:"location_id" json:"locationId"`
	LocationCode  string          `db:"location_code" json:"locationCode"`
	Debit         types.Quantity  `db:"debit" json:"debit"`
	Credit        types.Quantity  `db:"credit" json:"credit"`
	Balance       types.Quantity  `db:"balance" json:"balance"`
	UnitCost      types.Money     `db:"unit_cost" json:"unitCost"`
	Actor         string          `db:"actor" json:"actor"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}

// Direction returns the entry's direction tag.
func (e LedgerEntry) Direction() Direction {
	return DirectionForType(e.OperationType)
}

// Turnover aggregates debits and credits over a period.
type Turnover struct {
	ProductID      *id.ID         `json:"productId,omitempty"`
	LocationID     *id.ID         `json:"locationId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Debit          types.Quantity `json:"debit"`
	Credit         types.Quantity `json:"credit"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
