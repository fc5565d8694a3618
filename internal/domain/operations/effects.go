package operations

import (
	"fmt"

	"stockflow/internal/core/apperror"
	"stockflow/internal/domain/valuation"
)

// Effects translates the operation's items into quant mutations for
// the valuation engine. The switch is exhaustive over Type; an unknown
// type is rejected rather than silently ignored.
//
// Per type:
//   - RECEIPT: debit the destination by each item quantity.
//   - DELIVERY: credit the source by each item quantity.
//   - INTERNAL: move source -> destination; only the destination side
//     is recorded in the ledger, so a transfer produces one row per item.
//   - ADJUSTMENT: set the target balance to the counted quantity and
//     record the signed difference.
func (o *Operation) Effects() ([]valuation.Effect, error) {
	effects := make([]valuation.Effect, 0, len(o.Items))

	for _, item := range o.Items {
		switch o.Type {
		case TypeReceipt:
			effects = append(effects, valuation.Effect{
				ProductID:   item.ProductID,
				LocationID:  *o.DestLocationID,
				Value:       item.Quantity,
				RecordLayer: true,
			})

		case TypeDelivery:
			effects = append(effects, valuation.Effect{
				ProductID:   item.ProductID,
				LocationID:  *o.SourceLocationID,
				Value:       item.Quantity.Neg(),
				RecordLayer: true,
			})

		case TypeInternal:
			effects = append(effects,
				valuation.Effect{
					ProductID:  item.ProductID,
					LocationID: *o.SourceLocationID,
					Value:      item.Quantity.Neg(),
				},
				valuation.Effect{
					ProductID:   item.ProductID,
					LocationID:  *o.DestLocationID,
					Value:       item.Quantity,
					RecordLayer: true,
				},
			)

		case TypeAdjustment:
			effects = append(effects, valuation.Effect{
				ProductID:   item.ProductID,
				LocationID:  *o.TargetLocation(),
				Absolute:    true,
				Value:       item.Quantity,
				RecordLayer: true,
			})

		default:
			return nil, apperror.NewInternal(fmt.Errorf("unhandled operation type %q", o.Type))
		}
	}

	return effects, nil
}
