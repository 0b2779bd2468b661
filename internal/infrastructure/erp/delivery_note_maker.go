package erp

import (
	"context"
	"fmt"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// DeliveryNoteMaker maps a sales order onto an unsaved delivery note. Every
// order line is carried over with its undelivered share of the quantity.
type DeliveryNoteMaker struct {
	orders trade.SalesOrderRepository
}

// NewDeliveryNoteMaker creates a DeliveryNoteMaker
func NewDeliveryNoteMaker(orders trade.SalesOrderRepository) *DeliveryNoteMaker {
	return &DeliveryNoteMaker{orders: orders}
}

// MakeDeliveryNote derives the draft note. The name is left empty; it is
// reserved from the naming series when the note is inserted.
func (m *DeliveryNoteMaker) MakeDeliveryNote(ctx context.Context, salesOrder string) (*trade.DeliveryNote, error) {
	order, err := m.orders.FindByName(ctx, salesOrder)
	if err != nil {
		return nil, err
	}
	if len(order.Items) == 0 {
		return nil, shared.NewDomainError(shared.CodePreconditionFailed,
			fmt.Sprintf("Sales order %s has no items to deliver", order.Name))
	}

	remaining := decimal.NewFromInt(1)
	if order.PerDelivered.IsPositive() {
		remaining = trade.FullyDelivered.Sub(order.PerDelivered).Div(trade.FullyDelivered)
	}

	note := &trade.DeliveryNote{
		DocStatus:  shared.DocStatusDraft,
		Customer:   order.Customer,
		Company:    order.Company,
		WebOrderID: order.WebOrderID,
		Items:      make([]trade.DeliveryNoteItem, 0, len(order.Items)),
		Samples:    append([]string(nil), order.Samples...),
	}
	for _, item := range order.Items {
		note.Items = append(note.Items, trade.DeliveryNoteItem{
			ItemCode:          item.ItemCode,
			ItemName:          item.ItemName,
			Qty:               item.Qty.Mul(remaining).Round(3),
			AgainstSalesOrder: order.Name,
		})
	}
	return note, nil
}
