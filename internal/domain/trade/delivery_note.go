package trade

import (
	"fmt"
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DeliveryNoteItem is a delivered line, optionally pointing back to its sales order
type DeliveryNoteItem struct {
	ItemCode          string
	ItemName          string
	Qty               decimal.Decimal
	AgainstSalesOrder string
}

// DeliveryNote is a shippable instantiation of (part of) a sales order.
// Notes are inserted as drafts and submitted later after a cooldown.
type DeliveryNote struct {
	shared.BaseEntity
	DocStatus       shared.DocStatus
	Customer        string
	Company         string
	NamingSeries    string
	WebOrderID      string
	PostingDate     time.Time
	IgnoreMandatory bool
	Items           []DeliveryNoteItem
	Samples         []string
}

// IsDraft reports whether the note is still docstatus 0
func (n *DeliveryNote) IsDraft() bool {
	return n.DocStatus == shared.DocStatusDraft
}

// OriginatingSalesOrders returns the distinct sales orders referenced by the
// items, in first-seen order
func (n *DeliveryNote) OriginatingSalesOrders() []string {
	seen := make(map[string]struct{})
	orders := make([]string, 0, 1)
	for _, item := range n.Items {
		if item.AgainstSalesOrder == "" {
			continue
		}
		if _, ok := seen[item.AgainstSalesOrder]; ok {
			continue
		}
		seen[item.AgainstSalesOrder] = struct{}{}
		orders = append(orders, item.AgainstSalesOrder)
	}
	return orders
}

// ItemCodes returns the item code of every line, duplicates included
func (n *DeliveryNote) ItemCodes() []string {
	codes := make([]string, 0, len(n.Items))
	for _, item := range n.Items {
		codes = append(codes, item.ItemCode)
	}
	return codes
}

// Age returns how long ago the note was created
func (n *DeliveryNote) Age(now time.Time) time.Duration {
	return now.Sub(n.CreatedAt)
}

// Submit finalizes a draft note
func (n *DeliveryNote) Submit() error {
	if !n.IsDraft() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Delivery note %s is %s, only drafts can be submitted", n.Name, n.DocStatus))
	}
	n.DocStatus = shared.DocStatusSubmitted
	n.Touch()
	return nil
}
