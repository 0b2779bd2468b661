package trade

import (
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus is the textual workflow status the ERP maintains next to docstatus
type SalesOrderStatus string

const (
	SalesOrderStatusDraft            SalesOrderStatus = "Draft"
	SalesOrderStatusToDeliverAndBill SalesOrderStatus = "To Deliver and Bill"
	SalesOrderStatusToDeliver        SalesOrderStatus = "To Deliver"
	SalesOrderStatusToBill           SalesOrderStatus = "To Bill"
	SalesOrderStatusCompleted        SalesOrderStatus = "Completed"
	SalesOrderStatusClosed           SalesOrderStatus = "Closed"
	SalesOrderStatusCancelled        SalesOrderStatus = "Cancelled"
)

// IsFinished reports whether the order is closed or completed
func (s SalesOrderStatus) IsFinished() bool {
	return s == SalesOrderStatusClosed || s == SalesOrderStatusCompleted
}

// String returns the string representation of SalesOrderStatus
func (s SalesOrderStatus) String() string {
	return string(s)
}

// FullyDelivered is the per_delivered value of a completely delivered order
var FullyDelivered = decimal.NewFromInt(100)

// SalesOrderItem represents a line item in a sales order
type SalesOrderItem struct {
	ItemCode string
	ItemName string
	Qty      decimal.Decimal
	Rate     decimal.Decimal
}

// SalesOrder is the subset of the ERP sales order the fulfillment sweep reads.
// Samples lists the sample names attached through sample links.
type SalesOrder struct {
	shared.BaseEntity
	DocStatus       shared.DocStatus
	Status          SalesOrderStatus
	ProductType     string
	PerDelivered    decimal.Decimal
	WebOrderID      string
	Customer        string
	Company         string
	CustomerAddress string
	ShippingAddress string
	ContactPerson   string
	TransactionDate time.Time
	Items           []SalesOrderItem
	Samples         []string
}

// IsFullyDelivered reports whether per_delivered reached 100
func (o *SalesOrder) IsFullyDelivered() bool {
	return o.PerDelivered.GreaterThanOrEqual(FullyDelivered)
}

// IsOpenForDelivery reports whether the order is submitted, not closed or
// completed and not yet fully delivered.
func (o *SalesOrder) IsOpenForDelivery() bool {
	return o.DocStatus == shared.DocStatusSubmitted &&
		!o.Status.IsFinished() &&
		!o.IsFullyDelivered()
}

// MatchesProductType reports whether the order belongs to the product family
func (o *SalesOrder) MatchesProductType(productType string) bool {
	return o.ProductType == productType
}
