package models

import (
	"time"

	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder entity.
type SalesOrderModel struct {
	DocumentModel
	DocStatus       int                    `gorm:"column:docstatus;not null;default:0;index"`
	Status          trade.SalesOrderStatus `gorm:"type:varchar(40);not null;default:'Draft'"`
	ProductType     string                 `gorm:"type:varchar(140);not null;default:'';index"`
	PerDelivered    decimal.Decimal        `gorm:"type:decimal(9,4);not null;default:0"`
	WebOrderID      string                 `gorm:"type:varchar(140);not null;default:'';index"`
	Customer        string                 `gorm:"type:varchar(140);not null;default:''"`
	Company         string                 `gorm:"type:varchar(140);not null;default:''"`
	CustomerAddress string                 `gorm:"type:varchar(140);not null;default:''"`
	ShippingAddress string                 `gorm:"type:varchar(140);not null;default:''"`
	ContactPerson   string                 `gorm:"type:varchar(140);not null;default:''"`
	TransactionDate time.Time              `gorm:"type:date;not null"`
	Items           []SalesOrderItemModel  `gorm:"foreignKey:SalesOrder;references:Name"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder entity.
// Samples are loaded separately from sample links.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseEntity:      m.DocumentModel.ToDomain(),
		DocStatus:       shared.DocStatus(m.DocStatus),
		Status:          m.Status,
		ProductType:     m.ProductType,
		PerDelivered:    m.PerDelivered,
		WebOrderID:      m.WebOrderID,
		Customer:        m.Customer,
		Company:         m.Company,
		CustomerAddress: m.CustomerAddress,
		ShippingAddress: m.ShippingAddress,
		ContactPerson:   m.ContactPerson,
		TransactionDate: m.TransactionDate,
		Items:           make([]trade.SalesOrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain SalesOrder entity.
func (m *SalesOrderModel) FromDomain(o *trade.SalesOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.DocStatus = int(o.DocStatus)
	m.Status = o.Status
	m.ProductType = o.ProductType
	m.PerDelivered = o.PerDelivered
	m.WebOrderID = o.WebOrderID
	m.Customer = o.Customer
	m.Company = o.Company
	m.CustomerAddress = o.CustomerAddress
	m.ShippingAddress = o.ShippingAddress
	m.ContactPerson = o.ContactPerson
	m.TransactionDate = o.TransactionDate
	m.Items = make([]SalesOrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = SalesOrderItemModel{
			SalesOrder: o.Name,
			Idx:        i + 1,
			ItemCode:   item.ItemCode,
			ItemName:   item.ItemName,
			Qty:        item.Qty,
			Rate:       item.Rate,
		}
	}
}

// SalesOrderModelFromDomain creates a new persistence model from a domain SalesOrder entity.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{}
	m.FromDomain(o)
	return m
}

// SalesOrderItemModel is the persistence model for sales order lines.
type SalesOrderItemModel struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	SalesOrder string          `gorm:"type:varchar(140);not null;index"`
	Idx        int             `gorm:"not null;default:0"`
	ItemCode   string          `gorm:"type:varchar(140);not null"`
	ItemName   string          `gorm:"type:varchar(200);not null;default:''"`
	Qty        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Rate       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SalesOrderItemModel) TableName() string {
	return "sales_order_items"
}

// ToDomain converts the persistence model to a domain SalesOrderItem.
func (m *SalesOrderItemModel) ToDomain() trade.SalesOrderItem {
	return trade.SalesOrderItem{ItemCode: m.ItemCode, ItemName: m.ItemName, Qty: m.Qty, Rate: m.Rate}
}

// DeliveryNoteModel is the persistence model for the DeliveryNote entity.
type DeliveryNoteModel struct {
	DocumentModel
	DocStatus       int                     `gorm:"column:docstatus;not null;default:0;index"`
	Customer        string                  `gorm:"type:varchar(140);not null;default:''"`
	Company         string                  `gorm:"type:varchar(140);not null;default:''"`
	NamingSeries    string                  `gorm:"type:varchar(140);not null;default:''"`
	WebOrderID      string                  `gorm:"type:varchar(140);not null;default:'';index"`
	PostingDate     time.Time               `gorm:"type:date"`
	IgnoreMandatory bool                    `gorm:"not null;default:false"`
	Items           []DeliveryNoteItemModel `gorm:"foreignKey:DeliveryNote;references:Name"`
}

// TableName returns the table name for GORM
func (DeliveryNoteModel) TableName() string {
	return "delivery_notes"
}

// ToDomain converts the persistence model to a domain DeliveryNote entity.
// Samples are loaded separately from sample links.
func (m *DeliveryNoteModel) ToDomain() *trade.DeliveryNote {
	note := &trade.DeliveryNote{
		BaseEntity:      m.DocumentModel.ToDomain(),
		DocStatus:       shared.DocStatus(m.DocStatus),
		Customer:        m.Customer,
		Company:         m.Company,
		NamingSeries:    m.NamingSeries,
		WebOrderID:      m.WebOrderID,
		PostingDate:     m.PostingDate,
		IgnoreMandatory: m.IgnoreMandatory,
		Items:           make([]trade.DeliveryNoteItem, len(m.Items)),
	}
	for i, item := range m.Items {
		note.Items[i] = item.ToDomain()
	}
	return note
}

// FromDomain populates the persistence model from a domain DeliveryNote entity.
func (m *DeliveryNoteModel) FromDomain(n *trade.DeliveryNote) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.DocStatus = int(n.DocStatus)
	m.Customer = n.Customer
	m.Company = n.Company
	m.NamingSeries = n.NamingSeries
	m.WebOrderID = n.WebOrderID
	m.PostingDate = n.PostingDate
	m.IgnoreMandatory = n.IgnoreMandatory
	m.Items = make([]DeliveryNoteItemModel, len(n.Items))
	for i, item := range n.Items {
		m.Items[i] = DeliveryNoteItemModel{
			DeliveryNote:      n.Name,
			Idx:               i + 1,
			ItemCode:          item.ItemCode,
			ItemName:          item.ItemName,
			Qty:               item.Qty,
			AgainstSalesOrder: item.AgainstSalesOrder,
		}
	}
}

// DeliveryNoteModelFromDomain creates a new persistence model from a domain DeliveryNote entity.
func DeliveryNoteModelFromDomain(n *trade.DeliveryNote) *DeliveryNoteModel {
	m := &DeliveryNoteModel{}
	m.FromDomain(n)
	return m
}

// DeliveryNoteItemModel is the persistence model for delivery note lines.
type DeliveryNoteItemModel struct {
	ID                uint            `gorm:"primaryKey;autoIncrement"`
	DeliveryNote      string          `gorm:"type:varchar(140);not null;index"`
	Idx               int             `gorm:"not null;default:0"`
	ItemCode          string          `gorm:"type:varchar(140);not null"`
	ItemName          string          `gorm:"type:varchar(200);not null;default:''"`
	Qty               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AgainstSalesOrder string          `gorm:"type:varchar(140);not null;default:'';index"`
}

// TableName returns the table name for GORM
func (DeliveryNoteItemModel) TableName() string {
	return "delivery_note_items"
}

// ToDomain converts the persistence model to a domain DeliveryNoteItem.
func (m *DeliveryNoteItemModel) ToDomain() trade.DeliveryNoteItem {
	return trade.DeliveryNoteItem{
		ItemCode:          m.ItemCode,
		ItemName:          m.ItemName,
		Qty:               m.Qty,
		AgainstSalesOrder: m.AgainstSalesOrder,
	}
}

// NamingSeriesModel holds the last number issued per expanded series prefix.
type NamingSeriesModel struct {
	Name    string `gorm:"type:varchar(140);primaryKey"`
	Current int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (NamingSeriesModel) TableName() string {
	return "naming_series"
}
