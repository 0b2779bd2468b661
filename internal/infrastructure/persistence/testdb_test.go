package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/erp/labtrack/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory sqlite database with every table
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func seedCustomer(t *testing.T, db *gorm.DB, name string, disabled bool) {
	t.Helper()
	c := &partner.Customer{BaseEntity: shared.NewBaseEntity(name), CustomerName: name, Disabled: disabled}
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
}

func seedLabel(t *testing.T, db *gorm.DB, name, barcode, itemCode string, status labeling.LabelStatus) *labeling.SequencingLabel {
	t.Helper()
	label, err := labeling.NewSequencingLabel(name, barcode, itemCode)
	require.NoError(t, err)
	label.Status = status
	require.NoError(t, NewGormLabelRepository(db).Save(context.Background(), label))
	return label
}

func seedSample(t *testing.T, db *gorm.DB, name, webID, label string, created time.Time) {
	t.Helper()
	s := &labeling.Sample{BaseEntity: shared.NewBaseEntity(name), WebID: webID, SequencingLabel: label}
	s.CreatedAt = created
	require.NoError(t, NewGormSampleRepository(db).Save(context.Background(), s))
}

type orderOption func(*trade.SalesOrder)

func withWebOrder(id string) orderOption {
	return func(o *trade.SalesOrder) { o.WebOrderID = id }
}

func withDocStatus(s shared.DocStatus) orderOption {
	return func(o *trade.SalesOrder) { o.DocStatus = s }
}

func withStatus(s trade.SalesOrderStatus) orderOption {
	return func(o *trade.SalesOrder) { o.Status = s }
}

func withPerDelivered(p int64) orderOption {
	return func(o *trade.SalesOrder) { o.PerDelivered = decimal.NewFromInt(p) }
}

func withProductType(p string) orderOption {
	return func(o *trade.SalesOrder) { o.ProductType = p }
}

func withSamples(samples ...string) orderOption {
	return func(o *trade.SalesOrder) { o.Samples = samples }
}

func withTransactionDate(d time.Time) orderOption {
	return func(o *trade.SalesOrder) { o.TransactionDate = d }
}

func seedOrder(t *testing.T, db *gorm.DB, name string, opts ...orderOption) *trade.SalesOrder {
	t.Helper()
	order := &trade.SalesOrder{
		BaseEntity:      shared.NewBaseEntity(name),
		DocStatus:       shared.DocStatusSubmitted,
		Status:          trade.SalesOrderStatusToDeliverAndBill,
		ProductType:     "Sequencing",
		PerDelivered:    decimal.Zero,
		Customer:        "Acme",
		Company:         "BAL",
		TransactionDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Items: []trade.SalesOrderItem{
			{ItemCode: "3000", ItemName: "Sanger sequencing", Qty: decimal.NewFromInt(1), Rate: decimal.NewFromInt(10)},
		},
	}
	for _, opt := range opts {
		opt(order)
	}
	require.NoError(t, NewGormSalesOrderRepository(db).Save(context.Background(), order))
	return order
}

func seedNote(t *testing.T, db *gorm.DB, name string, created time.Time, status shared.DocStatus, webOrderID string, orders ...string) *trade.DeliveryNote {
	t.Helper()
	note := &trade.DeliveryNote{
		BaseEntity: shared.NewBaseEntity(name),
		DocStatus:  status,
		Customer:   "Acme",
		Company:    "BAL",
		WebOrderID: webOrderID,
	}
	note.CreatedAt = created
	for _, o := range orders {
		note.Items = append(note.Items, trade.DeliveryNoteItem{ItemCode: "6030", Qty: decimal.NewFromInt(1), AgainstSalesOrder: o})
	}
	require.NoError(t, NewGormDeliveryNoteRepository(db).Create(context.Background(), note))
	return note
}
