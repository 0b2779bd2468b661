package persistence

import (
	"context"

	appfulfillment "github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/trade"
	"gorm.io/gorm"
)

// FulfillmentTransactionScope implements the fulfillment TransactionScope using
// GORM transactions. Sweeps call it once per order or note.
type FulfillmentTransactionScope struct {
	db *gorm.DB
}

// NewFulfillmentTransactionScope creates a new FulfillmentTransactionScope.
func NewFulfillmentTransactionScope(db *gorm.DB) *FulfillmentTransactionScope {
	return &FulfillmentTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
func (s *FulfillmentTransactionScope) Execute(ctx context.Context, fn func(repos appfulfillment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&fulfillmentTransactionalRepositories{tx: tx})
	})
}

type fulfillmentTransactionalRepositories struct {
	tx *gorm.DB
}

// DeliveryNoteRepo returns the delivery note repository scoped to the current transaction.
func (r *fulfillmentTransactionalRepositories) DeliveryNoteRepo() trade.DeliveryNoteRepository {
	return NewGormDeliveryNoteRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *fulfillmentTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

var _ appfulfillment.TransactionScope = (*FulfillmentTransactionScope)(nil)
var _ appfulfillment.TransactionalRepositories = (*fulfillmentTransactionalRepositories)(nil)
