package persistence

import (
	"context"

	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
	"gorm.io/gorm"
)

// LabelingTransactionScope implements the labeling TransactionScope using GORM transactions.
type LabelingTransactionScope struct {
	db *gorm.DB
}

// NewLabelingTransactionScope creates a new LabelingTransactionScope.
func NewLabelingTransactionScope(db *gorm.DB) *LabelingTransactionScope {
	return &LabelingTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *LabelingTransactionScope) Execute(ctx context.Context, fn func(repos applabeling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&labelingTransactionalRepositories{tx: tx})
	})
}

type labelingTransactionalRepositories struct {
	tx *gorm.DB
}

// LabelRepo returns the label repository scoped to the current transaction.
func (r *labelingTransactionalRepositories) LabelRepo() labeling.LabelRepository {
	return NewGormLabelRepository(r.tx)
}

// CustomerRepo returns the customer repository scoped to the current transaction.
func (r *labelingTransactionalRepositories) CustomerRepo() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

// Ensure LabelingTransactionScope implements TransactionScope
var _ applabeling.TransactionScope = (*LabelingTransactionScope)(nil)

// Ensure labelingTransactionalRepositories implements TransactionalRepositories
var _ applabeling.TransactionalRepositories = (*labelingTransactionalRepositories)(nil)
