package labeling

import (
	"context"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
)

// TransactionScope provides transactional access to label repositories.
// All repository operations inside fn are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	// LabelRepo returns the label repository scoped to the current transaction
	LabelRepo() labeling.LabelRepository
	// CustomerRepo returns the customer repository scoped to the current transaction
	CustomerRepo() partner.CustomerRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by tests and the in-memory wiring of labctl.
type NoOpTransactionScope struct {
	labelRepo    labeling.LabelRepository
	customerRepo partner.CustomerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(labelRepo labeling.LabelRepository, customerRepo partner.CustomerRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{labelRepo: labelRepo, customerRepo: customerRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LabelRepo returns the label repository.
func (s *NoOpTransactionScope) LabelRepo() labeling.LabelRepository {
	return s.labelRepo
}

// CustomerRepo returns the customer repository.
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository {
	return s.customerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

// StatusMetrics records the per-item outcome of label status changes
type StatusMetrics interface {
	ObserveStatusChange(target labeling.LabelStatus, result string)
}

type noopStatusMetrics struct{}

func (noopStatusMetrics) ObserveStatusChange(labeling.LabelStatus, string) {}
