package fulfillment

import (
	"context"
	"time"

	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/trade"
)

// DoctypeDeliveryNote is the doctype passed to the naming series provider
const DoctypeDeliveryNote = "Delivery Note"

// DeliveryNoteMaker derives an unsaved draft delivery note from a sales order.
// It is owned by the surrounding ERP.
type DeliveryNoteMaker interface {
	MakeDeliveryNote(ctx context.Context, salesOrder string) (*trade.DeliveryNote, error)
}

// NamingSeriesProvider returns the document numbering series of a company
type NamingSeriesProvider interface {
	NamingSeries(ctx context.Context, doctype, company string) (string, error)
}

// SalesOrderValidator checks submission, status, addressing and tax template
// preconditions. A non-nil error explains why the order cannot be delivered.
type SalesOrderValidator interface {
	ValidateSalesOrder(ctx context.Context, salesOrder string) error
}

// SweepLocker guards a sweep against concurrent runs on other instances
type SweepLocker interface {
	// TryLock acquires key for ttl; false means another holder owns it
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Unlock releases key
	Unlock(ctx context.Context, key string) error
}

// SweepMetrics records sweep outcomes
type SweepMetrics interface {
	ObserveSweepUnit(sweep, outcome string)
	ObserveEscalation(kind string)
}

type noopSweepMetrics struct{}

func (noopSweepMetrics) ObserveSweepUnit(string, string) {}
func (noopSweepMetrics) ObserveEscalation(string)        {}

// TransactionScope provides transactional access to fulfillment repositories.
// Sweeps open one transaction per order or note, which is the commit point.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	// DeliveryNoteRepo returns the delivery note repository scoped to the current transaction
	DeliveryNoteRepo() trade.DeliveryNoteRepository
	// CustomerRepo returns the customer repository scoped to the current transaction
	CustomerRepo() partner.CustomerRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
type NoOpTransactionScope struct {
	noteRepo     trade.DeliveryNoteRepository
	customerRepo partner.CustomerRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(noteRepo trade.DeliveryNoteRepository, customerRepo partner.CustomerRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{noteRepo: noteRepo, customerRepo: customerRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// DeliveryNoteRepo returns the delivery note repository.
func (s *NoOpTransactionScope) DeliveryNoteRepo() trade.DeliveryNoteRepository {
	return s.noteRepo
}

// CustomerRepo returns the customer repository.
func (s *NoOpTransactionScope) CustomerRepo() partner.CustomerRepository {
	return s.customerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

// runLocked runs fn while holding key. acquired is false when another holder
// owns the lock; fn is not run in that case. A nil locker always runs fn.
func runLocked(ctx context.Context, locker SweepLocker, key string, ttl time.Duration, fn func()) (acquired bool, err error) {
	if locker == nil {
		fn()
		return true, nil
	}
	ok, err := locker.TryLock(ctx, key, ttl)
	if err != nil || !ok {
		return false, err
	}
	defer func() {
		_ = locker.Unlock(context.WithoutCancel(ctx), key)
	}()
	fn()
	return true, nil
}
