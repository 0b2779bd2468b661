package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type completionFixture struct {
	service  *OrderCompletionService
	orders   *memOrderRepo
	notes    *memNoteRepo
	samples  *MockSampleRepository
	maker    *stubMaker
	errorLog *recordingErrorLog
	metrics  *countingSweepMetrics
	invalid  map[string]error
}

func newCompletionFixture(orders []trade.SalesOrder, customers ...partner.Customer) *completionFixture {
	f := &completionFixture{
		orders:   &memOrderRepo{orders: orders},
		notes:    newMemNoteRepo(),
		samples:  new(MockSampleRepository),
		errorLog: &recordingErrorLog{},
		metrics:  newCountingSweepMetrics(),
		invalid:  make(map[string]error),
	}
	f.maker = &stubMaker{orders: f.orders, fail: make(map[string]error), panicOn: make(map[string]bool)}
	customerRepo := newMemCustomerRepo(customers...)
	f.service = NewOrderCompletionService(
		f.orders,
		NewCompletionTracker(f.samples),
		customerRepo,
		stubValidator{invalid: f.invalid},
		f.maker,
		stubSeries{},
		NewNoOpTransactionScope(f.notes, customerRepo),
		f.errorLog,
		CompletionConfig{ProductType: "Sequencing", BatchLimit: 100, LockTTL: time.Minute},
		zap.NewNop(),
	)
	f.service.SetMetrics(f.metrics)
	return f
}

func (f *completionFixture) ready(order string) {
	f.samples.On("FindLabelStatesForOrder", mock.Anything, order).Return([]labeling.SampleLabelState{
		{Sample: order + "-S1", LabelName: order + "-L1", LabelStatus: status(labeling.LabelStatusProcessed)},
	}, nil)
}

func TestOrderCompletion_IncompleteOrderCreatesNothing(t *testing.T) {
	f := newCompletionFixture([]trade.SalesOrder{openOrder("SO-X", "C-1")}, customer("C-1", false))
	f.samples.On("FindLabelStatesForOrder", mock.Anything, "SO-X").Return([]labeling.SampleLabelState{
		{Sample: "S-1", LabelName: "SL-1", LabelStatus: status(labeling.LabelStatusProcessed)},
		{Sample: "S-2"},
	}, nil)

	report := f.service.Sweep(context.Background(), CompletionSweepRequest{})

	assert.Equal(t, SweepCompleted, report.Status)
	assert.Equal(t, 1, report.Candidates)
	assert.Equal(t, 1, report.Incomplete)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 0, f.notes.count())
	assert.Empty(t, f.maker.calls)
	assert.Empty(t, f.errorLog.entries)
}

func TestOrderCompletion_CreatesDraftForCompleteOrder(t *testing.T) {
	so := openOrder("SO-1", "C-1")
	so.WebOrderID = "W-77"
	f := newCompletionFixture([]trade.SalesOrder{so}, customer("C-1", false))
	f.ready("SO-1")

	report := f.service.Sweep(context.Background(), CompletionSweepRequest{})

	require.Equal(t, 1, report.Created)
	require.Len(t, report.Orders, 1)
	res := report.Orders[0]
	assert.Equal(t, OrderDeliveryNoteCreated, res.Outcome)
	assert.Equal(t, "DN-BAL-00001", res.DeliveryNote)

	note, err := f.notes.FindByName(context.Background(), res.DeliveryNote)
	require.NoError(t, err)
	assert.Equal(t, shared.DocStatusDraft, note.DocStatus)
	assert.Equal(t, "DN-BAL-", note.NamingSeries)
	assert.True(t, note.IgnoreMandatory)
	assert.Equal(t, "W-77", note.WebOrderID)
	assert.Equal(t, []string{"SO-1"}, note.OriginatingSalesOrders())
	assert.Equal(t, 1, f.metrics.units[SweepOrderCompletion+"/created"])
	assert.NotEmpty(t, report.RunID)
}

func TestOrderCompletion_RerunDoesNotDuplicate(t *testing.T) {
	f := newCompletionFixture([]trade.SalesOrder{openOrder("SO-1", "C-1")}, customer("C-1", false))
	f.ready("SO-1")

	first := f.service.Sweep(context.Background(), CompletionSweepRequest{})
	second := f.service.Sweep(context.Background(), CompletionSweepRequest{})

	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, OrderAlreadyDelivered, second.Orders[0].Outcome)
	assert.Equal(t, 1, f.notes.count())
}

func TestOrderCompletion_SkipsAndContinues(t *testing.T) {
	f := newCompletionFixture(
		[]trade.SalesOrder{
			openOrder("SO-INVALID", "C-1"),
			openOrder("SO-OFF", "C-OFF"),
			openOrder("SO-BOOM", "C-1"),
			openOrder("SO-PANIC", "C-1"),
			openOrder("SO-OK", "C-1"),
		},
		customer("C-1", false),
		customer("C-OFF", true),
	)
	f.invalid["SO-INVALID"] = shared.NewDomainError(shared.CodePreconditionFailed, "shipping address missing")
	f.maker.fail["SO-BOOM"] = errors.New("item 3000 has no stock uom")
	f.maker.panicOn["SO-PANIC"] = true
	for _, o := range []string{"SO-OFF", "SO-BOOM", "SO-PANIC", "SO-OK"} {
		f.ready(o)
	}

	report := f.service.Sweep(context.Background(), CompletionSweepRequest{})

	outcomes := make(map[string]OrderOutcome)
	for _, res := range report.Orders {
		outcomes[res.SalesOrder] = res.Outcome
	}
	assert.Equal(t, OrderInvalid, outcomes["SO-INVALID"])
	assert.Equal(t, OrderCustomerDisabled, outcomes["SO-OFF"])
	assert.Equal(t, OrderFailed, outcomes["SO-BOOM"])
	assert.Equal(t, OrderFailed, outcomes["SO-PANIC"])
	assert.Equal(t, OrderDeliveryNoteCreated, outcomes["SO-OK"])

	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, f.notes.count())

	refs := make([]string, 0)
	for _, e := range f.errorLog.entries {
		refs = append(refs, e.ReferenceName)
	}
	assert.ElementsMatch(t, []string{"SO-INVALID", "SO-OFF", "SO-BOOM", "SO-PANIC"}, refs)
}

func TestOrderCompletion_SweepPagesPastStuckOrders(t *testing.T) {
	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	dated := func(name string, days int) trade.SalesOrder {
		o := openOrder(name, "C-1")
		o.TransactionDate = at.AddDate(0, 0, days)
		return o
	}
	f := newCompletionFixture(
		[]trade.SalesOrder{
			dated("SO-NEW", 5),
			dated("SO-WAIT-1", 0),
			dated("SO-WAIT-2", 1),
			dated("SO-WAIT-3", 1),
			dated("SO-BAD", 2),
		},
		customer("C-1", false),
	)
	for _, o := range []string{"SO-WAIT-1", "SO-WAIT-2", "SO-WAIT-3"} {
		f.samples.On("FindLabelStatesForOrder", mock.Anything, o).Return([]labeling.SampleLabelState{
			{Sample: o + "-S1"},
		}, nil)
	}
	f.invalid["SO-BAD"] = shared.NewDomainError(shared.CodePreconditionFailed, "shipping address missing")
	f.ready("SO-BAD")
	f.ready("SO-NEW")

	report := f.service.Sweep(context.Background(), CompletionSweepRequest{Limit: 2})

	assert.Equal(t, SweepCompleted, report.Status)
	assert.Equal(t, 5, report.Candidates)
	assert.Equal(t, 3, report.Incomplete)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 3, f.orders.reads)

	names := make([]string, 0, len(report.Orders))
	for _, res := range report.Orders {
		names = append(names, res.SalesOrder)
	}
	assert.Equal(t, []string{"SO-WAIT-1", "SO-WAIT-2", "SO-WAIT-3", "SO-BAD", "SO-NEW"}, names)
	assert.Equal(t, OrderDeliveryNoteCreated, report.Orders[4].Outcome)
}

func TestOrderCompletion_SweepLevelOutcomes(t *testing.T) {
	t.Run("candidate query failure", func(t *testing.T) {
		f := newCompletionFixture(nil)
		f.orders.err = errors.New("connection reset")

		report := f.service.Sweep(context.Background(), CompletionSweepRequest{})
		assert.Equal(t, SweepFailed, report.Status)
		assert.Equal(t, "connection reset", report.Message)
	})

	t.Run("lock held elsewhere", func(t *testing.T) {
		f := newCompletionFixture([]trade.SalesOrder{openOrder("SO-1", "C-1")}, customer("C-1", false))
		f.service.SetLocker(heldLocker{})

		report := f.service.Sweep(context.Background(), CompletionSweepRequest{})
		assert.Equal(t, SweepSkippedLocked, report.Status)
		assert.Equal(t, 0, report.Candidates)
		f.samples.AssertNotCalled(t, "FindLabelStatesForOrder", mock.Anything, mock.Anything)
	})

	t.Run("product type filter", func(t *testing.T) {
		other := openOrder("SO-2", "C-1")
		other.ProductType = "Oligo"
		f := newCompletionFixture([]trade.SalesOrder{openOrder("SO-1", "C-1"), other}, customer("C-1", false))
		f.ready("SO-2")

		report := f.service.Sweep(context.Background(), CompletionSweepRequest{ProductType: "Oligo"})
		assert.Equal(t, "Oligo", report.ProductType)
		assert.Equal(t, 1, report.Candidates)
		assert.Equal(t, 1, report.Created)
	})
}

func customer(name string, disabled bool) partner.Customer {
	return partner.Customer{BaseEntity: shared.NewBaseEntity(name), CustomerName: name, Disabled: disabled}
}
