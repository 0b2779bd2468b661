package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// In-memory repositories
// =============================================================================

type memOrderRepo struct {
	orders []trade.SalesOrder
	err    error
	reads  int
}

func beforeKey(at time.Time, name string, otherAt time.Time, otherName string) bool {
	if !at.Equal(otherAt) {
		return at.Before(otherAt)
	}
	return name < otherName
}

func afterCursor(at time.Time, name string, c trade.PageCursor) bool {
	return beforeKey(c.At, c.Name, at, name)
}

func (r *memOrderRepo) FindByName(_ context.Context, name string) (*trade.SalesOrder, error) {
	for i := range r.orders {
		if r.orders[i].Name == name {
			o := r.orders[i]
			return &o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memOrderRepo) FindCompletionCandidates(_ context.Context, filter trade.OpenOrderFilter) ([]trade.SalesOrder, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.reads++
	out := make([]trade.SalesOrder, 0)
	for _, o := range r.orders {
		if !o.IsOpenForDelivery() || !o.MatchesProductType(filter.ProductType) {
			continue
		}
		if !filter.After.IsZero() && !afterCursor(o.TransactionDate, o.Name, filter.After) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return beforeKey(out[i].TransactionDate, out[i].Name, out[j].TransactionDate, out[j].Name)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type memNoteRepo struct {
	mu        sync.Mutex
	notes     map[string]trade.DeliveryNote
	seq       int
	createErr error
	existing  map[string]bool // sales order -> delivery exists
	updates   []string
}

func newMemNoteRepo(notes ...trade.DeliveryNote) *memNoteRepo {
	r := &memNoteRepo{notes: make(map[string]trade.DeliveryNote), existing: make(map[string]bool)}
	for _, n := range notes {
		r.notes[n.Name] = n
	}
	return r
}

func (r *memNoteRepo) docStatus(name string) shared.DocStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notes[name].DocStatus
}

func (r *memNoteRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}

func (r *memNoteRepo) FindByName(_ context.Context, name string) (*trade.DeliveryNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &n, nil
}

func (r *memNoteRepo) FindDrafts(_ context.Context, filter trade.DraftFilter) ([]trade.DeliveryNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]trade.DeliveryNote, 0)
	for _, n := range r.notes {
		if !n.IsDraft() {
			continue
		}
		if !filter.CreatedBefore.IsZero() && !n.CreatedAt.Before(filter.CreatedBefore) {
			continue
		}
		if !filter.After.IsZero() && !afterCursor(n.CreatedAt, n.Name, filter.After) {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return beforeKey(out[i].CreatedAt, out[i].Name, out[j].CreatedAt, out[j].Name)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memNoteRepo) ExistsForOrder(_ context.Context, salesOrder, webOrderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.existing[salesOrder] {
		return true, nil
	}
	for _, n := range r.notes {
		if n.DocStatus == shared.DocStatusCancelled {
			continue
		}
		if webOrderID != "" && n.WebOrderID == webOrderID {
			return true, nil
		}
		for _, o := range n.OriginatingSalesOrders() {
			if o == salesOrder {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memNoteRepo) NextName(_ context.Context, series string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("%s%05d", series, r.seq), nil
}

func (r *memNoteRepo) Create(_ context.Context, note *trade.DeliveryNote) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[note.Name] = *note
	return nil
}

func (r *memNoteRepo) UpdateDocStatus(_ context.Context, name string, status shared.DocStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[name]
	if !ok {
		return shared.ErrNotFound
	}
	n.DocStatus = status
	r.notes[name] = n
	r.updates = append(r.updates, name)
	return nil
}

type memCustomerRepo struct {
	customers map[string]partner.Customer
}

func newMemCustomerRepo(customers ...partner.Customer) *memCustomerRepo {
	r := &memCustomerRepo{customers: make(map[string]partner.Customer)}
	for _, c := range customers {
		r.customers[c.Name] = c
	}
	return r
}

func (r *memCustomerRepo) FindByName(_ context.Context, name string) (*partner.Customer, error) {
	c, ok := r.customers[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCustomerRepo) FindByNames(_ context.Context, names []string) ([]partner.Customer, error) {
	out := make([]partner.Customer, 0)
	for _, n := range names {
		if c, ok := r.customers[n]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCustomerRepo) SetDisabled(_ context.Context, name string, disabled bool) error {
	c, ok := r.customers[name]
	if !ok {
		return shared.ErrNotFound
	}
	c.Disabled = disabled
	r.customers[name] = c
	return nil
}

// =============================================================================
// Collaborators
// =============================================================================

// MockSampleRepository is a mock implementation of SampleRepository
type MockSampleRepository struct {
	mock.Mock
}

func (m *MockSampleRepository) FindByName(ctx context.Context, name string) (*labeling.Sample, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*labeling.Sample), args.Error(1)
}

func (m *MockSampleRepository) FindLabelStatesForOrder(ctx context.Context, salesOrder string) ([]labeling.SampleLabelState, error) {
	args := m.Called(ctx, salesOrder)
	return args.Get(0).([]labeling.SampleLabelState), args.Error(1)
}

func (m *MockSampleRepository) FindLabelStatesForSamples(ctx context.Context, samples []string) ([]labeling.SampleLabelState, error) {
	args := m.Called(ctx, samples)
	return args.Get(0).([]labeling.SampleLabelState), args.Error(1)
}

func (m *MockSampleRepository) FindOpenOrderUsages(ctx context.Context, labelName, excludeOrder string) ([]labeling.OrderUsage, error) {
	args := m.Called(ctx, labelName, excludeOrder)
	return args.Get(0).([]labeling.OrderUsage), args.Error(1)
}

func (m *MockSampleRepository) FindUsagesByBarcode(ctx context.Context, barcode string) ([]labeling.SampleUsage, error) {
	args := m.Called(ctx, barcode)
	return args.Get(0).([]labeling.SampleUsage), args.Error(1)
}

// stubMaker copies the order into a note, or fails/panics for selected orders
type stubMaker struct {
	orders  *memOrderRepo
	fail    map[string]error
	panicOn map[string]bool
	calls   []string
}

func (m *stubMaker) MakeDeliveryNote(ctx context.Context, salesOrder string) (*trade.DeliveryNote, error) {
	m.calls = append(m.calls, salesOrder)
	if m.panicOn[salesOrder] {
		panic("mapper exploded")
	}
	if err := m.fail[salesOrder]; err != nil {
		return nil, err
	}
	so, err := m.orders.FindByName(ctx, salesOrder)
	if err != nil {
		return nil, err
	}
	note := &trade.DeliveryNote{Customer: so.Customer, Company: so.Company}
	for _, item := range so.Items {
		note.Items = append(note.Items, trade.DeliveryNoteItem{
			ItemCode:          item.ItemCode,
			ItemName:          item.ItemName,
			Qty:               item.Qty,
			AgainstSalesOrder: so.Name,
		})
	}
	return note, nil
}

type stubSeries struct{}

func (stubSeries) NamingSeries(_ context.Context, _, company string) (string, error) {
	if company == "" {
		return "", fmt.Errorf("no naming series for empty company")
	}
	return "DN-" + company + "-", nil
}

type stubValidator struct {
	invalid map[string]error
}

func (v stubValidator) ValidateSalesOrder(_ context.Context, name string) error {
	return v.invalid[name]
}

type recordingErrorLog struct {
	mu      sync.Mutex
	entries []shared.ErrorEntry
}

func (l *recordingErrorLog) LogError(_ context.Context, entry shared.ErrorEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

type recordingNotifier struct {
	sent []shared.Notification
	err  error
}

func (n *recordingNotifier) SendTemplated(_ context.Context, notification shared.Notification) error {
	n.sent = append(n.sent, notification)
	return n.err
}

type countingSweepMetrics struct {
	units       map[string]int
	escalations map[string]int
}

func newCountingSweepMetrics() *countingSweepMetrics {
	return &countingSweepMetrics{units: make(map[string]int), escalations: make(map[string]int)}
}

func (m *countingSweepMetrics) ObserveSweepUnit(sweep, outcome string) {
	m.units[sweep+"/"+outcome]++
}

func (m *countingSweepMetrics) ObserveEscalation(kind string) {
	m.escalations[kind]++
}

// heldLocker reports every key as taken by another instance
type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string, time.Duration) (bool, error) { return false, nil }
func (heldLocker) Unlock(context.Context, string) error                        { return nil }

// =============================================================================
// Fixtures
// =============================================================================

func status(s labeling.LabelStatus) *labeling.LabelStatus {
	return &s
}

func openOrder(name, customer string) trade.SalesOrder {
	return trade.SalesOrder{
		BaseEntity:  shared.NewBaseEntity(name),
		DocStatus:   shared.DocStatusSubmitted,
		Status:      trade.SalesOrderStatusToDeliverAndBill,
		ProductType: "Sequencing",
		Customer:    customer,
		Company:     "BAL",
		Items: []trade.SalesOrderItem{
			{ItemCode: "3000", ItemName: "Sanger sequencing"},
		},
	}
}

func draftNote(name string, age time.Duration, now time.Time, orders ...string) trade.DeliveryNote {
	n := trade.DeliveryNote{
		BaseEntity: shared.BaseEntity{Name: name, CreatedAt: now.Add(-age), UpdatedAt: now.Add(-age)},
		DocStatus:  shared.DocStatusDraft,
		Company:    "BAL",
	}
	for _, o := range orders {
		n.Items = append(n.Items, trade.DeliveryNoteItem{ItemCode: "3000", AgainstSalesOrder: o})
	}
	return n
}
