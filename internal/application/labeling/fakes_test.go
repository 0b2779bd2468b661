package labeling

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// In-memory repositories
// =============================================================================

// memLabelRepo stores labels by name. Save enforces the ERP link validation
// that rejects labels pointing to a disabled customer.
type memLabelRepo struct {
	mu        sync.Mutex
	labels    map[string]labeling.SequencingLabel
	customers *memCustomerRepo
	saveErr   map[string]error
	panicOn   map[string]bool
	keyCalls  int
	saves     []string
}

func newMemLabelRepo(customers *memCustomerRepo, labels ...labeling.SequencingLabel) *memLabelRepo {
	r := &memLabelRepo{
		labels:    make(map[string]labeling.SequencingLabel),
		customers: customers,
		saveErr:   make(map[string]error),
		panicOn:   make(map[string]bool),
	}
	for _, l := range labels {
		r.labels[l.Name] = l
	}
	return r
}

func (r *memLabelRepo) status(name string) labeling.LabelStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.labels[name].Status
}

func (r *memLabelRepo) sorted(match func(labeling.SequencingLabel) bool) []labeling.SequencingLabel {
	out := make([]labeling.SequencingLabel, 0)
	for _, l := range r.labels {
		if match(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *memLabelRepo) FindByName(_ context.Context, name string) (*labeling.SequencingLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.labels[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &l, nil
}

func (r *memLabelRepo) FindByKey(_ context.Context, key labeling.LabelKey) ([]labeling.SequencingLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l labeling.SequencingLabel) bool { return l.Key() == key }), nil
}

func (r *memLabelRepo) FindByKeys(_ context.Context, keys []labeling.LabelKey) ([]labeling.SequencingLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyCalls++
	return r.sorted(func(l labeling.SequencingLabel) bool { return slices.Contains(keys, l.Key()) }), nil
}

func (r *memLabelRepo) FindByBarcode(_ context.Context, barcode string) ([]labeling.SequencingLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l labeling.SequencingLabel) bool { return l.Barcode == barcode }), nil
}

func (r *memLabelRepo) FindDuplicatedBarcodes(_ context.Context, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, l := range r.labels {
		counts[l.Barcode]++
	}
	out := make([]string, 0)
	for b, n := range counts {
		if n > 1 {
			out = append(out, b)
		}
	}
	sort.Strings(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLabelRepo) List(_ context.Context, filter labeling.LabelFilter) ([]labeling.SequencingLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(l labeling.SequencingLabel) bool {
		return filter.Barcode == "" || l.Barcode == filter.Barcode
	}), nil
}

func (r *memLabelRepo) Save(_ context.Context, label *labeling.SequencingLabel) error {
	if r.panicOn[label.Name] {
		panic("storage exploded")
	}
	if err := r.saveErr[label.Name]; err != nil {
		return err
	}
	if label.Customer != "" && r.customers != nil && r.customers.isDisabled(label.Customer) {
		return shared.NewDomainError(shared.CodeCustomerDisabled, fmt.Sprintf("Customer %s is disabled", label.Customer))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels[label.Name] = *label
	r.saves = append(r.saves, label.Name)
	return nil
}

func (r *memLabelRepo) UpdateStatus(_ context.Context, name string, status labeling.LabelStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.labels[name]
	if !ok {
		return shared.ErrNotFound
	}
	l.Status = status
	r.labels[name] = l
	return nil
}

func (r *memLabelRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.labels[name]; !ok {
		return shared.ErrNotFound
	}
	delete(r.labels, name)
	return nil
}

type memCustomerRepo struct {
	mu        sync.Mutex
	customers map[string]partner.Customer
	setErr    map[string]error
	setCalls  []string
}

func newMemCustomerRepo(customers ...partner.Customer) *memCustomerRepo {
	r := &memCustomerRepo{customers: make(map[string]partner.Customer), setErr: make(map[string]error)}
	for _, c := range customers {
		r.customers[c.Name] = c
	}
	return r
}

func (r *memCustomerRepo) isDisabled(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers[name].Disabled
}

func (r *memCustomerRepo) FindByName(_ context.Context, name string) (*partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[name]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCustomerRepo) FindByNames(_ context.Context, names []string) ([]partner.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]partner.Customer, 0, len(names))
	for _, n := range names {
		if c, ok := r.customers[n]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCustomerRepo) SetDisabled(_ context.Context, name string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setCalls = append(r.setCalls, fmt.Sprintf("%s=%t", name, disabled))
	if err := r.setErr[fmt.Sprintf("%s=%t", name, disabled)]; err != nil {
		return err
	}
	c, ok := r.customers[name]
	if !ok {
		return shared.ErrNotFound
	}
	c.Disabled = disabled
	r.customers[name] = c
	return nil
}

// memTxScope rolls the label map back when fn fails
type memTxScope struct {
	labels    *memLabelRepo
	customers *memCustomerRepo
}

func (s *memTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.labels.mu.Lock()
	snapshot := maps.Clone(s.labels.labels)
	s.labels.mu.Unlock()
	if err := fn(NewNoOpTransactionScope(s.labels, s.customers)); err != nil {
		s.labels.mu.Lock()
		s.labels.labels = snapshot
		s.labels.mu.Unlock()
		return err
	}
	return nil
}

// =============================================================================
// Mocks
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

// recordingErrorLog keeps every entry for assertions
type recordingErrorLog struct {
	mu      sync.Mutex
	entries []shared.ErrorEntry
}

func (l *recordingErrorLog) LogError(_ context.Context, entry shared.ErrorEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// =============================================================================
// Fixtures
// =============================================================================

func label(name, barcode, itemCode string, status labeling.LabelStatus) labeling.SequencingLabel {
	return labeling.SequencingLabel{
		BaseEntity: shared.NewBaseEntity(name),
		Barcode:    barcode,
		ItemCode:   itemCode,
		Status:     status,
	}
}

func key(barcode, itemCode string) labeling.LabelKey {
	return labeling.LabelKey{Barcode: barcode, ItemCode: itemCode}
}
