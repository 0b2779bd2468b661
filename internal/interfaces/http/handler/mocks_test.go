package handler

import (
	"context"

	"github.com/erp/labtrack/internal/application/fulfillment"
	applabeling "github.com/erp/labtrack/internal/application/labeling"
	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/infrastructure/persistence"
	"github.com/stretchr/testify/mock"
)

type MockLabelLookup struct {
	mock.Mock
}

func (m *MockLabelLookup) FindLabel(ctx context.Context, key labeling.LabelKey) (applabeling.LookupResult, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(applabeling.LookupResult), args.Error(1)
}

func (m *MockLabelLookup) BatchFindLabels(ctx context.Context, keys []labeling.LabelKey) (map[labeling.LabelKey]applabeling.LookupResult, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[labeling.LabelKey]applabeling.LookupResult), args.Error(1)
}

type MockLabelStatusChanger struct {
	mock.Mock
}

func (m *MockLabelStatusChanger) ProcessLabelStatusChange(ctx context.Context, req applabeling.StatusChangeRequest) applabeling.StatusChangeResult {
	return m.Called(ctx, req).Get(0).(applabeling.StatusChangeResult)
}

func (m *MockLabelStatusChanger) LockLabels(ctx context.Context, keys []labeling.LabelKey, allowedFrom []labeling.LabelStatus) applabeling.StatusChangeResult {
	return m.Called(ctx, keys, allowedFrom).Get(0).(applabeling.StatusChangeResult)
}

func (m *MockLabelStatusChanger) MarkLabelsUnused(ctx context.Context, keys []labeling.LabelKey, contextOrder string) applabeling.StatusChangeResult {
	return m.Called(ctx, keys, contextOrder).Get(0).(applabeling.StatusChangeResult)
}

func (m *MockLabelStatusChanger) ReceiveLabels(ctx context.Context, keys []labeling.LabelKey) applabeling.StatusChangeResult {
	return m.Called(ctx, keys).Get(0).(applabeling.StatusChangeResult)
}

func (m *MockLabelStatusChanger) ProcessLabels(ctx context.Context, keys []labeling.LabelKey) applabeling.StatusChangeResult {
	return m.Called(ctx, keys).Get(0).(applabeling.StatusChangeResult)
}

type MockDuplicateTools struct {
	mock.Mock
}

func (m *MockDuplicateTools) KeepOneLockOther(ctx context.Context, barcodes []string) applabeling.DuplicateReport {
	return m.Called(ctx, barcodes).Get(0).(applabeling.DuplicateReport)
}

func (m *MockDuplicateTools) LockBoth(ctx context.Context, barcodes []string) applabeling.DuplicateReport {
	return m.Called(ctx, barcodes).Get(0).(applabeling.DuplicateReport)
}

func (m *MockDuplicateTools) Inspect(ctx context.Context, barcodes []string, limit int) ([]applabeling.DuplicateInspection, error) {
	args := m.Called(ctx, barcodes, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]applabeling.DuplicateInspection), args.Error(1)
}

func (m *MockDuplicateTools) DeleteDuplicate(ctx context.Context, labelName string) error {
	return m.Called(ctx, labelName).Error(0)
}

type MockCompletionEvaluator struct {
	mock.Mock
}

func (m *MockCompletionEvaluator) Evaluate(ctx context.Context, salesOrder string) (fulfillment.CompletionVerdict, error) {
	args := m.Called(ctx, salesOrder)
	return args.Get(0).(fulfillment.CompletionVerdict), args.Error(1)
}

type MockCompletionSweeper struct {
	mock.Mock
}

func (m *MockCompletionSweeper) Sweep(ctx context.Context, req fulfillment.CompletionSweepRequest) fulfillment.CompletionSweepReport {
	return m.Called(ctx, req).Get(0).(fulfillment.CompletionSweepReport)
}

type MockSubmissionGate struct {
	mock.Mock
}

func (m *MockSubmissionGate) Sweep(ctx context.Context) fulfillment.SubmissionSweepReport {
	return m.Called(ctx).Get(0).(fulfillment.SubmissionSweepReport)
}

func (m *MockSubmissionGate) CheckAndSubmit(ctx context.Context, name string) (fulfillment.SubmissionOutcome, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(fulfillment.SubmissionOutcome), args.Error(1)
}

type MockErrorLogReader struct {
	mock.Mock
}

func (m *MockErrorLogReader) List(ctx context.Context, filter persistence.ErrorLogFilter) ([]persistence.ErrorLogRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]persistence.ErrorLogRecord), args.Error(1)
}
