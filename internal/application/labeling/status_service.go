package labeling

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StatusChangeService runs guarded batch status changes on labels
type StatusChangeService struct {
	store      *LabelStore
	labelRepo  labeling.LabelRepository
	sampleRepo labeling.SampleRepository
	txScope    TransactionScope
	lease      *CustomerLease
	errorLog   shared.ErrorLog
	metrics    StatusMetrics
	logger     *zap.Logger
}

// NewStatusChangeService creates a new StatusChangeService
func NewStatusChangeService(
	store *LabelStore,
	labelRepo labeling.LabelRepository,
	sampleRepo labeling.SampleRepository,
	txScope TransactionScope,
	lease *CustomerLease,
	errorLog shared.ErrorLog,
	logger *zap.Logger,
) *StatusChangeService {
	return &StatusChangeService{
		store:      store,
		labelRepo:  labelRepo,
		sampleRepo: sampleRepo,
		txScope:    txScope,
		lease:      lease,
		errorLog:   errorLog,
		metrics:    noopStatusMetrics{},
		logger:     logger,
	}
}

// SetMetrics sets the metrics recorder (optional)
func (s *StatusChangeService) SetMetrics(m StatusMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// candidate is a validated label waiting to be written; index points into items
type candidate struct {
	index int
	label *labeling.SequencingLabel
}

// ProcessLabelStatusChange applies req.Target to every distinct label pair.
// All failures, panics included, are reported per item; the call never returns
// an error.
func (s *StatusChangeService) ProcessLabelStatusChange(ctx context.Context, req StatusChangeRequest) (result StatusChangeResult) {
	ctx, span := telemetry.StartServiceSpan(ctx, "label_status", "process",
		telemetry.WithAttribute("label.target", string(req.Target)),
		telemetry.WithAttribute("batch.strict", req.StopOnFirstFailure),
	)
	defer span.End()

	keys := labeling.DedupeKeys(req.Keys)
	items := make([]ItemResult, len(keys))
	for i, key := range keys {
		items[i] = ItemResult{Barcode: key.Barcode, ItemCode: key.ItemCode, To: req.Target}
	}

	defer func() {
		if r := recover(); r != nil {
			err := panicError(r)
			s.logger.Error("Label status batch panicked",
				zap.String("target", string(req.Target)),
				zap.Int("labels", len(keys)),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			s.logUnexpected(ctx, req, err)
			for i := range items {
				if items[i].Status == "" {
					fail(&items[i], err)
				}
			}
			result = s.finish(req, items, "")
		}
		telemetry.SetAttributes(span, "labels.changed", result.Changed, "labels.failed", result.Failed)
	}()

	op, err := labeling.OperationForTarget(req.Target)
	if err != nil {
		failAll(items, err)
		return s.finish(req, items, err.Error())
	}
	if len(keys) == 0 {
		return StatusChangeResult{Success: true, Message: "No labels given", Items: items}
	}

	lookups, err := s.store.BatchFindLabels(ctx, keys)
	if err != nil {
		s.logger.Error("Label lookup failed", zap.Error(err))
		failAll(items, err)
		return s.finish(req, items, err.Error())
	}

	candidates := make([]candidate, 0, len(keys))
	for i, key := range keys {
		label, err := s.validateItem(ctx, op, req, lookups[key])
		if err != nil {
			fail(&items[i], err)
			s.logger.Warn("Label rejected for status change",
				zap.String("barcode", key.Barcode),
				zap.String("item_code", key.ItemCode),
				zap.String("target", string(req.Target)),
				zap.String("code", items[i].Code),
				zap.String("reason", items[i].Message),
			)
			if req.StopOnFirstFailure {
				skipPending(items, "Batch aborted: "+items[i].Message)
				return s.finish(req, items, items[i].Message)
			}
			continue
		}
		items[i].Label = label.Name
		items[i].From = label.Status
		candidates = append(candidates, candidate{index: i, label: label})
	}

	customers := make([]string, 0, len(candidates))
	for _, c := range candidates {
		customers = append(customers, c.label.Customer)
	}
	leaseErr := s.lease.WithTemporarilyEnabled(ctx, customers, func(ctx context.Context) error {
		if req.StopOnFirstFailure {
			return s.saveAtomically(ctx, op, req, candidates, items)
		}
		s.saveEach(ctx, op, req, candidates, items)
		return nil
	})

	message := ""
	if leaseErr != nil {
		s.logger.Error("Customer lease failed during label status batch", zap.Error(leaseErr))
		s.errorLog.LogError(ctx, shared.ErrorEntry{
			Title:         "Label status change: customer enable/disable failed",
			Message:       leaseErr.Error(),
			ReferenceType: "Sequencing Label",
			Fields:        map[string]string{"target": string(req.Target)},
		})
		message = leaseErr.Error()
		for i := range items {
			if items[i].Status == "" {
				fail(&items[i], leaseErr)
			}
		}
	}
	return s.finish(req, items, message)
}

func (s *StatusChangeService) validateItem(ctx context.Context, op labeling.Operation, req StatusChangeRequest, lookup LookupResult) (label *labeling.SequencingLabel, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Label validation panicked", zap.Any("panic", r), zap.Stack("stack"))
			label, err = nil, panicError(r)
		}
	}()

	if err := lookup.Err(); err != nil {
		return nil, err
	}
	label = lookup.Label
	if err := labeling.CheckTransition(op, label.Status, req.AllowedFrom); err != nil {
		return nil, err
	}
	if req.CheckNotUsed {
		usages, err := s.sampleRepo.FindOpenOrderUsages(ctx, label.Name, req.ContextOrder)
		if err != nil {
			return nil, fmt.Errorf("check open orders of label %s: %w", label.Name, err)
		}
		if len(usages) > 0 {
			orders := make([]string, 0, len(usages))
			for _, u := range usages {
				orders = append(orders, u.SalesOrder)
			}
			return nil, shared.NewDomainError(shared.CodeLabelInUse,
				fmt.Sprintf("Label %s is used on open sales order(s) %s", label.Name, strings.Join(orders, ", ")))
		}
	}
	return label, nil
}

// saveAtomically writes every candidate in one transaction. Items are marked
// changed only after commit.
func (s *StatusChangeService) saveAtomically(ctx context.Context, op labeling.Operation, req StatusChangeRequest, candidates []candidate, items []ItemResult) error {
	failedAt := -1
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for n, c := range candidates {
			if err := c.label.ApplyOperation(op, req.AllowedFrom); err != nil {
				failedAt = n
				return err
			}
			if err := repos.LabelRepo().Save(ctx, c.label); err != nil {
				failedAt = n
				return err
			}
		}
		return nil
	})
	if err == nil {
		for _, c := range candidates {
			items[c.index].Status = ItemChanged
		}
		return nil
	}

	if failedAt >= 0 {
		fail(&items[candidates[failedAt].index], err)
	}
	s.logger.Warn("Strict label batch rolled back", zap.Error(err))
	skipPending(items, "Batch rolled back: "+err.Error())
	return nil
}

// saveEach writes candidates one by one; a failing label does not stop the rest
func (s *StatusChangeService) saveEach(ctx context.Context, op labeling.Operation, req StatusChangeRequest, candidates []candidate, items []ItemResult) {
	for _, c := range candidates {
		if err := s.saveOne(ctx, op, req, c.label); err != nil {
			fail(&items[c.index], err)
			s.logger.Warn("Label status save failed",
				zap.String("label", c.label.Name),
				zap.String("target", string(req.Target)),
				zap.Error(err),
			)
			continue
		}
		items[c.index].Status = ItemChanged
	}
}

func (s *StatusChangeService) saveOne(ctx context.Context, op labeling.Operation, req StatusChangeRequest, label *labeling.SequencingLabel) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Label save panicked", zap.String("label", label.Name), zap.Any("panic", r), zap.Stack("stack"))
			err = panicError(r)
		}
	}()
	if err := label.ApplyOperation(op, req.AllowedFrom); err != nil {
		return err
	}
	return s.labelRepo.Save(ctx, label)
}

func (s *StatusChangeService) finish(req StatusChangeRequest, items []ItemResult, message string) StatusChangeResult {
	result := StatusChangeResult{Items: items}
	for _, item := range items {
		switch item.Status {
		case ItemChanged:
			result.Changed++
		case ItemFailed:
			result.Failed++
		case ItemSkipped:
			result.Skipped++
		}
		s.metrics.ObserveStatusChange(req.Target, string(item.Status))
	}
	result.Success = result.Failed == 0 && result.Skipped == 0 && message == ""
	switch {
	case message != "":
		result.Message = message
	case result.Success:
		result.Message = fmt.Sprintf("Set %d label(s) to %s", result.Changed, req.Target)
	default:
		result.Message = fmt.Sprintf("Set %d of %d label(s) to %s, %d failed", result.Changed, len(items), req.Target, result.Failed)
	}
	return result
}

func (s *StatusChangeService) logUnexpected(ctx context.Context, req StatusChangeRequest, err error) {
	keys := make([]string, 0, len(req.Keys))
	for _, k := range req.Keys {
		keys = append(keys, k.String())
	}
	s.errorLog.LogError(ctx, shared.ErrorEntry{
		Title:         "Label status change failed unexpectedly",
		Message:       err.Error(),
		ReferenceType: "Sequencing Label",
		Fields: map[string]string{
			"target": string(req.Target),
			"labels": strings.Join(keys, ","),
		},
	})
}

// LockLabels locks labels, all-or-nothing. allowedFrom overrides the default
// of only locking unused labels.
func (s *StatusChangeService) LockLabels(ctx context.Context, keys []labeling.LabelKey, allowedFrom []labeling.LabelStatus) StatusChangeResult {
	return s.ProcessLabelStatusChange(ctx, StatusChangeRequest{
		Keys:               keys,
		Target:             labeling.OperationLock.Target(),
		AllowedFrom:        allowedFrom,
		StopOnFirstFailure: true,
	})
}

// MarkLabelsUnused releases labels, all-or-nothing, unless another open sales
// order than contextOrder still references them.
func (s *StatusChangeService) MarkLabelsUnused(ctx context.Context, keys []labeling.LabelKey, contextOrder string) StatusChangeResult {
	return s.ProcessLabelStatusChange(ctx, StatusChangeRequest{
		Keys:               keys,
		Target:             labeling.OperationUnset.Target(),
		CheckNotUsed:       labeling.OperationUnset.RequiresNotUsedGuard(),
		StopOnFirstFailure: true,
		ContextOrder:       contextOrder,
	})
}

// ReceiveLabels marks labels received, best effort
func (s *StatusChangeService) ReceiveLabels(ctx context.Context, keys []labeling.LabelKey) StatusChangeResult {
	return s.ProcessLabelStatusChange(ctx, StatusChangeRequest{
		Keys:   keys,
		Target: labeling.OperationReceive.Target(),
	})
}

// ProcessLabels marks labels processed, best effort
func (s *StatusChangeService) ProcessLabels(ctx context.Context, keys []labeling.LabelKey) StatusChangeResult {
	return s.ProcessLabelStatusChange(ctx, StatusChangeRequest{
		Keys:   keys,
		Target: labeling.OperationProcess.Target(),
	})
}

func fail(item *ItemResult, err error) {
	item.Status = ItemFailed
	item.Code = shared.ErrorCode(err)
	item.Message = err.Error()
}

func failAll(items []ItemResult, err error) {
	for i := range items {
		fail(&items[i], err)
	}
}

func skipPending(items []ItemResult, message string) {
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = ItemSkipped
			items[i].Message = message
		}
	}
}

func panicError(r any) error {
	return shared.NewDomainError(shared.CodeUnexpected, fmt.Sprintf("unexpected failure: %v", r))
}
