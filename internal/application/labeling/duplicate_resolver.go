package labeling

import (
	"context"
	"fmt"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DuplicateResolver reconciles label records that share a barcode.
// Every barcode is re-read at decision time and committed on its own.
type DuplicateResolver struct {
	labelRepo labeling.LabelRepository
	txScope   TransactionScope
	lease     *CustomerLease
	errorLog  shared.ErrorLog
	logger    *zap.Logger
}

// NewDuplicateResolver creates a new DuplicateResolver
func NewDuplicateResolver(
	labelRepo labeling.LabelRepository,
	txScope TransactionScope,
	lease *CustomerLease,
	errorLog shared.ErrorLog,
	logger *zap.Logger,
) *DuplicateResolver {
	return &DuplicateResolver{
		labelRepo: labelRepo,
		txScope:   txScope,
		lease:     lease,
		errorLog:  errorLog,
		logger:    logger,
	}
}

// KeepOneLockOther locks the unused record of every barcode whose sibling is
// already locked. Barcodes in any other shape are skipped and reported.
func (r *DuplicateResolver) KeepOneLockOther(ctx context.Context, barcodes []string) DuplicateReport {
	return r.resolve(ctx, labeling.PolicyKeepOneLockOther, barcodes, func(barcode string, records []labeling.SequencingLabel) ([]*labeling.SequencingLabel, error) {
		target, err := labeling.PlanKeepOneLockOther(barcode, records)
		if err != nil {
			return nil, err
		}
		if err := target.ApplyOperation(labeling.OperationLock, nil); err != nil {
			return nil, err
		}
		return []*labeling.SequencingLabel{target}, nil
	})
}

// LockBoth locks both records of every barcode regardless of their status
func (r *DuplicateResolver) LockBoth(ctx context.Context, barcodes []string) DuplicateReport {
	return r.resolve(ctx, labeling.PolicyLockBoth, barcodes, func(barcode string, records []labeling.SequencingLabel) ([]*labeling.SequencingLabel, error) {
		targets, err := labeling.PlanLockBoth(barcode, records)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			t.SetStatus(labeling.LabelStatusLocked)
		}
		return targets, nil
	})
}

type resolvePlan func(barcode string, records []labeling.SequencingLabel) ([]*labeling.SequencingLabel, error)

func (r *DuplicateResolver) resolve(ctx context.Context, policy labeling.DuplicatePolicy, barcodes []string, plan resolvePlan) DuplicateReport {
	ctx, span := telemetry.StartServiceSpan(ctx, "duplicate_resolver", string(policy))
	defer span.End()

	report := DuplicateReport{Policy: policy, Results: make([]DuplicateResolution, 0, len(barcodes))}
	for _, barcode := range distinctNonEmpty(barcodes) {
		res := r.resolveOne(ctx, policy, barcode, plan)
		switch res.Outcome {
		case DuplicateResolved:
			report.Resolved++
		case DuplicateSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}
	telemetry.SetAttributes(span, "resolved", report.Resolved, "skipped", report.Skipped, "failed", report.Failed)
	return report
}

func (r *DuplicateResolver) resolveOne(ctx context.Context, policy labeling.DuplicatePolicy, barcode string, plan resolvePlan) (res DuplicateResolution) {
	res.Barcode = barcode
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Duplicate resolution panicked", zap.String("barcode", barcode), zap.Any("panic", p), zap.Stack("stack"))
			res.Outcome, res.Code, res.Message = DuplicateFailed, shared.CodeUnexpected, fmt.Sprintf("unexpected failure: %v", p)
			res.Locked = nil
		}
	}()

	records, err := r.labelRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		return r.failed(ctx, policy, res, err)
	}
	targets, err := plan(barcode, records)
	if err != nil {
		r.logger.Warn("Duplicate barcode skipped",
			zap.String("barcode", barcode),
			zap.String("policy", string(policy)),
			zap.String("reason", err.Error()),
		)
		res.Outcome, res.Code, res.Message = DuplicateSkipped, shared.ErrorCode(err), err.Error()
		return res
	}

	customers := make([]string, 0, len(targets))
	for _, t := range targets {
		customers = append(customers, t.Customer)
	}
	err = r.lease.WithTemporarilyEnabled(ctx, customers, func(ctx context.Context) error {
		return r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			for _, t := range targets {
				if err := repos.LabelRepo().Save(ctx, t); err != nil {
					return fmt.Errorf("lock label %s: %w", t.Name, err)
				}
			}
			return nil
		})
	})
	if err != nil {
		return r.failed(ctx, policy, res, err)
	}

	for _, t := range targets {
		res.Locked = append(res.Locked, t.Name)
	}
	res.Outcome = DuplicateResolved
	r.logger.Info("Duplicate barcode resolved",
		zap.String("barcode", barcode),
		zap.String("policy", string(policy)),
		zap.Strings("locked", res.Locked),
	)
	return res
}

func (r *DuplicateResolver) failed(ctx context.Context, policy labeling.DuplicatePolicy, res DuplicateResolution, err error) DuplicateResolution {
	r.logger.Error("Duplicate resolution failed", zap.String("barcode", res.Barcode), zap.Error(err))
	r.errorLog.LogError(ctx, shared.ErrorEntry{
		Title:         "Duplicate label resolution failed",
		Message:       err.Error(),
		ReferenceType: "Sequencing Label",
		Fields:        map[string]string{"barcode": res.Barcode, "policy": string(policy)},
	})
	res.Outcome, res.Code, res.Message = DuplicateFailed, shared.ErrorCode(err), err.Error()
	return res
}

// Inspect classifies duplicated barcodes without writing anything. With no
// barcodes given it scans for every barcode carried by more than one record.
func (r *DuplicateResolver) Inspect(ctx context.Context, barcodes []string, limit int) ([]DuplicateInspection, error) {
	if len(barcodes) == 0 {
		found, err := r.labelRepo.FindDuplicatedBarcodes(ctx, limit)
		if err != nil {
			return nil, err
		}
		barcodes = found
	}
	out := make([]DuplicateInspection, 0, len(barcodes))
	for _, barcode := range distinctNonEmpty(barcodes) {
		records, err := r.labelRepo.FindByBarcode(ctx, barcode)
		if err != nil {
			return nil, fmt.Errorf("load labels for barcode %s: %w", barcode, err)
		}
		out = append(out, toInspection(labeling.AssessDuplicate(barcode, records)))
	}
	return out, nil
}

// DeleteDuplicate permanently removes one label record after confirming that
// another record with the exact same barcode still exists.
func (r *DuplicateResolver) DeleteDuplicate(ctx context.Context, labelName string) error {
	err := r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		target, err := repos.LabelRepo().FindByName(ctx, labelName)
		if err != nil {
			return err
		}
		siblings, err := repos.LabelRepo().FindByBarcode(ctx, target.Barcode)
		if err != nil {
			return err
		}
		if err := labeling.ConfirmDeletable(target, siblings); err != nil {
			return err
		}
		return repos.LabelRepo().Delete(ctx, target.Name)
	})
	if err != nil {
		r.logger.Warn("Duplicate label not deleted", zap.String("label", labelName), zap.Error(err))
		return err
	}
	r.logger.Info("Duplicate label deleted", zap.String("label", labelName))
	return nil
}
