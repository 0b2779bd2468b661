package fulfillment

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erp/labtrack/internal/domain/labeling"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmissionDecision is the gate verdict for one draft note
type SubmissionDecision string

const (
	DecisionSubmitted      SubmissionDecision = "submitted"
	DecisionNotDraft       SubmissionDecision = "not_draft"
	DecisionItemNotAllowed SubmissionDecision = "item_not_allowed"
	DecisionOrderMismatch  SubmissionDecision = "order_mismatch"
	DecisionCoolingDown    SubmissionDecision = "cooling_down"
	DecisionSharedBarcode  SubmissionDecision = "shared_barcode"
	DecisionFailed         SubmissionDecision = "failed"
)

// EscalationSharedBarcode is the escalation kind recorded for barcode collisions
const EscalationSharedBarcode = "shared_barcode"

// SubmissionConfig holds the gate settings
type SubmissionConfig struct {
	Cooldown           time.Duration
	AllowedItemCodes   []string
	EscalationTemplate string
	EscalationRole     string
	BatchLimit         int
	LockTTL            time.Duration
}

// SubmissionOutcome is the result of running the gate on one note
type SubmissionOutcome struct {
	DeliveryNote string               `json:"delivery_note"`
	Decision     SubmissionDecision   `json:"decision"`
	SalesOrder   string               `json:"sales_order,omitempty"`
	Message      string               `json:"message,omitempty"`
	Report       *SharedBarcodeReport `json:"shared_barcodes,omitempty"`
}

// SubmissionSweepReport aggregates one gate sweep
type SubmissionSweepReport struct {
	RunID      string              `json:"run_id"`
	Status     SweepStatus         `json:"status"`
	Examined   int                 `json:"examined"`
	Submitted  int                 `json:"submitted"`
	Skipped    int                 `json:"skipped"`
	Escalated  int                 `json:"escalated"`
	Failed     int                 `json:"failed"`
	Message    string              `json:"message,omitempty"`
	Notes      []SubmissionOutcome `json:"notes"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

func (r *SubmissionSweepReport) add(o SubmissionOutcome) {
	switch o.Decision {
	case DecisionSubmitted:
		r.Submitted++
	case DecisionSharedBarcode:
		r.Escalated++
	case DecisionFailed:
		r.Failed++
	default:
		r.Skipped++
	}
	r.Notes = append(r.Notes, o)
}

// DeliverySubmissionGate promotes draft delivery notes to submitted once they
// pass the cooldown, item whitelist, single-order and shared-barcode checks.
type DeliverySubmissionGate struct {
	noteRepo   trade.DeliveryNoteRepository
	sampleRepo labeling.SampleRepository
	txScope    TransactionScope
	notifier   shared.Notifier
	errorLog   shared.ErrorLog
	locker     SweepLocker
	metrics    SweepMetrics
	cfg        SubmissionConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewDeliverySubmissionGate creates a new DeliverySubmissionGate
func NewDeliverySubmissionGate(
	noteRepo trade.DeliveryNoteRepository,
	sampleRepo labeling.SampleRepository,
	txScope TransactionScope,
	notifier shared.Notifier,
	errorLog shared.ErrorLog,
	cfg SubmissionConfig,
	logger *zap.Logger,
) *DeliverySubmissionGate {
	return &DeliverySubmissionGate{
		noteRepo:   noteRepo,
		sampleRepo: sampleRepo,
		txScope:    txScope,
		notifier:   notifier,
		errorLog:   errorLog,
		metrics:    noopSweepMetrics{},
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// SetLocker sets the sweep lock (optional)
func (g *DeliverySubmissionGate) SetLocker(l SweepLocker) {
	g.locker = l
}

// SetMetrics sets the metrics recorder (optional)
func (g *DeliverySubmissionGate) SetMetrics(m SweepMetrics) {
	if m != nil {
		g.metrics = m
	}
}

// SetClock replaces the time source
func (g *DeliverySubmissionGate) SetClock(now func() time.Time) {
	if now != nil {
		g.now = now
	}
}

// Sweep runs the gate over every draft older than the cooldown, reading them
// in pages of the batch limit. Each note is checked and committed on its own;
// the sweep never returns an error.
func (g *DeliverySubmissionGate) Sweep(ctx context.Context) SubmissionSweepReport {
	report := SubmissionSweepReport{
		RunID:     uuid.NewString(),
		Status:    SweepCompleted,
		Notes:     make([]SubmissionOutcome, 0),
		StartedAt: g.now(),
	}

	ctx, span := telemetry.StartServiceSpan(ctx, SweepDeliverySubmission, "sweep",
		telemetry.WithAttribute("sweep.run_id", report.RunID),
	)
	defer span.End()

	log := g.logger.With(zap.String("sweep", SweepDeliverySubmission), zap.String("run_id", report.RunID))

	acquired, err := runLocked(ctx, g.locker, "sweep:"+SweepDeliverySubmission, g.cfg.LockTTL, func() {
		filter := trade.DraftFilter{
			CreatedBefore: g.now().Add(-g.cfg.Cooldown),
			Limit:         g.cfg.BatchLimit,
		}
		for {
			drafts, err := g.noteRepo.FindDrafts(ctx, filter)
			if err != nil {
				log.Error("Failed to load draft delivery notes", zap.Error(err))
				report.Status = SweepFailed
				report.Message = err.Error()
				return
			}
			for _, draft := range drafts {
				if ctx.Err() != nil {
					report.Status = SweepFailed
					report.Message = ctx.Err().Error()
					return
				}
				outcome, err := g.CheckAndSubmit(ctx, draft.Name)
				if err != nil {
					log.Error("Delivery note gate failed", zap.String("delivery_note", draft.Name), zap.Error(err))
					g.escalate(ctx, draft.Name, "Delivery note submission failed", err.Error())
					outcome = SubmissionOutcome{DeliveryNote: draft.Name, Decision: DecisionFailed, Message: err.Error()}
				}
				report.Examined++
				g.metrics.ObserveSweepUnit(SweepDeliverySubmission, string(outcome.Decision))
				report.add(outcome)
			}
			// drafts held for review stay drafts; the cursor moves past them
			if filter.Limit <= 0 || len(drafts) < filter.Limit {
				return
			}
			filter.After = trade.CursorAfterNote(&drafts[len(drafts)-1])
		}
	})
	switch {
	case err != nil:
		log.Error("Failed to acquire sweep lock", zap.Error(err))
		report.Status = SweepFailed
		report.Message = err.Error()
	case !acquired:
		log.Info("Sweep already running elsewhere, skipping")
		report.Status = SweepSkippedLocked
	}

	report.FinishedAt = g.now()
	telemetry.SetAttributes(span,
		"sweep.examined", report.Examined,
		"sweep.submitted", report.Submitted,
		"sweep.escalated", report.Escalated,
	)
	log.Info("Delivery submission sweep finished",
		zap.String("status", string(report.Status)),
		zap.Int("examined", report.Examined),
		zap.Int("submitted", report.Submitted),
		zap.Int("skipped", report.Skipped),
		zap.Int("escalated", report.Escalated),
		zap.Int("failed", report.Failed),
	)
	return report
}

// CheckAndSubmit runs every gate check on one note and submits it when all
// pass. A failed check is a decision, not an error; errors are reserved for
// missing notes and storage failures.
func (g *DeliverySubmissionGate) CheckAndSubmit(ctx context.Context, name string) (outcome SubmissionOutcome, err error) {
	outcome = SubmissionOutcome{DeliveryNote: name}
	log := g.logger.With(zap.String("delivery_note", name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Delivery note gate panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = shared.NewDomainError(shared.CodeUnexpected, fmt.Sprintf("unexpected failure: %v", r))
		}
	}()

	note, err := g.noteRepo.FindByName(ctx, name)
	if err != nil {
		return outcome, err
	}

	if !note.IsDraft() {
		log.Info("Delivery note is no longer a draft, skipping", zap.String("docstatus", note.DocStatus.String()))
		outcome.Decision = DecisionNotDraft
		outcome.Message = fmt.Sprintf("docstatus is %s", note.DocStatus)
		return outcome, nil
	}

	for _, code := range note.ItemCodes() {
		if !slices.Contains(g.cfg.AllowedItemCodes, code) {
			log.Info("Delivery note needs manual review", zap.String("item_code", code))
			outcome.Decision = DecisionItemNotAllowed
			outcome.Message = fmt.Sprintf("item %s requires manual review", code)
			return outcome, nil
		}
	}

	orders := note.OriginatingSalesOrders()
	if len(orders) != 1 {
		msg := fmt.Sprintf("Delivery note %s references %d sales orders, expected exactly one", name, len(orders))
		log.Error("Delivery note has no single originating order", zap.Strings("sales_orders", orders))
		g.escalate(ctx, name, "Delivery note not submitted", msg)
		outcome.Decision = DecisionOrderMismatch
		outcome.Message = msg
		return outcome, nil
	}
	outcome.SalesOrder = orders[0]

	if age := note.Age(g.now()); age <= g.cfg.Cooldown {
		outcome.Decision = DecisionCoolingDown
		outcome.Message = fmt.Sprintf("created %s ago, cooldown is %s", age.Round(time.Minute), g.cfg.Cooldown)
		return outcome, nil
	}

	report, err := g.findSharedBarcodes(ctx, note, orders[0])
	if err != nil {
		return outcome, err
	}
	if report.HasConflicts() {
		g.escalateSharedBarcodes(ctx, log, report)
		outcome.Decision = DecisionSharedBarcode
		outcome.Message = fmt.Sprintf("barcodes shared with other samples: %v", report.Barcodes())
		outcome.Report = &report
		return outcome, nil
	}

	submitted := true
	err = g.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		noteRepo := repos.DeliveryNoteRepo()
		fresh, err := noteRepo.FindByName(ctx, name)
		if err != nil {
			return err
		}
		if !fresh.IsDraft() {
			submitted = false
			return nil
		}
		if err := fresh.Submit(); err != nil {
			return err
		}
		return noteRepo.UpdateDocStatus(ctx, name, fresh.DocStatus)
	})
	if err != nil {
		return outcome, fmt.Errorf("submit delivery note %s: %w", name, err)
	}
	if !submitted {
		log.Info("Delivery note submitted concurrently, skipping")
		outcome.Decision = DecisionNotDraft
		outcome.Message = "submitted concurrently"
		return outcome, nil
	}

	log.Info("Delivery note submitted", zap.String("sales_order", outcome.SalesOrder))
	outcome.Decision = DecisionSubmitted
	return outcome, nil
}

// findSharedBarcodes looks up every barcode on the note across all samples in
// the system. Two samples of the same note sharing a label count too.
func (g *DeliverySubmissionGate) findSharedBarcodes(ctx context.Context, note *trade.DeliveryNote, salesOrder string) (SharedBarcodeReport, error) {
	report := SharedBarcodeReport{DeliveryNote: note.Name, SalesOrder: salesOrder}
	if len(note.Samples) == 0 {
		return report, nil
	}

	states, err := g.sampleRepo.FindLabelStatesForSamples(ctx, note.Samples)
	if err != nil {
		return report, fmt.Errorf("load samples of %s: %w", note.Name, err)
	}

	checked := make(map[string]struct{})
	for _, st := range states {
		if st.Barcode == "" {
			continue
		}
		if _, ok := checked[st.Barcode]; ok {
			continue
		}
		checked[st.Barcode] = struct{}{}

		usages, err := g.sampleRepo.FindUsagesByBarcode(ctx, st.Barcode)
		if err != nil {
			return report, fmt.Errorf("find samples with barcode %s: %w", st.Barcode, err)
		}
		if len(usages) > 1 {
			report.Conflicts = append(report.Conflicts, BarcodeConflict{Barcode: st.Barcode, Usages: usages})
		}
	}
	return report, nil
}

func (g *DeliverySubmissionGate) escalateSharedBarcodes(ctx context.Context, log *zap.Logger, report SharedBarcodeReport) {
	log.Error("Shared barcode found, delivery note not submitted",
		zap.Strings("barcodes", report.Barcodes()),
		zap.Strings("samples", report.SampleNames()),
	)
	g.metrics.ObserveEscalation(EscalationSharedBarcode)
	g.escalate(ctx, report.DeliveryNote, "Shared barcode on delivery note", report.Render())

	notification := report.Notification(g.cfg.EscalationTemplate, g.cfg.EscalationRole)
	if err := g.notifier.SendTemplated(ctx, notification); err != nil {
		log.Error("Failed to send shared barcode notification", zap.Error(err))
		g.escalate(ctx, report.DeliveryNote, "Shared barcode notification failed", err.Error())
	}
}

func (g *DeliverySubmissionGate) escalate(ctx context.Context, note, title, message string) {
	g.errorLog.LogError(ctx, shared.ErrorEntry{
		Title:         title,
		Message:       message,
		ReferenceType: "Delivery Note",
		ReferenceName: note,
		Fields:        map[string]string{"sweep": SweepDeliverySubmission},
	})
}
