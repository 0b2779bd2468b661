package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/labtrack/internal/domain/partner"
	"github.com/erp/labtrack/internal/domain/shared"
	"github.com/erp/labtrack/internal/domain/trade"
	"github.com/erp/labtrack/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sweep names used for locks and metrics
const (
	SweepOrderCompletion    = "order_completion"
	SweepDeliverySubmission = "delivery_submission"
)

// SweepStatus is the overall state of one sweep run
type SweepStatus string

const (
	SweepCompleted     SweepStatus = "completed"
	SweepSkippedLocked SweepStatus = "skipped_locked"
	SweepFailed        SweepStatus = "failed"
)

// OrderOutcome is what happened to one candidate order
type OrderOutcome string

const (
	OrderDeliveryNoteCreated OrderOutcome = "created"
	OrderIncomplete          OrderOutcome = "incomplete"
	OrderInvalid             OrderOutcome = "invalid"
	OrderCustomerDisabled    OrderOutcome = "customer_disabled"
	OrderAlreadyDelivered    OrderOutcome = "already_delivered"
	OrderFailed              OrderOutcome = "failed"
)

// CompletionConfig holds the orchestrator settings
type CompletionConfig struct {
	ProductType string
	BatchLimit  int
	LockTTL     time.Duration
}

// CompletionSweepRequest overrides the configured product type or page size
type CompletionSweepRequest struct {
	ProductType string `json:"product_type,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// OrderResult is the per-order line of a completion sweep report
type OrderResult struct {
	SalesOrder   string       `json:"sales_order"`
	Outcome      OrderOutcome `json:"outcome"`
	DeliveryNote string       `json:"delivery_note,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// CompletionSweepReport aggregates one completion sweep
type CompletionSweepReport struct {
	RunID       string        `json:"run_id"`
	Status      SweepStatus   `json:"status"`
	ProductType string        `json:"product_type"`
	Candidates  int           `json:"candidates"`
	Created     int           `json:"created"`
	Incomplete  int           `json:"incomplete"`
	Skipped     int           `json:"skipped"`
	Failed      int           `json:"failed"`
	Message     string        `json:"message,omitempty"`
	Orders      []OrderResult `json:"orders"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

func (r *CompletionSweepReport) add(res OrderResult) {
	switch res.Outcome {
	case OrderDeliveryNoteCreated:
		r.Created++
	case OrderIncomplete:
		r.Incomplete++
	case OrderFailed:
		r.Failed++
	default:
		r.Skipped++
	}
	r.Orders = append(r.Orders, res)
}

var errAlreadyDelivered = errors.New("delivery note already exists")

// OrderCompletionService creates draft delivery notes for open orders whose
// samples are all complete. Each order is its own unit of work.
type OrderCompletionService struct {
	orderRepo    trade.SalesOrderRepository
	tracker      *CompletionTracker
	customerRepo partner.CustomerRepository
	validator    SalesOrderValidator
	maker        DeliveryNoteMaker
	series       NamingSeriesProvider
	txScope      TransactionScope
	locker       SweepLocker
	errorLog     shared.ErrorLog
	metrics      SweepMetrics
	cfg          CompletionConfig
	logger       *zap.Logger
}

// NewOrderCompletionService creates a new OrderCompletionService
func NewOrderCompletionService(
	orderRepo trade.SalesOrderRepository,
	tracker *CompletionTracker,
	customerRepo partner.CustomerRepository,
	validator SalesOrderValidator,
	maker DeliveryNoteMaker,
	series NamingSeriesProvider,
	txScope TransactionScope,
	errorLog shared.ErrorLog,
	cfg CompletionConfig,
	logger *zap.Logger,
) *OrderCompletionService {
	return &OrderCompletionService{
		orderRepo:    orderRepo,
		tracker:      tracker,
		customerRepo: customerRepo,
		validator:    validator,
		maker:        maker,
		series:       series,
		txScope:      txScope,
		errorLog:     errorLog,
		metrics:      noopSweepMetrics{},
		cfg:          cfg,
		logger:       logger,
	}
}

// SetLocker sets the sweep lock (optional)
func (s *OrderCompletionService) SetLocker(l SweepLocker) {
	s.locker = l
}

// SetMetrics sets the metrics recorder (optional)
func (s *OrderCompletionService) SetMetrics(m SweepMetrics) {
	if m != nil {
		s.metrics = m
	}
}

// Sweep processes every candidate order once, reading them in pages of the
// batch limit. It never returns an error;
// failures are reported per order and in the report status.
func (s *OrderCompletionService) Sweep(ctx context.Context, req CompletionSweepRequest) CompletionSweepReport {
	report := CompletionSweepReport{
		RunID:       uuid.NewString(),
		Status:      SweepCompleted,
		ProductType: req.ProductType,
		Orders:      make([]OrderResult, 0),
		StartedAt:   time.Now(),
	}
	if report.ProductType == "" {
		report.ProductType = s.cfg.ProductType
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.BatchLimit
	}

	ctx, span := telemetry.StartServiceSpan(ctx, SweepOrderCompletion, "sweep",
		telemetry.WithAttribute("sweep.run_id", report.RunID),
		telemetry.WithAttribute("sales_order.product_type", report.ProductType),
	)
	defer span.End()

	log := s.logger.With(zap.String("sweep", SweepOrderCompletion), zap.String("run_id", report.RunID))

	acquired, err := runLocked(ctx, s.locker, "sweep:"+SweepOrderCompletion, s.cfg.LockTTL, func() {
		filter := trade.OpenOrderFilter{ProductType: report.ProductType, Limit: limit}
		for {
			candidates, err := s.orderRepo.FindCompletionCandidates(ctx, filter)
			if err != nil {
				log.Error("Failed to load completion candidates", zap.Error(err))
				report.Status = SweepFailed
				report.Message = err.Error()
				return
			}
			report.Candidates += len(candidates)
			for i := range candidates {
				if ctx.Err() != nil {
					report.Status = SweepFailed
					report.Message = ctx.Err().Error()
					return
				}
				res := s.processOrder(ctx, log, &candidates[i])
				s.metrics.ObserveSweepUnit(SweepOrderCompletion, string(res.Outcome))
				report.add(res)
			}
			// orders left incomplete or invalid stay candidates, so later
			// pages are reached through the cursor rather than by re-reading
			if limit <= 0 || len(candidates) < limit {
				return
			}
			filter.After = trade.CursorAfterOrder(&candidates[len(candidates)-1])
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

	report.FinishedAt = time.Now()
	telemetry.SetAttributes(span,
		"sweep.candidates", report.Candidates,
		"sweep.created", report.Created,
		"sweep.failed", report.Failed,
	)
	log.Info("Order completion sweep finished",
		zap.String("status", string(report.Status)),
		zap.Int("candidates", report.Candidates),
		zap.Int("created", report.Created),
		zap.Int("incomplete", report.Incomplete),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

func (s *OrderCompletionService) processOrder(ctx context.Context, log *zap.Logger, order *trade.SalesOrder) (res OrderResult) {
	res = OrderResult{SalesOrder: order.Name}
	log = log.With(zap.String("sales_order", order.Name))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Order completion panicked", zap.Any("panic", r), zap.Stack("stack"))
			res.Outcome = OrderFailed
			res.Message = fmt.Sprintf("unexpected failure: %v", r)
			s.escalate(ctx, order.Name, "Order completion failed", res.Message)
		}
	}()

	if err := s.validator.ValidateSalesOrder(ctx, order.Name); err != nil {
		log.Warn("Sales order failed validation", zap.Error(err))
		s.escalate(ctx, order.Name, "Sales order not deliverable", err.Error())
		res.Outcome = OrderInvalid
		res.Message = err.Error()
		return res
	}

	verdict, err := s.tracker.Evaluate(ctx, order.Name)
	if err != nil {
		log.Error("Completion check failed", zap.Error(err))
		s.escalate(ctx, order.Name, "Order completion failed", err.Error())
		res.Outcome = OrderFailed
		res.Message = err.Error()
		return res
	}
	if !verdict.Complete {
		log.Debug("Order not complete yet", zap.String("reason", verdict.Reason))
		res.Outcome = OrderIncomplete
		res.Message = verdict.Reason
		return res
	}

	if order.Customer != "" {
		customer, err := s.customerRepo.FindByName(ctx, order.Customer)
		if err != nil {
			log.Error("Failed to load customer", zap.String("customer", order.Customer), zap.Error(err))
			s.escalate(ctx, order.Name, "Order completion failed", err.Error())
			res.Outcome = OrderFailed
			res.Message = err.Error()
			return res
		}
		if customer.Disabled {
			msg := fmt.Sprintf("Customer %s is disabled, cannot create delivery note for %s", customer.Name, order.Name)
			log.Error("Customer disabled, delivery note not created", zap.String("customer", customer.Name))
			s.escalate(ctx, order.Name, "Customer disabled", msg)
			res.Outcome = OrderCustomerDisabled
			res.Message = msg
			return res
		}
	}

	note, err := s.synthesize(ctx, order)
	if err != nil {
		log.Error("Failed to create delivery note", zap.Error(err), zap.Stack("stack"))
		s.escalate(ctx, order.Name, "Delivery note creation failed", err.Error())
		res.Outcome = OrderFailed
		res.Message = err.Error()
		return res
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		noteRepo := repos.DeliveryNoteRepo()
		exists, err := noteRepo.ExistsForOrder(ctx, order.Name, order.WebOrderID)
		if err != nil {
			return err
		}
		if exists {
			return errAlreadyDelivered
		}
		name, err := noteRepo.NextName(ctx, note.NamingSeries)
		if err != nil {
			return fmt.Errorf("reserve name in %s: %w", note.NamingSeries, err)
		}
		note.Name = name
		return noteRepo.Create(ctx, note)
	})
	switch {
	case errors.Is(err, errAlreadyDelivered):
		log.Info("Delivery note appeared concurrently, skipping")
		res.Outcome = OrderAlreadyDelivered
		res.Message = err.Error()
	case err != nil:
		log.Error("Failed to insert delivery note", zap.Error(err))
		s.escalate(ctx, order.Name, "Delivery note creation failed", err.Error())
		res.Outcome = OrderFailed
		res.Message = err.Error()
	default:
		log.Info("Draft delivery note created", zap.String("delivery_note", note.Name))
		res.Outcome = OrderDeliveryNoteCreated
		res.DeliveryNote = note.Name
	}
	return res
}

// synthesize derives the draft note and stamps it with the company series
func (s *OrderCompletionService) synthesize(ctx context.Context, order *trade.SalesOrder) (*trade.DeliveryNote, error) {
	note, err := s.maker.MakeDeliveryNote(ctx, order.Name)
	if err != nil {
		return nil, fmt.Errorf("make delivery note from %s: %w", order.Name, err)
	}
	if note.Company == "" {
		note.Company = order.Company
	}
	series, err := s.series.NamingSeries(ctx, DoctypeDeliveryNote, note.Company)
	if err != nil {
		return nil, fmt.Errorf("naming series for %s: %w", note.Company, err)
	}
	now := time.Now()
	note.NamingSeries = series
	note.IgnoreMandatory = true
	note.DocStatus = shared.DocStatusDraft
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.WebOrderID == "" {
		note.WebOrderID = order.WebOrderID
	}
	if note.Customer == "" {
		note.Customer = order.Customer
	}
	if len(note.Samples) == 0 {
		note.Samples = append([]string(nil), order.Samples...)
	}
	return note, nil
}

func (s *OrderCompletionService) escalate(ctx context.Context, order, title, message string) {
	s.errorLog.LogError(ctx, shared.ErrorEntry{
		Title:         title,
		Message:       message,
		ReferenceType: "Sales Order",
		ReferenceName: order,
		Fields:        map[string]string{"sweep": SweepOrderCompletion},
	})
}
