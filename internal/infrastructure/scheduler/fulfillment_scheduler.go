package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/labtrack/internal/application/fulfillment"
	"github.com/erp/labtrack/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionSweeper runs the order completion sweep
type CompletionSweeper interface {
	Sweep(ctx context.Context, req fulfillment.CompletionSweepRequest) fulfillment.CompletionSweepReport
}

// SubmissionSweeper runs the delivery note submission sweep
type SubmissionSweeper interface {
	Sweep(ctx context.Context) fulfillment.SubmissionSweepReport
}

// RunObserver records sweep run durations
type RunObserver interface {
	ObserveSweepRun(sweep, status string, d time.Duration)
}

// FulfillmentSchedulerConfig holds configuration for the fulfillment scheduler
type FulfillmentSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// InitialDelay postpones the first run of both sweeps after start
	InitialDelay time.Duration

	// CompletionInterval is the period of the order completion sweep
	CompletionInterval time.Duration

	// SubmissionInterval is the period of the delivery note submission sweep
	SubmissionInterval time.Duration

	// RunTimeout is the maximum time for one sweep run
	RunTimeout time.Duration
}

// DefaultFulfillmentSchedulerConfig returns default configuration
func DefaultFulfillmentSchedulerConfig() FulfillmentSchedulerConfig {
	return FulfillmentSchedulerConfig{
		Enabled:            true,
		InitialDelay:       time.Minute,
		CompletionInterval: 15 * time.Minute,
		SubmissionInterval: time.Hour,
		RunTimeout:         10 * time.Minute,
	}
}

// Validate checks the intervals
func (c FulfillmentSchedulerConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.CompletionInterval <= 0 || c.SubmissionInterval <= 0 {
		return fmt.Errorf("%w: sweep intervals must be positive", ErrInvalidConfig)
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// FulfillmentScheduler runs the completion and submission sweeps periodically.
// Each sweep has its own goroutine, so a slow completion run never delays
// submissions; the sweep lock guards against other instances.
type FulfillmentScheduler struct {
	completion CompletionSweeper
	submission SubmissionSweeper
	observer   RunObserver
	logger     *zap.Logger
	config     FulfillmentSchedulerConfig

	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewFulfillmentScheduler creates a new fulfillment scheduler
func NewFulfillmentScheduler(
	completion CompletionSweeper,
	submission SubmissionSweeper,
	logger *zap.Logger,
	config FulfillmentSchedulerConfig,
) *FulfillmentScheduler {
	return &FulfillmentScheduler{
		completion: completion,
		submission: submission,
		logger:     logger.Named("scheduler"),
		config:     config,
	}
}

// SetObserver sets the run duration recorder (optional)
func (s *FulfillmentScheduler) SetObserver(o RunObserver) {
	s.observer = o
}

// Start starts both sweep loops
func (s *FulfillmentScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Fulfillment scheduler is disabled")
		return nil
	}
	if err := s.config.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	s.runCtx = ctx
	s.cancel = cancel
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.loop(ctx, fulfillment.SweepOrderCompletion, s.config.CompletionInterval)
	go s.loop(ctx, fulfillment.SweepDeliverySubmission, s.config.SubmissionInterval)

	s.logger.Info("Fulfillment scheduler started",
		zap.Duration("initial_delay", s.config.InitialDelay),
		zap.Duration("completion_interval", s.config.CompletionInterval),
		zap.Duration("submission_interval", s.config.SubmissionInterval),
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running sweeps
func (s *FulfillmentScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Fulfillment scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Fulfillment scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *FulfillmentScheduler) loop(ctx context.Context, sweep string, interval time.Duration) {
	defer s.wg.Done()

	select {
	case <-ctx.Done():
		return
	case <-time.After(s.config.InitialDelay):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.execute(ctx, sweep)
		select {
		case <-ctx.Done():
			s.logger.Debug("Sweep loop stopping", zap.String("sweep", sweep))
			return
		case <-ticker.C:
		}
	}
}

// execute runs one sweep under a fresh correlation id and the run timeout
func (s *FulfillmentScheduler) execute(ctx context.Context, sweep string) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()
	runCtx, log := logger.WithRequestID(runCtx, s.logger, uuid.NewString())
	log = log.With(zap.String("sweep", sweep))

	start := time.Now()
	var status string
	switch sweep {
	case fulfillment.SweepOrderCompletion:
		report := s.completion.Sweep(runCtx, fulfillment.CompletionSweepRequest{})
		status = string(report.Status)
		log.Info("Scheduled sweep finished",
			zap.String("status", status),
			zap.Int("created", report.Created),
			zap.Int("failed", report.Failed),
		)
	case fulfillment.SweepDeliverySubmission:
		report := s.submission.Sweep(runCtx)
		status = string(report.Status)
		log.Info("Scheduled sweep finished",
			zap.String("status", status),
			zap.Int("submitted", report.Submitted),
			zap.Int("escalated", report.Escalated),
			zap.Int("failed", report.Failed),
		)
	}
	if s.observer != nil {
		s.observer.ObserveSweepRun(sweep, status, time.Since(start))
	}
}

// TriggerNow runs one sweep immediately in the background. The run keeps the
// values of ctx but not its deadline; Stop cancels it like a scheduled run.
func (s *FulfillmentScheduler) TriggerNow(ctx context.Context, sweep string) error {
	if sweep != fulfillment.SweepOrderCompletion && sweep != fulfillment.SweepDeliverySubmission {
		return fmt.Errorf("%w: %s", ErrUnknownSweep, sweep)
	}
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.runCtx, cancel)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate sweep", zap.String("sweep", sweep))
	go func() {
		defer s.wg.Done()
		defer cancel()
		defer stop()
		s.execute(runCtx, sweep)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *FulfillmentScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
