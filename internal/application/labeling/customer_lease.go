package labeling

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/erp/labtrack/internal/domain/partner"
	"go.uber.org/zap"
)

// CustomerLease lifts the disabled flag of customers for the duration of a
// callback. Labels linked to a disabled customer fail link validation on save,
// so every customer enabled here is disabled again on all exit paths.
//
// Overlapping leases on the same customer are counted: the first one enables
// it and the last one to finish disables it again. The count lives in the
// process, so one CustomerLease must be shared by every service that writes
// labels, and only one instance may run label batches for a customer at a
// time. A second instance would see the customer enabled, skip it, and could
// find it disabled again halfway through its batch.
type CustomerLease struct {
	customerRepo partner.CustomerRepository
	logger       *zap.Logger

	mu   sync.Mutex
	held map[string]int
}

// NewCustomerLease creates a new CustomerLease
func NewCustomerLease(customerRepo partner.CustomerRepository, logger *zap.Logger) *CustomerLease {
	return &CustomerLease{customerRepo: customerRepo, logger: logger, held: make(map[string]int)}
}

// WithTemporarilyEnabled enables every disabled customer among names, runs fn
// and restores the flag afterwards, even if fn fails or panics. Restore errors
// are joined into the returned error.
func (l *CustomerLease) WithTemporarilyEnabled(ctx context.Context, names []string, fn func(ctx context.Context) error) (err error) {
	enabled, err := l.enable(ctx, names)
	defer func() {
		// restore must not be skipped because the caller's context was cancelled
		if restoreErr := l.restore(context.WithoutCancel(ctx), enabled); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
	}()
	if err != nil {
		return err
	}
	return fn(ctx)
}

// enable returns the customers this lease holds, also when it fails midway.
// Customers already held by a running lease are joined without a write.
func (l *CustomerLease) enable(ctx context.Context, names []string) ([]string, error) {
	distinct := distinctNonEmpty(names)
	if len(distinct) == 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var enabled []string
	var load []string
	for _, name := range distinct {
		if l.held[name] > 0 {
			l.held[name]++
			enabled = append(enabled, name)
			continue
		}
		load = append(load, name)
	}
	if len(load) == 0 {
		return enabled, nil
	}
	customers, err := l.customerRepo.FindByNames(ctx, load)
	if err != nil {
		return enabled, fmt.Errorf("load customers: %w", err)
	}

	for _, c := range customers {
		if !c.Disabled {
			continue
		}
		if err := l.customerRepo.SetDisabled(ctx, c.Name, false); err != nil {
			return enabled, fmt.Errorf("enable customer %s: %w", c.Name, err)
		}
		l.held[c.Name] = 1
		enabled = append(enabled, c.Name)
		l.logger.Info("Temporarily enabled customer", zap.String("customer", c.Name))
	}
	return enabled, nil
}

// restore releases the held customers and disables those no other lease holds
func (l *CustomerLease) restore(ctx context.Context, enabled []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	for _, name := range enabled {
		l.held[name]--
		if l.held[name] > 0 {
			continue
		}
		delete(l.held, name)
		if err := l.customerRepo.SetDisabled(ctx, name, true); err != nil {
			l.logger.Error("Failed to disable customer again",
				zap.String("customer", name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("disable customer %s: %w", name, err))
			continue
		}
		l.logger.Info("Disabled customer again", zap.String("customer", name))
	}
	return errors.Join(errs...)
}

func distinctNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
