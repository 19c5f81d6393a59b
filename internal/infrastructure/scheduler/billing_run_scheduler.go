package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/propertyflow/backend/internal/application/billing"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/infrastructure/config"
	"github.com/propertyflow/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// PeriodRunner bills every tuple for a period
type PeriodRunner interface {
	RunPeriod(ctx context.Context, period billing.Period) (*appbilling.RunResult, error)
}

// BillingRunSchedulerConfig holds the monthly billing run schedule
type BillingRunSchedulerConfig struct {
	Enabled bool

	// RunDay is the day of month (1-28) the run for that month starts
	RunDay int

	// RunHour is the hour (0-23) the run starts
	RunHour int

	Location *time.Location

	// RunTimeout is the maximum time for one run
	RunTimeout time.Duration
}

// NewBillingRunSchedulerConfig builds the scheduler configuration from application config
func NewBillingRunSchedulerConfig(cfg config.SchedulerConfig) (BillingRunSchedulerConfig, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return BillingRunSchedulerConfig{}, fmt.Errorf("invalid scheduler timezone: %w", err)
	}
	return BillingRunSchedulerConfig{
		Enabled:    cfg.Enabled,
		RunDay:     cfg.RunDay,
		RunHour:    cfg.RunHour,
		Location:   loc,
		RunTimeout: cfg.RunTimeout,
	}, nil
}

// BillingRunScheduler starts the billing run for the current month once a month
// and serialises scheduled and manually triggered runs
type BillingRunScheduler struct {
	runner PeriodRunner
	logger *zap.Logger
	config BillingRunSchedulerConfig
	now    func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	runMu      sync.Mutex
	lastMu     sync.RWMutex
	lastResult *appbilling.RunResult
}

// NewBillingRunScheduler creates a new billing run scheduler
func NewBillingRunScheduler(runner PeriodRunner, logger *zap.Logger, config BillingRunSchedulerConfig) *BillingRunScheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.RunDay < 1 {
		config.RunDay = 1
	}
	return &BillingRunScheduler{
		runner: runner,
		logger: logger,
		config: config,
		now:    time.Now,
	}
}

// Start starts the monthly loop. It is a no-op when disabled or already started.
func (s *BillingRunScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing run scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runMonthly(ctx)

	s.logger.Info("Billing run scheduler started",
		zap.Int("run_day", s.config.RunDay),
		zap.Int("run_hour", s.config.RunHour),
		zap.String("timezone", s.config.Location.String()),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight run until ctx is done
func (s *BillingRunScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing run scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing run scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the monthly loop is active
func (s *BillingRunScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// NextRunAfter returns the first scheduled run strictly after t
func (s *BillingRunScheduler) NextRunAfter(t time.Time) time.Time {
	local := t.In(s.config.Location)
	next := time.Date(local.Year(), local.Month(), s.config.RunDay, s.config.RunHour, 0, 0, 0, s.config.Location)
	if !next.After(local) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}

// Trigger runs the billing run for period now. It returns appbilling.ErrRunInProgress
// instead of waiting when another run holds the lock.
func (s *BillingRunScheduler) Trigger(ctx context.Context, period billing.Period) (*appbilling.RunResult, error) {
	if !s.runMu.TryLock() {
		return nil, appbilling.ErrRunInProgress
	}
	defer s.runMu.Unlock()

	ctx = logger.WithRunID(ctx, uuid.NewString())
	result, err := s.runner.RunPeriod(ctx, period)
	if result != nil {
		s.lastMu.Lock()
		s.lastResult = result
		s.lastMu.Unlock()
	}
	return result, err
}

// LastResult returns the result of the most recent run, or nil
func (s *BillingRunScheduler) LastResult() *appbilling.RunResult {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.lastResult
}

func (s *BillingRunScheduler) runMonthly(ctx context.Context) {
	defer s.wg.Done()

	for {
		next := s.NextRunAfter(s.now())
		delay := time.Until(next)

		s.logger.Info("Monthly billing run scheduled",
			zap.Time("next_run", next),
			zap.Duration("delay", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Debug("Billing run loop stopping")
			return
		case <-timer.C:
			s.execute(ctx, billing.PeriodOf(next))
		}
	}
}

func (s *BillingRunScheduler) execute(ctx context.Context, period billing.Period) {
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	result, err := s.Trigger(ctx, period)
	switch {
	case errors.Is(err, appbilling.ErrRunInProgress):
		s.logger.Warn("Skipping scheduled billing run, another run is in progress",
			zap.String("period", period.Key()))
	case err != nil:
		s.logger.Error("Scheduled billing run failed",
			zap.String("period", period.Key()),
			zap.Error(err))
	default:
		s.logger.Info("Scheduled billing run finished",
			zap.String("period", period.Key()),
			zap.Int("billed", result.Billed),
			zap.Int("failed", result.Failed))
	}
}
