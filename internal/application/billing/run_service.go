package billing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/propertyflow/backend/internal/infrastructure/logger"
	"github.com/propertyflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrRunInProgress is returned when a billing run is requested while another is executing
var ErrRunInProgress = shared.NewDomainError("RUN_IN_PROGRESS", "A billing run is already in progress")

// ChargeCalculator computes the charges of a single billing context
type ChargeCalculator interface {
	Calculate(ctx context.Context, bc billing.BillingContext) (billing.Result, error)
	ResolveDefaultCurrency(ctx context.Context) (valueobject.Currency, error)
}

// InvoiceAssembler turns accepted charges into a persisted invoice.
// It must reject charges that collide with already billed ones with
// billing.ErrChargeAlreadyBilled.
type InvoiceAssembler interface {
	CreateIssued(ctx context.Context, bc billing.BillingContext, charges []billing.Charge) (*billing.Invoice, error)
}

// RunServiceConfig contains configuration for RunService
type RunServiceConfig struct {
	Workers int
	// ClaimTTL bounds how long a tuple stays claimed by a run
	ClaimTTL time.Duration
	// Metrics records run counters; nil records nothing
	Metrics *telemetry.BillingMetrics
}

// DefaultRunServiceConfig returns default configuration
func DefaultRunServiceConfig() RunServiceConfig {
	return RunServiceConfig{
		Workers:  4,
		ClaimTTL: time.Hour,
	}
}

// RunService bills every active tenancy and ownership for a period
type RunService struct {
	calculator ChargeCalculator
	parties    billing.BillablePartyRepository
	assembler  InvoiceAssembler
	claims     shared.IdempotencyStore
	logger     *zap.Logger
	metrics    *telemetry.BillingMetrics

	workers  int
	claimTTL time.Duration
}

// NewRunService creates a new RunService. claims may be nil to disable tuple claims.
func NewRunService(
	calculator ChargeCalculator,
	parties billing.BillablePartyRepository,
	assembler InvoiceAssembler,
	claims shared.IdempotencyStore,
	logger *zap.Logger,
	config RunServiceConfig,
) *RunService {
	defaults := DefaultRunServiceConfig()
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	if config.ClaimTTL <= 0 {
		config.ClaimTTL = defaults.ClaimTTL
	}
	if config.Metrics == nil {
		config.Metrics = telemetry.NewNopBillingMetrics()
	}

	return &RunService{
		calculator: calculator,
		parties:    parties,
		assembler:  assembler,
		claims:     claims,
		logger:     logger,
		metrics:    config.Metrics,
		workers:    config.Workers,
		claimTTL:   config.ClaimTTL,
	}
}

// RunPeriod computes and persists the charges of every billable tuple for the period.
// Tuple failures are collected in the result and do not stop the run.
func (s *RunService) RunPeriod(ctx context.Context, period billing.Period) (*RunResult, error) {
	startedAt := time.Now().UTC()

	ctx, span := telemetry.StartServiceSpan(ctx, "billing_run", "run_period",
		telemetry.AttrPeriod.String(period.Key()))
	defer span.End()
	log := logger.For(ctx, s.logger)

	log.Info("Starting billing run", zap.String("period", period.Key()))

	currency, err := s.calculator.ResolveDefaultCurrency(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordRun(ctx, telemetry.RunFailed, time.Since(startedAt))
		return nil, err
	}

	parties, err := s.parties.ListActive(ctx)
	if err != nil {
		log.Error("Failed to list billable parties", zap.Error(err))
		err = shared.WrapDomainError("FETCH_FAILED", "Failed to list billable parties", err)
		telemetry.RecordError(span, err)
		s.metrics.RecordRun(ctx, telemetry.RunFailed, time.Since(startedAt))
		return nil, err
	}

	result := &RunResult{
		Period:     period,
		StartedAt:  startedAt,
		Total:      len(parties),
		InvoiceIDs: make([]uuid.UUID, 0),
		Errors:     make([]RunError, 0),
	}
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.workers)

	for _, party := range parties {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome, invoice, skipped, err := s.billTuple(ctx, party, period, currency)
			s.metrics.RecordTuple(ctx, party.Role, outcome)

			mu.Lock()
			defer mu.Unlock()
			result.SkippedRecords += skipped
			switch outcome {
			case telemetry.TupleBilled:
				result.Billed++
				result.InvoiceIDs = append(result.InvoiceIDs, invoice.ID)
			case telemetry.TupleEmpty:
				result.Empty++
			case telemetry.TupleInProgress:
				result.InProgress++
			case telemetry.TupleDuplicate:
				result.Duplicates++
			case telemetry.TupleFailed:
				result.Failed++
				result.Errors = append(result.Errors, RunError{
					PartyID:        party.PartyID,
					PropertyNodeID: party.PropertyNodeID,
					Role:           party.Role,
					Error:          err.Error(),
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	result.Duration = time.Since(startedAt)
	span.SetAttributes(
		attribute.Int("billing.tuples", result.Total),
		attribute.Int("billing.billed", result.Billed),
		attribute.Int("billing.failed", result.Failed),
	)
	if err := ctx.Err(); err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordRun(ctx, telemetry.RunInterrupted, result.Duration)
		log.Warn("Billing run interrupted",
			zap.String("period", period.Key()),
			zap.Error(err))
		return result, err
	}

	log.Info("Billing run completed",
		zap.String("period", period.Key()),
		zap.Int("total", result.Total),
		zap.Int("billed", result.Billed),
		zap.Int("empty", result.Empty),
		zap.Int("in_progress", result.InProgress),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("failed", result.Failed),
		zap.Int("skipped_records", result.SkippedRecords),
		zap.Duration("duration", result.Duration))
	s.metrics.RecordRun(ctx, telemetry.RunCompleted, result.Duration)

	return result, nil
}

func (s *RunService) billTuple(ctx context.Context, party billing.BillableParty, period billing.Period, currency valueobject.Currency) (telemetry.TupleOutcome, *billing.Invoice, int, error) {
	log := logger.For(ctx, s.logger)
	fields := []zap.Field{
		zap.String("party_id", party.PartyID.String()),
		zap.String("property_node_id", party.PropertyNodeID.String()),
		zap.String("role", party.Role.String()),
		zap.String("period", period.Key()),
	}

	bc, err := billing.NewBillingContext(party.PartyID, party.PropertyNodeID, period, party.Role, currency)
	if err != nil {
		log.Warn("Invalid billable party", append(fields, zap.Error(err))...)
		return telemetry.TupleFailed, nil, 0, err
	}

	key := party.Key(period)
	if s.claims != nil {
		claimed, err := s.claims.Claim(ctx, key, s.claimTTL)
		if err != nil {
			log.Warn("Failed to claim billing tuple", append(fields, zap.Error(err))...)
			return telemetry.TupleFailed, nil, 0, err
		}
		if !claimed {
			log.Debug("Billing tuple claimed by another run", fields...)
			return telemetry.TupleInProgress, nil, 0, nil
		}
	}

	result, err := s.calculator.Calculate(ctx, bc)
	if err != nil {
		s.release(ctx, key)
		log.Warn("Failed to calculate charges", append(fields, zap.Error(err))...)
		return telemetry.TupleFailed, nil, 0, err
	}
	skipped := len(result.Skipped)
	s.metrics.RecordSkipped(ctx, result.Skipped)

	if len(result.Charges) == 0 {
		s.release(ctx, key)
		return telemetry.TupleEmpty, nil, skipped, nil
	}

	invoice, err := s.assembler.CreateIssued(ctx, bc, result.Charges)
	if err != nil {
		s.release(ctx, key)
		if errors.Is(err, billing.ErrChargeAlreadyBilled) {
			log.Warn("Charges already billed by a concurrent run", fields...)
			return telemetry.TupleDuplicate, nil, skipped, nil
		}
		log.Error("Failed to persist invoice", append(fields, zap.Error(err))...)
		return telemetry.TupleFailed, nil, skipped, err
	}

	s.metrics.RecordInvoice(ctx, party.Role, result.Charges)
	log.Info("Invoice issued",
		append(fields,
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int("items", len(result.Charges)))...)

	return telemetry.TupleBilled, invoice, skipped, nil
}

func (s *RunService) release(ctx context.Context, key string) {
	if s.claims == nil {
		return
	}
	if err := s.claims.Release(ctx, key); err != nil {
		s.logger.Warn("Failed to release billing tuple claim", zap.String("key", key), zap.Error(err))
	}
}

// RunResult contains the result of a billing run
type RunResult struct {
	Period         billing.Period `json:"period"`
	StartedAt      time.Time      `json:"started_at"`
	Duration       time.Duration  `json:"duration"`
	Total          int            `json:"total"`
	Billed         int            `json:"billed"`
	Empty          int            `json:"empty"`
	InProgress     int            `json:"in_progress"`
	Duplicates     int            `json:"duplicates"`
	Failed         int            `json:"failed"`
	SkippedRecords int            `json:"skipped_records"`
	InvoiceIDs     []uuid.UUID    `json:"invoice_ids"`
	Errors         []RunError     `json:"errors,omitempty"`
}

// RunError contains error information for a failed tuple
type RunError struct {
	PartyID        uuid.UUID    `json:"party_id"`
	PropertyNodeID uuid.UUID    `json:"property_node_id"`
	Role           billing.Role `json:"role"`
	Error          string       `json:"error"`
}
