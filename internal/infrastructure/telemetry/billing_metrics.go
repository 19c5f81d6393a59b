package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/propertyflow/backend/internal/domain/billing"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// TupleOutcome labels how one (party, node, role) tuple ended in a billing run
type TupleOutcome string

const (
	TupleBilled     TupleOutcome = "billed"
	TupleEmpty      TupleOutcome = "empty"
	TupleInProgress TupleOutcome = "in_progress"
	TupleDuplicate  TupleOutcome = "duplicate"
	TupleFailed     TupleOutcome = "failed"
)

// RunOutcome labels how a whole billing run ended
type RunOutcome string

const (
	RunCompleted   RunOutcome = "completed"
	RunInterrupted RunOutcome = "interrupted"
	RunFailed      RunOutcome = "failed"
)

// BillingMetrics records the business counters of billing runs
type BillingMetrics struct {
	runsTotal         *Counter
	runDuration       *Histogram
	tuplesTotal       *Counter
	invoicesIssued    *Counter
	chargesTotal      *Counter
	chargeAmountTotal *FloatCounter
	skippedRecords    *Counter
}

// NewBillingMetrics creates the billing instruments on meter
func NewBillingMetrics(meter metric.Meter) (*BillingMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	bm := &BillingMetrics{}
	var err error

	if bm.runsTotal, err = NewCounter(meter,
		"billing_runs_total", "Billing runs by outcome", "{runs}"); err != nil {
		return nil, err
	}
	if bm.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "billing_run_duration_seconds",
		Description: "Duration of billing runs",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.tuplesTotal, err = NewCounter(meter,
		"billing_tuples_total", "Billable tuples processed by outcome", "{tuples}"); err != nil {
		return nil, err
	}
	if bm.invoicesIssued, err = NewCounter(meter,
		"billing_invoices_issued_total", "Invoices issued by billing runs", "{invoices}"); err != nil {
		return nil, err
	}
	if bm.chargesTotal, err = NewCounter(meter,
		"billing_charges_total", "Invoiced charges by kind", "{charges}"); err != nil {
		return nil, err
	}
	if bm.chargeAmountTotal, err = NewFloatCounter(meter,
		"billing_charge_amount_total", "Invoiced amount by currency", "{amount}"); err != nil {
		return nil, err
	}
	if bm.skippedRecords, err = NewCounter(meter,
		"billing_skipped_records_total", "Malformed records left out of a calculation", "{records}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// NewNopBillingMetrics returns metrics that record nothing
func NewNopBillingMetrics() *BillingMetrics {
	bm, err := NewBillingMetrics(noop.NewMeterProvider().Meter("billing"))
	if err != nil {
		panic(err)
	}
	return bm
}

// RecordRun records a finished run and its duration
func (bm *BillingMetrics) RecordRun(ctx context.Context, outcome RunOutcome, d time.Duration) {
	bm.runsTotal.Inc(ctx, AttrOutcome.String(string(outcome)))
	bm.runDuration.RecordDuration(ctx, d, AttrOutcome.String(string(outcome)))
}

// RecordTuple records the outcome of one tuple
func (bm *BillingMetrics) RecordTuple(ctx context.Context, role billing.Role, outcome TupleOutcome) {
	bm.tuplesTotal.Inc(ctx, AttrRole.String(role.String()), AttrOutcome.String(string(outcome)))
}

// RecordInvoice records an issued invoice with its charges per kind and amount per currency
func (bm *BillingMetrics) RecordInvoice(ctx context.Context, role billing.Role, charges []billing.Charge) {
	bm.invoicesIssued.Inc(ctx, AttrRole.String(role.String()))
	for _, c := range charges {
		bm.chargesTotal.Inc(ctx, AttrKind.String(c.Kind.String()))
		amount, _ := c.Price().Float64()
		bm.chargeAmountTotal.Add(ctx, amount, AttrCurrency.String(c.Currency.Code))
	}
}

// RecordSkipped records malformed records reported by a calculation
func (bm *BillingMetrics) RecordSkipped(ctx context.Context, skipped []billing.Skip) {
	for _, s := range skipped {
		bm.skippedRecords.Inc(ctx, AttrKind.String(s.Kind.String()))
	}
}
