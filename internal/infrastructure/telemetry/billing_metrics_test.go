package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *BillingMetrics) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := NewBillingMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return reader, bm
}

// sumsBy collects a counter's data points keyed by the value of one attribute
func sumsBy(t *testing.T, reader *sdkmetric.ManualReader, name string, key attribute.Key) map[string]float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value(key)
					out[v.Emit()] += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value(key)
					out[v.Emit()] += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					v, _ := dp.Attributes.Value(key)
					out[v.Emit()] += float64(dp.Count)
				}
			}
		}
	}
	return out
}

func TestNewBillingMetrics(t *testing.T) {
	t.Run("nil meter", func(t *testing.T) {
		bm, err := NewBillingMetrics(nil)
		assert.ErrorIs(t, err, ErrMeterNil)
		assert.Nil(t, bm)
	})

	t.Run("nop metrics accept records", func(t *testing.T) {
		bm := NewNopBillingMetrics()
		ctx := context.Background()
		bm.RecordTuple(ctx, billing.RoleTenant, TupleBilled)
		bm.RecordRun(ctx, RunCompleted, time.Second)
	})
}

func TestBillingMetrics_Record(t *testing.T) {
	ctx := context.Background()
	kes := valueobject.Currency{Code: "KES"}
	serviceID := uuid.New()

	t.Run("tuples by outcome", func(t *testing.T) {
		reader, bm := newTestMeter(t)
		bm.RecordTuple(ctx, billing.RoleTenant, TupleBilled)
		bm.RecordTuple(ctx, billing.RoleOwner, TupleBilled)
		bm.RecordTuple(ctx, billing.RoleOwner, TupleFailed)
		bm.RecordTuple(ctx, billing.RoleTenant, TupleDuplicate)

		assert.Equal(t, map[string]float64{"billed": 2, "failed": 1, "duplicate": 1},
			sumsBy(t, reader, "billing_tuples_total", AttrOutcome))
		assert.Equal(t, map[string]float64{"tenant": 2, "owner": 2},
			sumsBy(t, reader, "billing_tuples_total", AttrRole))
	})

	t.Run("invoice charges by kind and amount by currency", func(t *testing.T) {
		reader, bm := newTestMeter(t)
		bm.RecordInvoice(ctx, billing.RoleOwner, []billing.Charge{
			{Kind: billing.ChargeKindServiceCharge, UnitAmount: decimal.NewFromInt(2000), Quantity: decimal.NewFromInt(1), Currency: kes},
			{Kind: billing.ChargeKindFixed, UnitAmount: decimal.NewFromInt(300), Quantity: decimal.NewFromInt(3), Currency: kes, ServiceRef: &serviceID},
		})

		assert.Equal(t, map[string]float64{"owner": 1}, sumsBy(t, reader, "billing_invoices_issued_total", AttrRole))
		assert.Equal(t, map[string]float64{"SERVICE_CHARGE": 1, "FIXED": 1}, sumsBy(t, reader, "billing_charges_total", AttrKind))
		assert.Equal(t, map[string]float64{"KES": 2900}, sumsBy(t, reader, "billing_charge_amount_total", AttrCurrency))
	})

	t.Run("skipped records and runs", func(t *testing.T) {
		reader, bm := newTestMeter(t)
		bm.RecordSkipped(ctx, []billing.Skip{
			{Kind: billing.ChargeKindInstallment, Ref: uuid.New(), Reason: "missing due date"},
			{Kind: billing.ChargeKindFixed, Ref: serviceID, Reason: "unknown frequency"},
		})
		bm.RecordRun(ctx, RunCompleted, 3*time.Second)
		bm.RecordRun(ctx, RunInterrupted, time.Second)

		assert.Equal(t, map[string]float64{"INSTALLMENT": 1, "FIXED": 1},
			sumsBy(t, reader, "billing_skipped_records_total", AttrKind))
		assert.Equal(t, map[string]float64{"completed": 1, "interrupted": 1},
			sumsBy(t, reader, "billing_runs_total", AttrOutcome))
		assert.Equal(t, map[string]float64{"completed": 1, "interrupted": 1},
			sumsBy(t, reader, "billing_run_duration_seconds", AttrOutcome))
	})
}
