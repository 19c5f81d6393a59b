package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// useRecorder installs a recording tracer provider as the global one for the test
func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Enabled: false, ServiceName: "propertyflow"}
	logger := zap.NewNop()

	t.Run("tracer", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, cfg, logger)
		require.NoError(t, err)
		assert.False(t, tp.IsEnabled())
		assert.NotNil(t, tp.Tracer("test"))
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("meter", func(t *testing.T) {
		mp, err := NewMeterProvider(ctx, cfg, time.Minute, logger)
		require.NoError(t, err)
		assert.False(t, mp.IsEnabled())

		bm, err := NewBillingMetrics(mp.Meter("billing"))
		require.NoError(t, err)
		assert.NotNil(t, bm)
		assert.NoError(t, mp.Shutdown(ctx))
	})

	t.Run("logs", func(t *testing.T) {
		lp, err := NewLoggerProvider(ctx, Config{Enabled: true, ServiceName: "propertyflow"}, false, logger)
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.Same(t, logger, lp.Bridge(logger, "propertyflow", zapcore.InfoLevel))
		assert.NoError(t, lp.Shutdown(ctx))
	})
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 1, want: "AlwaysOnSampler"},
		{ratio: 2, want: "AlwaysOnSampler"},
		{ratio: 0, want: "AlwaysOffSampler"},
		{ratio: 0.25, want: "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Contains(t, sampler(tt.ratio).Description(), tt.want)
	}
}

func TestStartServiceSpan(t *testing.T) {
	recorder := useRecorder(t)

	t.Run("names the span after service and method", func(t *testing.T) {
		_, span := StartServiceSpan(context.Background(), "billing_run", "run_period",
			attribute.String("period", "2024-03"))
		span.End()

		spans := recorder.Ended()
		require.NotEmpty(t, spans)
		last := spans[len(spans)-1]
		assert.Equal(t, "billing_run.run_period", last.Name())
		assert.Contains(t, last.Attributes(), attribute.String("period", "2024-03"))
		assert.Equal(t, codes.Unset, last.Status().Code)
	})

	t.Run("record error marks the span", func(t *testing.T) {
		_, span := StartServiceSpan(context.Background(), "charges", "calculate")
		RecordError(span, nil)
		RecordError(span, errors.New("snapshot failed"))
		span.End()

		spans := recorder.Ended()
		last := spans[len(spans)-1]
		assert.Equal(t, codes.Error, last.Status().Code)
		assert.Equal(t, "snapshot failed", last.Status().Description)
		require.Len(t, last.Events(), 1)
	})
}

type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestLoggerProvider_Bridge(t *testing.T) {
	exporter := &memoryExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		logger:   zap.NewNop(),
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.DebugLevel)
	bridged := lp.Bridge(zap.New(core), "propertyflow", zapcore.WarnLevel)

	bridged.Debug("claim taken")
	bridged.Info("run started")
	bridged.With(zap.String("period", "2024-03")).Warn("tuple failed")
	bridged.Error("run failed")

	assert.Equal(t, 4, logs.Len(), "the original core keeps every entry")
	assert.Equal(t, []string{"tuple failed", "run failed"}, exporter.bodies())
}
