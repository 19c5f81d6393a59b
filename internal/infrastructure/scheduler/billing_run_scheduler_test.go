package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	appbilling "github.com/propertyflow/backend/internal/application/billing"
	"github.com/propertyflow/backend/internal/domain/billing"
	"github.com/propertyflow/backend/internal/infrastructure/config"
	"github.com/propertyflow/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPeriodRunner struct {
	mock.Mock
}

func (m *mockPeriodRunner) RunPeriod(ctx context.Context, period billing.Period) (*appbilling.RunResult, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appbilling.RunResult), args.Error(1)
}

var july2024 = billing.Period{Year: 2024, Month: time.July}

func TestBillingRunScheduler_NextRunAfter(t *testing.T) {
	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	s := NewBillingRunScheduler(nil, zap.NewNop(), BillingRunSchedulerConfig{RunDay: 1, RunHour: 2, Location: nairobi})

	tests := []struct {
		name     string
		now      time.Time
		expected time.Time
	}{
		{
			name:     "before this month's run",
			now:      time.Date(2024, 7, 1, 1, 0, 0, 0, nairobi),
			expected: time.Date(2024, 7, 1, 2, 0, 0, 0, nairobi),
		},
		{
			name:     "exactly at run time moves to next month",
			now:      time.Date(2024, 7, 1, 2, 0, 0, 0, nairobi),
			expected: time.Date(2024, 8, 1, 2, 0, 0, 0, nairobi),
		},
		{
			name:     "mid month",
			now:      time.Date(2024, 7, 15, 12, 0, 0, 0, nairobi),
			expected: time.Date(2024, 8, 1, 2, 0, 0, 0, nairobi),
		},
		{
			name:     "december rolls into january",
			now:      time.Date(2024, 12, 31, 23, 0, 0, 0, nairobi),
			expected: time.Date(2025, 1, 1, 2, 0, 0, 0, nairobi),
		},
		{
			name:     "utc instant converted to schedule timezone",
			now:      time.Date(2024, 6, 30, 22, 30, 0, 0, time.UTC),
			expected: time.Date(2024, 7, 1, 2, 0, 0, 0, nairobi),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.expected.Equal(s.NextRunAfter(tt.now)), "got %s", s.NextRunAfter(tt.now))
		})
	}
}

func TestNewBillingRunSchedulerConfig(t *testing.T) {
	cfg, err := NewBillingRunSchedulerConfig(config.SchedulerConfig{
		Enabled: true, RunDay: 5, RunHour: 3, Timezone: "Africa/Nairobi", RunTimeout: time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, "Africa/Nairobi", cfg.Location.String())
	assert.Equal(t, 5, cfg.RunDay)

	_, err = NewBillingRunSchedulerConfig(config.SchedulerConfig{Timezone: "Nowhere/Land"})
	assert.Error(t, err)
}

func TestBillingRunScheduler_Trigger(t *testing.T) {
	t.Run("runs the period with a run id and keeps the result", func(t *testing.T) {
		runner := new(mockPeriodRunner)
		result := &appbilling.RunResult{Period: july2024, Billed: 3}
		runner.On("RunPeriod", mock.MatchedBy(func(ctx context.Context) bool {
			return logger.GetRunID(ctx) != ""
		}), july2024).Return(result, nil)

		s := NewBillingRunScheduler(runner, zap.NewNop(), BillingRunSchedulerConfig{})
		got, err := s.Trigger(context.Background(), july2024)

		require.NoError(t, err)
		assert.Same(t, result, got)
		assert.Same(t, result, s.LastResult())
		runner.AssertExpectations(t)
	})

	t.Run("rejects overlapping runs", func(t *testing.T) {
		runner := new(mockPeriodRunner)
		started := make(chan struct{})
		release := make(chan struct{})
		runner.On("RunPeriod", mock.Anything, july2024).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(&appbilling.RunResult{Period: july2024}, nil).Once()

		s := NewBillingRunScheduler(runner, zap.NewNop(), BillingRunSchedulerConfig{})

		done := make(chan error, 1)
		go func() {
			_, err := s.Trigger(context.Background(), july2024)
			done <- err
		}()
		<-started

		_, err := s.Trigger(context.Background(), july2024)
		assert.ErrorIs(t, err, appbilling.ErrRunInProgress)

		close(release)
		require.NoError(t, <-done)
		runner.AssertExpectations(t)
	})

	t.Run("keeps partial result of a failed run", func(t *testing.T) {
		runner := new(mockPeriodRunner)
		partial := &appbilling.RunResult{Period: july2024, Billed: 1}
		runner.On("RunPeriod", mock.Anything, july2024).Return(partial, context.DeadlineExceeded)

		s := NewBillingRunScheduler(runner, zap.NewNop(), BillingRunSchedulerConfig{})
		_, err := s.Trigger(context.Background(), july2024)

		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Same(t, partial, s.LastResult())
	})
}

func TestBillingRunScheduler_Execute(t *testing.T) {
	runner := new(mockPeriodRunner)
	runner.On("RunPeriod", mock.MatchedBy(func(ctx context.Context) bool {
		_, hasDeadline := ctx.Deadline()
		return hasDeadline
	}), july2024).Return(&appbilling.RunResult{Period: july2024}, nil)

	s := NewBillingRunScheduler(runner, zap.NewNop(), BillingRunSchedulerConfig{RunTimeout: time.Minute})
	s.execute(context.Background(), july2024)

	runner.AssertExpectations(t)
}

func TestBillingRunScheduler_StartStop(t *testing.T) {
	t.Run("disabled scheduler does not start", func(t *testing.T) {
		s := NewBillingRunScheduler(new(mockPeriodRunner), zap.NewNop(), BillingRunSchedulerConfig{Enabled: false})

		require.NoError(t, s.Start(context.Background()))
		assert.False(t, s.IsRunning())
		assert.NoError(t, s.Stop(context.Background()))
	})

	t.Run("starts and stops gracefully", func(t *testing.T) {
		s := NewBillingRunScheduler(new(mockPeriodRunner), zap.NewNop(), BillingRunSchedulerConfig{Enabled: true, RunDay: 1})
		s.now = func() time.Time { return time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC) }

		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.IsRunning())
		require.NoError(t, s.Start(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(ctx))
		assert.False(t, s.IsRunning())
	})
}
