package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	t.Run("creates valid period", func(t *testing.T) {
		p, err := NewPeriod(2024, time.July)

		require.NoError(t, err)
		assert.Equal(t, 2024, p.Year)
		assert.Equal(t, time.July, p.Month)
	})

	t.Run("rejects invalid month", func(t *testing.T) {
		_, err := NewPeriod(2024, time.Month(13))
		assert.Error(t, err)

		_, err = NewPeriod(2024, time.Month(0))
		assert.Error(t, err)
	})

	t.Run("rejects invalid year", func(t *testing.T) {
		_, err := NewPeriod(0, time.January)
		assert.Error(t, err)
	})
}

func TestPeriod_Bounds(t *testing.T) {
	p := Period{Year: 2024, Month: time.December}

	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, Period{Year: 2025, Month: time.January}, p.Next())
	assert.Equal(t, Period{Year: 2024, Month: time.September}, p.AddMonths(-3))

	assert.True(t, p.Contains(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriod_Ordering(t *testing.T) {
	jan := Period{Year: 2024, Month: time.January}
	jul := Period{Year: 2024, Month: time.July}

	assert.True(t, jan.Before(jul))
	assert.False(t, jul.Before(jan))
	assert.False(t, jul.Before(jul))
	assert.Equal(t, 6, jul.MonthsSince(jan))
	assert.Equal(t, -6, jan.MonthsSince(jul))
}

func TestPeriod_Labels(t *testing.T) {
	p := Period{Year: 2024, Month: time.July}

	assert.Equal(t, "July 2024", p.Label())
	assert.Equal(t, "2024-07", p.Key())
	assert.Equal(t, "2024-07", p.String())
}

func TestRangeLabel(t *testing.T) {
	tests := []struct {
		name     string
		from     Period
		to       Period
		expected string
	}{
		{"single month", Period{2024, time.July}, Period{2024, time.July}, "July 2024"},
		{"same year", Period{2024, time.June}, Period{2024, time.July}, "June – July 2024"},
		{"across years", Period{2024, time.December}, Period{2025, time.January}, "December 2024 – January 2025"},
		{"reversed bounds", Period{2024, time.July}, Period{2024, time.June}, "June – July 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, RangeLabel(tt.from, tt.to))
		})
	}
}

func TestParsePeriodKey(t *testing.T) {
	p, err := ParsePeriodKey("2024-07")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2024, Month: time.July}, p)

	_, err = ParsePeriodKey("July 2024")
	assert.Error(t, err)
}
