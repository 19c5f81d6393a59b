package billing

import (
	"fmt"
	"time"
)

// Period is a calendar month billing window
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod creates a period, validating the month
func NewPeriod(year int, month time.Month) (Period, error) {
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 {
		return Period{}, fmt.Errorf("invalid year %d", year)
	}
	return Period{Year: year, Month: month}, nil
}

// PeriodOf returns the period containing t (in t's location)
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriodKey parses a key produced by Period.Key, e.g. "2024-07"
func ParsePeriodKey(key string) (Period, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	return PeriodOf(t), nil
}

// Start returns the first instant of the period in UTC
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the period (exclusive bound)
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls within the period's calendar month.
// The calendar date of t is used as-is, independent of its location.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Next returns the following period
func (p Period) Next() Period {
	return PeriodOf(p.Start().AddDate(0, 1, 0))
}

// AddMonths returns the period n months away
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Before reports whether p is earlier than other
func (p Period) Before(other Period) bool {
	return p.index() < other.index()
}

// MonthsSince returns the number of whole months from other to p
func (p Period) MonthsSince(other Period) int {
	return p.index() - other.index()
}

// Key returns a sortable identifier, e.g. "2024-07"
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Label returns a human label such as "July 2024"
func (p Period) Label() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// String implements fmt.Stringer
func (p Period) String() string {
	return p.Key()
}

func (p Period) index() int {
	return p.Year*12 + int(p.Month) - 1
}

// RangeLabel labels a window spanning from..to (inclusive).
// A single month yields the plain label; a window inside one year yields
// "June – July 2024"; a window crossing a year yields "December 2024 – January 2025".
func RangeLabel(from, to Period) string {
	if from == to {
		return from.Label()
	}
	if to.Before(from) {
		from, to = to, from
	}
	if from.Year == to.Year {
		return fmt.Sprintf("%s – %s %d", from.Month, to.Month, to.Year)
	}
	return fmt.Sprintf("%s – %s", from.Label(), to.Label())
}
