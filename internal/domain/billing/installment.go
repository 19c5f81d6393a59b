package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// InstallmentMatcher decides whether a schedule entry is due in a period.
// The entry's due date is known to be set when Matches is called.
type InstallmentMatcher interface {
	Matches(entry Installment, period Period) bool
}

// CalendarMonthMatcher bills an entry in the calendar month of its due date
type CalendarMonthMatcher struct{}

// Matches implements InstallmentMatcher
func (CalendarMonthMatcher) Matches(entry Installment, period Period) bool {
	return period.Contains(*entry.DueDate)
}

// FrequencyMatcher bills entries once per plan cycle. A plan paid every N months
// bills only in the months where a cycle starts (counted from the plan start month),
// and then collects every entry due within that N-month cycle.
// Plans whose frequency has no month length fall back to calendar-month matching.
type FrequencyMatcher struct{}

// Matches implements InstallmentMatcher
func (FrequencyMatcher) Matches(entry Installment, period Period) bool {
	months := entry.PlanFrequency.Months()
	if months <= 1 || entry.PlanStart.IsZero() {
		return period.Contains(*entry.DueDate)
	}

	elapsed := period.MonthsSince(PeriodOf(entry.PlanStart))
	if elapsed < 0 || elapsed%months != 0 {
		return false
	}

	due := PeriodOf(*entry.DueDate)
	return !due.Before(period) && due.Before(period.AddMonths(months))
}

// InstallmentMatching names a matcher strategy in configuration
type InstallmentMatching string

const (
	InstallmentMatchingCalendarMonth InstallmentMatching = "calendar_month"
	InstallmentMatchingFrequency     InstallmentMatching = "frequency"
)

// IsValid returns true if the strategy is known
func (m InstallmentMatching) IsValid() bool {
	return m == InstallmentMatchingCalendarMonth || m == InstallmentMatchingFrequency
}

// ParseInstallmentMatching parses a configured strategy name
func ParseInstallmentMatching(value string) (InstallmentMatching, error) {
	m := InstallmentMatching(strings.ToLower(strings.TrimSpace(value)))
	if m == "" {
		return InstallmentMatchingCalendarMonth, nil
	}
	if !m.IsValid() {
		return "", fmt.Errorf("unknown installment matching %q", value)
	}
	return m, nil
}

// Matcher returns the matcher implementing the strategy
func (m InstallmentMatching) Matcher() InstallmentMatcher {
	if m == InstallmentMatchingFrequency {
		return FrequencyMatcher{}
	}
	return CalendarMonthMatcher{}
}

// calculateInstallments emits the pending schedule entries due this period for
// installment plans where the party is the buyer
func calculateInstallments(c *calculation) {
	for _, entry := range c.snap.Installments {
		if entry.PlanType != PaymentPlanTypeInstallments || entry.Status != InstallmentStatusPending {
			continue
		}
		if entry.DueDate == nil {
			c.skip(ChargeKindInstallment, entry.ID, "installment has no due date")
			continue
		}
		if !entry.Amount.IsPositive() {
			c.skip(ChargeKindInstallment, entry.ID, "installment amount is not positive")
			continue
		}
		if !c.matcher.Matches(entry, c.bc.Period) {
			continue
		}
		if c.invoiced(ChargeKindInstallment, entry.ID) {
			continue
		}

		ref := entry.ID
		c.emit(Charge{
			Description:    fmt.Sprintf("Installment #%d due %s", entry.Sequence, entry.DueDate.Format("2006-01-02")),
			Kind:           ChargeKindInstallment,
			UnitAmount:     entry.Amount,
			Quantity:       decimal.NewFromInt(1),
			Currency:       c.bc.DefaultCurrency,
			InstallmentRef: &ref,
		})
	}
}
