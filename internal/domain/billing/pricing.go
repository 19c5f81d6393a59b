package billing

import "github.com/shopspring/decimal"

// PricingRule determines how a service's charge amount is derived
type PricingRule string

const (
	// PricingRuleFixed bills the service's base price
	PricingRuleFixed PricingRule = "FIXED"
	// PricingRulePercentage carries a rate that is resolved downstream
	PricingRulePercentage PricingRule = "PERCENTAGE"
	// PricingRuleVariable needs a human to supply the amount later
	PricingRuleVariable PricingRule = "VARIABLE"
)

// IsValid returns true if the pricing rule is known
func (r PricingRule) IsValid() bool {
	switch r {
	case PricingRuleFixed, PricingRulePercentage, PricingRuleVariable:
		return true
	}
	return false
}

// ChargeKind maps a pricing rule onto the charge kind its items are billed as
func (r PricingRule) ChargeKind() ChargeKind {
	return ChargeKind(r)
}

// Frequency is how often a service recurs
type Frequency string

const (
	FrequencyDaily      Frequency = "DAILY"
	FrequencyWeekly     Frequency = "WEEKLY"
	FrequencyMonthly    Frequency = "MONTHLY"
	FrequencyQuarterly  Frequency = "QUARTERLY"
	FrequencySemiAnnual Frequency = "SEMI_ANNUAL"
	FrequencyAnnual     Frequency = "ANNUAL"
	FrequencyOneTime    Frequency = "ONE_TIME"
)

// IsValid returns true if the frequency is known
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly,
		FrequencySemiAnnual, FrequencyAnnual, FrequencyOneTime:
		return true
	}
	return false
}

// IsRecurringBillable reports whether services with this frequency take part in
// the monthly recurring run. Weekly and one-time services are billed elsewhere.
func (f Frequency) IsRecurringBillable() bool {
	switch f {
	case FrequencyWeekly, FrequencyOneTime:
		return false
	}
	return f.IsValid()
}

// Months returns the cycle length in calendar months, or 0 for frequencies that
// do not map onto whole months
func (f Frequency) Months() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnual:
		return 6
	case FrequencyAnnual:
		return 12
	}
	return 0
}

var frequencyQuantities = map[Frequency]decimal.Decimal{
	FrequencyDaily:      decimal.NewFromInt(30),
	FrequencyMonthly:    decimal.NewFromInt(1),
	FrequencyQuarterly:  decimal.NewFromInt(3),
	FrequencySemiAnnual: decimal.NewFromInt(6),
	FrequencyAnnual:     decimal.NewFromInt(12),
}

// QuantityFor returns the quantity multiplier for a billing frequency.
// Excluded frequencies (weekly, one-time) are not in the table; callers filter them first.
func QuantityFor(f Frequency) (decimal.Decimal, bool) {
	q, ok := frequencyQuantities[f]
	return q, ok
}
