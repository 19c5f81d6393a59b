package billing

import (
	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
)

// Snapshot holds every relationship fact one calculation needs, loaded once per
// call by the caller. The engine never queries anything itself.
type Snapshot struct {
	Node         PropertyNode
	Tenancy      *Tenancy
	Ownership    *Ownership
	Services     []AttachedService
	Penalties    []Penalty
	Installments []Installment
	Invoiced     InvoicedIndex
}

// Skip records a single malformed record that was left out of the result
type Skip struct {
	Kind   ChargeKind `json:"kind"`
	Ref    uuid.UUID  `json:"ref"`
	Reason string     `json:"reason"`
}

// Result is the outcome of one calculation
type Result struct {
	Charges []Charge `json:"charges"`
	Skipped []Skip   `json:"skipped,omitempty"`
}

// Total sums charge prices per currency code
func (r Result) Total() map[string]valueobject.Money {
	totals := make(map[string]valueobject.Money)
	for _, c := range r.Charges {
		code := c.Currency.Code
		current, ok := totals[code]
		if !ok {
			current = valueobject.Zero(c.Currency)
		}
		sum, err := current.Add(c.Total())
		if err != nil {
			continue
		}
		totals[code] = sum
	}
	return totals
}

// calculation is the per-call working state shared by the calculators
type calculation struct {
	bc      BillingContext
	snap    Snapshot
	matcher InstallmentMatcher
	charges []Charge
	skipped []Skip
}

func (c *calculation) emit(charge Charge) {
	charge.PropertyNodeID = c.bc.PropertyNodeID
	charge.PropertyNodeName = c.snap.Node.Name
	c.charges = append(c.charges, charge)
}

func (c *calculation) skip(kind ChargeKind, ref uuid.UUID, reason string) {
	c.skipped = append(c.skipped, Skip{Kind: kind, Ref: ref, Reason: reason})
}

func (c *calculation) invoiced(kind ChargeKind, ref uuid.UUID) bool {
	return c.snap.Invoiced.IsInvoiced(kind, ref)
}

// currency resolves primary, then fallback, then the context default currency
func (c *calculation) currency(primary, fallback *valueobject.Currency) valueobject.Currency {
	resolved := valueobject.ResolveCurrency(primary, fallback)
	if !resolved.IsSet() {
		return c.bc.DefaultCurrency
	}
	return resolved
}

// calculator appends the charges of one kind family to the calculation
type calculator func(c *calculation)

// rolePlans fixes which calculators run for a role and in what order
var rolePlans = map[Role][]calculator{
	RoleTenant: {calculateRent, calculateDeposit, calculateServiceItems, calculatePenalties},
	RoleOwner:  {calculateServiceCharge, calculateInstallments, calculateServiceItems},
}

// Engine computes the charges owed for a billing context.
// It is stateless and safe for concurrent use.
type Engine struct {
	matcher InstallmentMatcher
}

// NewEngine creates an engine using the given installment matcher.
// A nil matcher selects calendar-month matching.
func NewEngine(matcher InstallmentMatcher) *Engine {
	if matcher == nil {
		matcher = CalendarMonthMatcher{}
	}
	return &Engine{matcher: matcher}
}

// Calculate runs the role's calculators in order over the snapshot and returns
// the concatenated charges. An empty result is the normal outcome when nothing is due.
func (e *Engine) Calculate(bc BillingContext, snap Snapshot) (Result, error) {
	if err := bc.Validate(); err != nil {
		return Result{}, err
	}

	calc := &calculation{
		bc:      bc,
		snap:    snap,
		matcher: e.matcher,
		charges: make([]Charge, 0),
	}
	for _, run := range rolePlans[bc.Role] {
		run(calc)
	}

	return Result{Charges: calc.charges, Skipped: calc.skipped}, nil
}
