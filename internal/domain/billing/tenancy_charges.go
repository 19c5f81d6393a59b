package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// calculateRent emits the monthly rent of the active tenancy
func calculateRent(c *calculation) {
	tenancy := c.snap.Tenancy
	if tenancy == nil || tenancy.RentAmount == nil {
		return
	}
	if !tenancy.RentAmount.IsPositive() {
		c.skip(ChargeKindRent, tenancy.ID, "rent amount is not positive")
		return
	}
	if c.invoiced(ChargeKindRent, uuid.Nil) {
		return
	}

	c.emit(Charge{
		Description: fmt.Sprintf("Rent for %s", c.bc.PeriodLabel()),
		Kind:        ChargeKindRent,
		UnitAmount:  *tenancy.RentAmount,
		Quantity:    decimal.NewFromInt(1),
		Currency:    c.currency(tenancy.Currency, nil),
	})
}

// calculateDeposit emits the security deposit once over the tenancy's lifetime
func calculateDeposit(c *calculation) {
	tenancy := c.snap.Tenancy
	if !tenancy.HasDeposit() {
		return
	}
	if c.invoiced(ChargeKindDeposit, uuid.Nil) {
		return
	}

	c.emit(Charge{
		Description: "Security deposit",
		Kind:        ChargeKindDeposit,
		UnitAmount:  tenancy.DepositAmount,
		Quantity:    decimal.NewFromInt(1),
		Currency:    c.currency(tenancy.Currency, nil),
	})
}

// calculatePenalties emits one charge per pending penalty on the tenancy
func calculatePenalties(c *calculation) {
	tenancy := c.snap.Tenancy
	if tenancy == nil {
		return
	}

	for _, penalty := range c.snap.Penalties {
		if penalty.Status != PenaltyStatusPending || penalty.TenancyID != tenancy.ID {
			continue
		}
		if !penalty.Amount.IsPositive() {
			c.skip(ChargeKindPenalty, penalty.ID, "penalty amount is not positive")
			continue
		}
		if c.invoiced(ChargeKindPenalty, penalty.ID) {
			continue
		}

		ref := penalty.ID
		c.emit(Charge{
			Description: penaltyDescription(penalty.Type),
			Kind:        ChargeKindPenalty,
			UnitAmount:  penalty.Amount,
			Quantity:    decimal.NewFromInt(1),
			Currency:    c.currency(penalty.Currency, tenancy.Currency),
			PenaltyRef:  &ref,
		})
	}
}

func penaltyDescription(penaltyType string) string {
	if penaltyType == "" {
		return "Penalty"
	}
	return fmt.Sprintf("%s penalty", penaltyType)
}
