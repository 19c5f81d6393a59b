package billing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared/valueobject"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// calculateServiceCharge emits the unit management fee billed to the owner
func calculateServiceCharge(c *calculation) {
	if c.snap.Ownership == nil {
		return
	}
	config := c.snap.Node.ServiceCharge
	if config == nil || !config.Amount.IsPositive() {
		return
	}
	if c.invoiced(ChargeKindServiceCharge, uuid.Nil) {
		return
	}

	c.emit(Charge{
		Description: fmt.Sprintf("Service charge for %s", c.bc.PeriodLabel()),
		Kind:        ChargeKindServiceCharge,
		UnitAmount:  config.Amount,
		Quantity:    decimal.NewFromInt(1),
		Currency:    c.currency(config.Currency, nil),
	})
}

// calculateServiceItems emits one charge per recurring service attached to the
// node (and, for owners, to its project) that is billed to the caller's role
func calculateServiceItems(c *calculation) {
	var fallback *valueobject.Currency
	switch c.bc.Role {
	case RoleTenant:
		if c.snap.Tenancy == nil {
			return
		}
		fallback = c.snap.Tenancy.Currency
	case RoleOwner:
		if c.snap.Ownership == nil {
			return
		}
	}

	services := lo.Filter(c.snap.Services, func(s AttachedService, _ int) bool {
		if s.BilledTo != c.bc.Role {
			return false
		}
		return !s.Inherited || c.bc.Role == RoleOwner
	})
	services = uniqueServices(services)

	for _, service := range services {
		if !service.Frequency.IsValid() {
			c.skip(service.PricingRule.ChargeKind(), service.ServiceID, fmt.Sprintf("unknown frequency %q", service.Frequency))
			continue
		}
		if !service.Frequency.IsRecurringBillable() {
			continue
		}
		if !service.PricingRule.IsValid() {
			c.skip(ChargeKind(service.PricingRule), service.ServiceID, fmt.Sprintf("unknown pricing rule %q", service.PricingRule))
			continue
		}

		kind := service.PricingRule.ChargeKind()
		if c.invoiced(kind, service.ServiceID) {
			continue
		}

		quantity, ok := QuantityFor(service.Frequency)
		if !ok {
			c.skip(kind, service.ServiceID, fmt.Sprintf("no quantity for frequency %s", service.Frequency))
			continue
		}

		charge := Charge{
			Description: fmt.Sprintf("%s - %s", service.Name, c.bc.PeriodLabel()),
			Kind:        kind,
			UnitAmount:  decimal.Zero,
			Quantity:    quantity,
			Currency:    c.currency(service.Currency, fallback),
			ServiceRef:  lo.ToPtr(service.ServiceID),
		}
		switch service.PricingRule {
		case PricingRuleFixed:
			if service.BasePrice.IsNegative() {
				c.skip(kind, service.ServiceID, "base price is negative")
				continue
			}
			charge.UnitAmount = service.BasePrice
		case PricingRulePercentage:
			if service.PercentageRate == nil {
				c.skip(kind, service.ServiceID, "percentage rate is missing")
				continue
			}
			charge.PercentageRate = lo.ToPtr(*service.PercentageRate)
		case PricingRuleVariable:
			charge.InputRequired = true
		}

		c.emit(charge)
	}
}

// uniqueServices keeps one assignment per service. An assignment on the node
// itself wins over one inherited from the project; otherwise the first one wins.
func uniqueServices(services []AttachedService) []AttachedService {
	direct := make(map[uuid.UUID]bool, len(services))
	for _, s := range services {
		if !s.Inherited {
			direct[s.ServiceID] = true
		}
	}
	services = lo.Reject(services, func(s AttachedService, _ int) bool {
		return s.Inherited && direct[s.ServiceID]
	})
	return lo.UniqBy(services, func(s AttachedService) uuid.UUID {
		return s.ServiceID
	})
}
