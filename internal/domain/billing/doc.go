// Package billing provides the domain model of recurring property billing.
//
// This package implements the charge computation bounded context, which is responsible for:
//   - Deciding which charges a tenant or owner owes for a property node and calendar month
//   - Pricing each charge from its pricing rule and billing frequency
//   - Never re-emitting a charge that has already been invoiced for its window
//
// Key Types:
//   - Engine: Runs the per-role calculators over a Snapshot of relationship facts
//   - Charge: One priced, typed billable entry; its price is always UnitAmount * Quantity
//   - InvoicedIndex: The already-billed lookup built from prior invoice items
//
// Value Objects:
//   - BillingContext: The (party, node, period, role) unit being billed
//   - Period: A calendar month billing window
//   - ChargeKind, PricingRule, Frequency: Closed enumerations driving the calculators
//
// The billing domain integrates with:
//   - Property, tenancy and sales records: As read-only relationship facts
//   - Invoice assembly: As the consumer of the computed charges
package billing
