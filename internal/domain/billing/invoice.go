package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/propertyflow/backend/internal/domain/shared"
)

// ErrChargeAlreadyBilled is returned when persisting a charge whose billing key
// is held by another live invoice item
var ErrChargeAlreadyBilled = shared.NewDomainError("CHARGE_ALREADY_BILLED", "Charge has already been billed for this period")

// ErrDuplicateCharge is returned when one set of charges holds the same billing key twice
var ErrDuplicateCharge = shared.NewDomainError("INVALID_INPUT", "Charges contain the same billing key more than once")

// Invoice is the persisted result of accepting a set of charges
type Invoice struct {
	ID             uuid.UUID     `json:"id"`
	PartyID        uuid.UUID     `json:"party_id"`
	PropertyNodeID uuid.UUID     `json:"property_node_id"`
	Role           Role          `json:"role"`
	Period         Period        `json:"period"`
	Status         InvoiceStatus `json:"status"`
	IssuedAt       time.Time     `json:"issued_at"`
	Items          []Charge      `json:"items"`
}

// BillableParty is one (party, node, role) tuple enumerated by a billing run
type BillableParty struct {
	PartyID        uuid.UUID `json:"party_id"`
	PropertyNodeID uuid.UUID `json:"property_node_id"`
	Role           Role      `json:"role"`
}

// Key identifies the tuple for one period, e.g. for claim locks
func (p BillableParty) Key(period Period) string {
	return strings.Join([]string{p.PartyID.String(), p.PropertyNodeID.String(), string(p.Role), period.Key()}, "|")
}

// BillingKey is the uniqueness key of a persisted charge. Charges of the same kind
// and identity on the same node collide inside a period; deposits collide across
// the whole lifetime of the tenant on the node.
func BillingKey(bc BillingContext, charge Charge) string {
	if charge.Kind.IsLifetimeScoped() {
		return fmt.Sprintf("%s|%s|%s", bc.PropertyNodeID, charge.Kind, bc.PartyID)
	}
	key := fmt.Sprintf("%s|%s|%s", bc.PropertyNodeID, bc.Period.Key(), charge.Kind)
	if ref := charge.IdentityRef(); ref != uuid.Nil {
		key += "|" + ref.String()
	}
	return key
}
