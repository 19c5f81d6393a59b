package billing

// ChargeKind is the closed set of charge types the engine can emit
type ChargeKind string

const (
	ChargeKindRent          ChargeKind = "RENT"
	ChargeKindDeposit       ChargeKind = "DEPOSIT"
	ChargeKindFixed         ChargeKind = "FIXED"
	ChargeKindPercentage    ChargeKind = "PERCENTAGE"
	ChargeKindVariable      ChargeKind = "VARIABLE"
	ChargeKindPenalty       ChargeKind = "PENALTY"
	ChargeKindServiceCharge ChargeKind = "SERVICE_CHARGE"
	ChargeKindInstallment   ChargeKind = "INSTALLMENT"
)

// String returns the string representation of ChargeKind
func (k ChargeKind) String() string {
	return string(k)
}

// IsValid returns true if the charge kind is known
func (k ChargeKind) IsValid() bool {
	return k.IdentityKey() != identityKeyUnknown
}

// IdentityKey is the reference a charge kind is deduplicated on
type IdentityKey int

const (
	identityKeyUnknown IdentityKey = iota
	// IdentityKeyNone means at most one charge of the kind per window
	IdentityKeyNone
	// IdentityKeyService keys on the attached service
	IdentityKeyService
	// IdentityKeyPenalty keys on the penalty record
	IdentityKeyPenalty
	// IdentityKeyInstallment keys on the payment schedule entry
	IdentityKeyInstallment
)

// IdentityKey returns which reference identifies a charge of this kind
func (k ChargeKind) IdentityKey() IdentityKey {
	switch k {
	case ChargeKindRent, ChargeKindDeposit, ChargeKindServiceCharge:
		return IdentityKeyNone
	case ChargeKindFixed, ChargeKindPercentage, ChargeKindVariable:
		return IdentityKeyService
	case ChargeKindPenalty:
		return IdentityKeyPenalty
	case ChargeKindInstallment:
		return IdentityKeyInstallment
	}
	return identityKeyUnknown
}

// IsLifetimeScoped returns true if the kind is billed at most once per tenancy
// rather than once per period
func (k ChargeKind) IsLifetimeScoped() bool {
	return k == ChargeKindDeposit
}
