package recommendation

import "github.com/shopspring/decimal"

// AllocateInput describes one allocation request.
type AllocateInput struct {
	UserID     uint
	CampaignID uint
	Amount     decimal.Decimal

	// UseGroupBalances draws from the user's group pools first, personal
	// wallet for any remainder.
	UseGroupBalances bool

	// ReasonTag overrides the ledger reason; defaults to the username.
	ReasonTag string

	// GrantID links the allocation to the pending grant that spawned it and
	// suppresses the donor receipt (the grant email already thanked them).
	GrantID *uint
}

// AllocationResult is the typed outcome of an allocation.
type AllocationResult struct {
	RecommendationID uint
	RequestedAmount  decimal.Decimal
	AppliedAmount    decimal.Decimal
	CampaignNewTotal decimal.Decimal
}
