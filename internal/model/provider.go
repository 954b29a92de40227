package model

// CostTier orders providers by price. Lower tiers are tried first when
// health permits.
type CostTier int

const (
	TierFree CostTier = iota
	TierCheap
	TierStandard
	TierPremium
)

func (t CostTier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierCheap:
		return "cheap"
	case TierStandard:
		return "standard"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}
