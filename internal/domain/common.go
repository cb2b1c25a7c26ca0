package domain

// TradeAction represents the side of a trade (buy or sell).
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// IsValid reports whether the action is one of the known sides.
func (a TradeAction) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// CopyStatus is the terminal outcome of a single copy-trade request.
// Every admitted request produces exactly one of these.
type CopyStatus string

const (
	StatusExecuted             CopyStatus = "executed"
	StatusFailed               CopyStatus = "failed"
	StatusSkipped              CopyStatus = "skipped"
	StatusCancelled            CopyStatus = "cancelled"
	StatusDuplicate            CopyStatus = "duplicate"
	StatusInsufficientBalance  CopyStatus = "insufficient_balance"
	StatusConfirmationRequired CopyStatus = "confirmation_required"
)

// IsFailure reports whether the status counts against batch failure
// metrics. Policy rejections (skips, confirmation declines, duplicates)
// are not failures.
func (s CopyStatus) IsFailure() bool {
	return s == StatusFailed || s == StatusInsufficientBalance
}

// LeadershipTier classifies a leader by follower count.
type LeadershipTier string

const (
	TierBronze   LeadershipTier = "BRONZE"
	TierSilver   LeadershipTier = "SILVER"
	TierGold     LeadershipTier = "GOLD"
	TierPlatinum LeadershipTier = "PLATINUM"
	TierDiamond  LeadershipTier = "DIAMOND"
)

// TierForFollowers returns the leadership tier for a follower count.
// The mapping is a monotonic step function of the count.
func TierForFollowers(count int64) LeadershipTier {
	switch {
	case count >= 10000:
		return TierDiamond
	case count >= 5000:
		return TierPlatinum
	case count >= 1000:
		return TierGold
	case count >= 100:
		return TierSilver
	default:
		return TierBronze
	}
}
