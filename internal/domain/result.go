package domain

import "time"

// CopyTradeResult is the terminal outcome of one copy-trade request.
type CopyTradeResult struct {
	Status     CopyStatus `json:"status"`
	CopyID     string     `json:"copy_id"`
	FollowerID string     `json:"follower_id"`
	LeaderID   string     `json:"leader_id"`
	TradeID    string     `json:"trade_id,omitempty"`   // Exchange trade id when executed
	CopyValue  float64    `json:"copy_value,omitempty"` // Notional value of the copy
	Error      string     `json:"error,omitempty"`      // Failure reason, if any
	Timestamp  time.Time  `json:"timestamp"`
}

// BatchSummary aggregates the outcome of one leader trade's fan-out.
// This is what the leader is notified with.
type BatchSummary struct {
	Status           string        `json:"status"`
	LeaderID         string        `json:"leader_id"`
	OriginalTradeID  string        `json:"original_trade_id"`
	TotalFollowers   int           `json:"total_followers"`
	SuccessfulCopies int           `json:"successful_copies"`
	FailedCopies     int           `json:"failed_copies"`
	SkippedCopies    int           `json:"skipped_copies"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

// LeaderStats is one leaderboard row for a leader.
type LeaderStats struct {
	LeaderID         string         `json:"leader_id"`
	ReturnPercentage float64        `json:"return_percentage"`
	FollowersCount   int64          `json:"followers_count"`
	Tier             LeadershipTier `json:"tier"`
	TotalCopies      int64          `json:"total_copies"`
	CopiedVolume     float64        `json:"copied_volume"`
	SuccessRate      float64        `json:"success_rate"`
}
