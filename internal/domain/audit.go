package domain

import "time"

// CopyAuditRecord is the persisted per-copy audit trail entry, required
// for dispute resolution and compliance review. One record exists per
// terminal copy outcome, including skips.
type CopyAuditRecord struct {
	CopyID          string     `json:"copy_id"`
	FollowerID      string     `json:"follower_id"`
	LeaderID        string     `json:"leader_id"`
	OriginalTradeID string     `json:"original_trade_id"`
	Symbol          string     `json:"symbol"`
	Signature       string     `json:"signature"`
	Status          CopyStatus `json:"status"`
	TradeID         string     `json:"trade_id,omitempty"`
	CopyValue       float64    `json:"copy_value,omitempty"`
	Error           string     `json:"error,omitempty"`
	RequestedAt     time.Time  `json:"requested_at"`
	CompletedAt     time.Time  `json:"completed_at"`
}
