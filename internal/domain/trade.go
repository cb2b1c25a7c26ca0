package domain

import (
	"fmt"
	"time"
)

// LeaderTrade represents a trade executed by a leader, as ingested by the
// engine. It is immutable once ingested; the engine only reads it.
type LeaderTrade struct {
	TradeID   string      `json:"trade_id"`  // Upstream identifier of the leader's execution
	LeaderID  string      `json:"leader_id"` // Leader account that executed the trade
	Symbol    string      `json:"symbol"`    // Trading symbol (e.g., "ETHUSDT")
	Action    TradeAction `json:"action"`    // buy or sell
	Quantity  int64       `json:"quantity"`  // Executed quantity in whole units
	Price     float64     `json:"price"`     // Execution price
	Timestamp time.Time   `json:"timestamp"` // Time the leader's trade executed
}

// Validate checks the trade is well formed before it enters the pipeline.
func (t *LeaderTrade) Validate() error {
	if t.TradeID == "" {
		return fmt.Errorf("leader trade missing trade_id")
	}
	if t.LeaderID == "" {
		return fmt.Errorf("leader trade missing leader_id")
	}
	if t.Symbol == "" {
		return fmt.Errorf("leader trade missing symbol")
	}
	if !t.Action.IsValid() {
		return fmt.Errorf("leader trade has invalid action %q", t.Action)
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("leader trade quantity must be positive, got %d", t.Quantity)
	}
	if t.Price <= 0 {
		return fmt.Errorf("leader trade price must be positive, got %f", t.Price)
	}
	return nil
}
