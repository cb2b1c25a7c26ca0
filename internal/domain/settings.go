package domain

import (
	"fmt"
	"time"
)

// Copy ratio bounds enforced at settings validation time.
const (
	MinCopyRatio = 0.01
	MaxCopyRatio = 1.0
)

// FollowerCopySettings holds a follower's subscription to a leader.
// Owned by the follower and mutated only through an explicit
// subscribe/update operation, never by the engine.
type FollowerCopySettings struct {
	FollowerID          string    `json:"follower_id"`
	LeaderID            string    `json:"leader_id"`
	CopyRatio           float64   `json:"copy_ratio"`           // Fraction of the leader's quantity, within [0.01, 1.0]
	MaxCopyAmount       float64   `json:"max_copy_amount"`      // Hard cap on the notional value of a single copy
	MaxRiskScore        float64   `json:"max_risk_score"`       // Tolerance on the 0-10 risk scale
	RequireConfirmation bool      `json:"require_confirmation"` // Whether each copy needs an explicit confirm prompt
	CreatedAt           time.Time `json:"created_at,omitempty"`
}

// Validate checks the settings against the subscription invariants.
// Invalid settings fail closed: no request is ever built from them.
func (s *FollowerCopySettings) Validate() error {
	if s.FollowerID == "" {
		return fmt.Errorf("copy settings missing follower_id")
	}
	if s.LeaderID == "" {
		return fmt.Errorf("copy settings missing leader_id")
	}
	if s.CopyRatio < MinCopyRatio || s.CopyRatio > MaxCopyRatio {
		return fmt.Errorf("copy_ratio %f outside [%0.2f, %0.1f]", s.CopyRatio, MinCopyRatio, MaxCopyRatio)
	}
	if s.MaxCopyAmount <= 0 {
		return fmt.Errorf("max_copy_amount must be positive, got %f", s.MaxCopyAmount)
	}
	if s.MaxRiskScore < 0 || s.MaxRiskScore > 10 {
		return fmt.Errorf("max_risk_score %f outside [0, 10]", s.MaxRiskScore)
	}
	return nil
}
