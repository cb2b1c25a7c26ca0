package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CopyTradeRequest is a single follower's scaled, signed copy of a leader
// trade. Constructed at most once per (follower, leader-trade) pair and
// validated at construction time; an invalid request is never created.
type CopyTradeRequest struct {
	FollowerID      string      `json:"follower_id"`
	LeaderID        string      `json:"leader_id"`
	OriginalTradeID string      `json:"original_trade_id"`
	Symbol          string      `json:"symbol"`
	Action          TradeAction `json:"action"`
	Quantity        int64       `json:"quantity"` // Scaled quantity, always >= 1
	Price           float64     `json:"price"`    // Leader's execution price
	CopyRatio       float64     `json:"copy_ratio"`
	MaxCopyAmount   float64     `json:"max_copy_amount"`
	RiskScore       float64     `json:"risk_score"` // Filled in by the risk gate
	Timestamp       time.Time   `json:"timestamp"`
	Signature       string      `json:"signature"`
}

// CopyValue returns the notional value of the copy.
func (r *CopyTradeRequest) CopyValue() float64 {
	return float64(r.Quantity) * r.Price
}

// Signer produces and verifies request signatures. The signature is a
// keyed hash over the canonical request fields; mutating any one of them
// invalidates it.
type Signer struct {
	key []byte
}

// NewSigner creates a Signer from a secret key.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, fmt.Errorf("signer key must not be empty")
	}
	return &Signer{key: []byte(key)}, nil
}

// canonical builds the deterministic field string the signature covers.
func (s *Signer) canonical(r *CopyTradeRequest) string {
	return strings.Join([]string{
		r.FollowerID,
		r.LeaderID,
		r.OriginalTradeID,
		r.Symbol,
		strconv.FormatInt(r.Quantity, 10),
		strconv.FormatFloat(r.Price, 'f', -1, 64),
	}, "|")
}

// Sign computes the hex-encoded HMAC-SHA256 signature for the request.
func (s *Signer) Sign(r *CopyTradeRequest) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(s.canonical(r)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the request's signature matches its canonical
// fields.
func (s *Signer) Verify(r *CopyTradeRequest) bool {
	expected, err := hex.DecodeString(r.Signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(s.canonical(r)))
	return hmac.Equal(expected, mac.Sum(nil))
}
