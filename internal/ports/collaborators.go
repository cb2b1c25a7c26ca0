package ports

import (
	"context"
	"time"

	"copyTradeEngine/internal/domain"
)

// RiskScorer is the external risk-scoring collaborator. It rates a
// prospective copy on a 0-10 scale; higher means riskier.
type RiskScorer interface {
	// Score returns the risk score for a prospective copy trade.
	Score(ctx context.Context, followerID, symbol string, quantity int64, action domain.TradeAction) (float64, error)
}

// OrderRequest describes an order to be placed on behalf of a follower.
type OrderRequest struct {
	UserID    string // Follower account the order belongs to
	Symbol    string // Trading symbol
	Action    domain.TradeAction
	Quantity  int64
	Price     float64           // Reference price; market orders may fill differently
	OrderType string            // e.g., "market"
	Metadata  map[string]string // Audit tags distinguishing copies from organic orders
}

// OrderResult holds the essential details returned after placing an order.
type OrderResult struct {
	Status    string    // Exchange order status (e.g., NEW, FILLED)
	TradeID   string    // Exchange-assigned trade identifier
	AvgPrice  float64   // Average filled price, when available
	Timestamp time.Time // Time the order response was generated
}

// OrderPlacer is the external order-placement collaborator.
// This abstraction decouples the engine from any specific venue.
type OrderPlacer interface {
	// PlaceOrder submits an order and returns its result.
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}

// AccountSnapshot is the balance oracle's view of a follower account.
type AccountSnapshot struct {
	AvailableBalance float64
	Active           bool
}

// BalanceOracle is the external source of truth for follower balances.
// The engine never owns balances; it only reads them.
type BalanceOracle interface {
	// Snapshot returns the current state of a follower account.
	Snapshot(ctx context.Context, followerID string) (AccountSnapshot, error)
}

// Message is a user-facing notification or prompt sent via the messaging
// gateway.
type Message struct {
	Recipient string
	Text      string
	// Options, when non-empty, renders the message as an interactive
	// prompt with the given reply choices.
	Options []string
	// CopyID correlates an interactive prompt with its pending copy so
	// async replies can be routed back.
	CopyID string
}

// Messenger is the external messaging gateway. Delivery is acknowledged
// synchronously; replies to interactive prompts arrive asynchronously
// through the application's reply entry point.
type Messenger interface {
	// Send delivers a message to its recipient.
	Send(ctx context.Context, msg Message) error
}
