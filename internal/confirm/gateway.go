// Package confirm implements the bounded wait for explicit user
// confirmation of a copy trade.
package confirm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// Outcome is the terminal state of a confirmation request.
// REQUESTED transitions to exactly one of these.
type Outcome string

const (
	OutcomeConfirmed       Outcome = "CONFIRMED"
	OutcomeSkipped         Outcome = "SKIPPED"
	OutcomeCancelFollowing Outcome = "CANCEL_FOLLOWING"
	// OutcomeTimeout means no reply arrived inside the window. Policy
	// treats it as an implicit confirm; callers decide what to do with it.
	OutcomeTimeout Outcome = "TIMEOUT"
)

// Reply choices offered to the user.
const (
	ReplyConfirm  = "confirm"
	ReplySkip     = "skip"
	ReplyUnfollow = "unfollow"
)

// Gateway sends interactive confirmation prompts and routes asynchronous
// replies back to the waiting execution task.
type Gateway struct {
	messenger ports.Messenger
	timeout   time.Duration
	logger    ports.Logger

	mu      sync.Mutex
	pending map[string]chan Outcome
}

// NewGateway creates a confirmation gateway with the given reply window.
func NewGateway(messenger ports.Messenger, timeout time.Duration, logger ports.Logger) (*Gateway, error) {
	if messenger == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for confirmation gateway")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		messenger: messenger,
		timeout:   timeout,
		logger:    logger,
		pending:   make(map[string]chan Outcome),
	}, nil
}

// Await sends the prompt for the given copy and blocks until the user
// replies, the window elapses, or ctx is cancelled.
func (g *Gateway) Await(ctx context.Context, copyID string, req *domain.CopyTradeRequest) (Outcome, error) {
	ch := make(chan Outcome, 1)

	g.mu.Lock()
	if _, exists := g.pending[copyID]; exists {
		g.mu.Unlock()
		return "", fmt.Errorf("confirmation already pending for copy %s", copyID)
	}
	g.pending[copyID] = ch
	g.mu.Unlock()
	defer g.unregister(copyID)

	prompt := ports.Message{
		Recipient: req.FollowerID,
		Text: fmt.Sprintf("Confirm copy trade: %s %d %s @ %.2f (value %.2f)?",
			strings.ToUpper(string(req.Action)), req.Quantity, req.Symbol, req.Price, req.CopyValue()),
		Options: []string{ReplyConfirm, ReplySkip, ReplyUnfollow},
		CopyID:  copyID,
	}
	if err := g.messenger.Send(ctx, prompt); err != nil {
		return "", fmt.Errorf("send confirmation prompt: %w", err)
	}

	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case outcome := <-ch:
		return outcome, nil
	case <-timer.C:
		g.logger.Info(ctx, "Confirmation timed out", map[string]interface{}{
			"copyID":     copyID,
			"followerID": req.FollowerID,
		})
		return OutcomeTimeout, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Resolve delivers a user's reply for a pending confirmation. Returns
// ErrNotFound when no confirmation is waiting for the copy id (late or
// duplicate replies).
func (g *Gateway) Resolve(copyID, reply string) error {
	var outcome Outcome
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case ReplyConfirm:
		outcome = OutcomeConfirmed
	case ReplySkip:
		outcome = OutcomeSkipped
	case ReplyUnfollow:
		outcome = OutcomeCancelFollowing
	default:
		return fmt.Errorf("unrecognized confirmation reply %q: %w", reply, ports.ErrInvalidRequest)
	}

	g.mu.Lock()
	ch, ok := g.pending[copyID]
	if ok {
		delete(g.pending, copyID)
	}
	g.mu.Unlock()
	if !ok {
		return ports.ErrNotFound
	}
	ch <- outcome
	return nil
}

func (g *Gateway) unregister(copyID string) {
	g.mu.Lock()
	delete(g.pending, copyID)
	g.mu.Unlock()
}
