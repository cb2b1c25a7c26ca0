// Package risk filters copy-trade requests whose external risk score
// exceeds the follower's configured tolerance.
package risk

import (
	"context"
	"fmt"
	"time"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// Gate suppresses requests that score above the follower's tolerance.
// Suppression is a policy decision, not an error: the follower is
// notified and the request never reaches execution.
type Gate struct {
	scorer    ports.RiskScorer
	messenger ports.Messenger
	logger    ports.Logger
}

// NewGate creates a risk gate.
func NewGate(scorer ports.RiskScorer, messenger ports.Messenger, logger ports.Logger) (*Gate, error) {
	if scorer == nil || messenger == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for risk gate")
	}
	return &Gate{scorer: scorer, messenger: messenger, logger: logger}, nil
}

// Filter scores each request and returns the admitted subset plus skip
// results for the suppressed ones. A scoring failure fails closed: the
// request is suppressed.
func (g *Gate) Filter(ctx context.Context, requests []*domain.CopyTradeRequest, settings map[string]domain.FollowerCopySettings) ([]*domain.CopyTradeRequest, []*domain.CopyTradeResult) {
	admitted := make([]*domain.CopyTradeRequest, 0, len(requests))
	var skipped []*domain.CopyTradeResult

	for _, req := range requests {
		cfg, ok := settings[req.FollowerID]
		if !ok {
			// Settings disappeared between lookup and scoring; fail closed.
			skipped = append(skipped, g.skip(ctx, req, "copy settings no longer available"))
			continue
		}

		score, err := g.scorer.Score(ctx, req.FollowerID, req.Symbol, req.Quantity, req.Action)
		if err != nil {
			g.logger.Warn(ctx, "Risk scoring failed, suppressing request", map[string]interface{}{
				"followerID": req.FollowerID,
				"symbol":     req.Symbol,
				"error":      err.Error(),
			})
			skipped = append(skipped, g.skip(ctx, req, "risk score unavailable"))
			continue
		}
		req.RiskScore = score

		if score > cfg.MaxRiskScore {
			g.logger.Info(ctx, "Request suppressed by risk gate", map[string]interface{}{
				"followerID":   req.FollowerID,
				"symbol":       req.Symbol,
				"riskScore":    score,
				"maxRiskScore": cfg.MaxRiskScore,
			})
			g.notify(ctx, req, fmt.Sprintf("Copy of %s %s skipped: risk score %.1f exceeds your tolerance %.1f.",
				req.Symbol, req.Action, score, cfg.MaxRiskScore))
			skipped = append(skipped, g.skip(ctx, req, "risk score above tolerance"))
			continue
		}

		admitted = append(admitted, req)
	}
	return admitted, skipped
}

func (g *Gate) skip(ctx context.Context, req *domain.CopyTradeRequest, reason string) *domain.CopyTradeResult {
	return &domain.CopyTradeResult{
		Status:     domain.StatusSkipped,
		FollowerID: req.FollowerID,
		LeaderID:   req.LeaderID,
		Error:      reason,
		Timestamp:  time.Now(),
	}
}

func (g *Gate) notify(ctx context.Context, req *domain.CopyTradeRequest, text string) {
	if err := g.messenger.Send(ctx, ports.Message{Recipient: req.FollowerID, Text: text}); err != nil {
		g.logger.Warn(ctx, "Failed to notify follower of risk skip", map[string]interface{}{
			"followerID": req.FollowerID,
			"error":      err.Error(),
		})
	}
}
