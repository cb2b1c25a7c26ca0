// Package riskscore provides a local heuristic implementation of the
// risk-scoring collaborator. Deployments with a dedicated scoring
// service can swap this out behind ports.RiskScorer.
package riskscore

import (
	"context"
	"math"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// Scorer rates copies on a 0-10 scale from notional size and a
// per-symbol weight. Unlisted symbols use the default weight.
type Scorer struct {
	symbolWeights map[string]float64
	defaultWeight float64
	logger        ports.Logger
}

// Config holds configuration for the heuristic scorer.
type Config struct {
	// SymbolWeights scales the score per symbol (1.0 = neutral).
	SymbolWeights map[string]float64
	// DefaultWeight applies to symbols not listed (default 1.0).
	DefaultWeight float64
	Logger        ports.Logger
}

// New creates a heuristic risk scorer.
func New(cfg Config) *Scorer {
	if cfg.DefaultWeight <= 0 {
		cfg.DefaultWeight = 1.0
	}
	return &Scorer{
		symbolWeights: cfg.SymbolWeights,
		defaultWeight: cfg.DefaultWeight,
		logger:        cfg.Logger,
	}
}

// Score maps the copy's quantity onto a 0-10 scale. The scale is
// logarithmic so doubling the size nudges rather than doubles the score.
func (s *Scorer) Score(ctx context.Context, followerID, symbol string, quantity int64, action domain.TradeAction) (float64, error) {
	if quantity <= 0 {
		return 0, ports.ErrInvalidRequest
	}

	weight, ok := s.symbolWeights[symbol]
	if !ok {
		weight = s.defaultWeight
	}

	// quantity 1 -> 0, quantity 10 -> 2.5, quantity 10000 -> 10 (at weight 1).
	score := math.Log10(float64(quantity)) * 2.5 * weight
	if score > 10 {
		score = 10
	}
	if score < 0 {
		score = 0
	}

	if s.logger != nil {
		s.logger.Debug(ctx, "Risk score computed", map[string]interface{}{
			"followerID": followerID,
			"symbol":     symbol,
			"quantity":   quantity,
			"score":      score,
		})
	}
	return score, nil
}
