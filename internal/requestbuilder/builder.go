// Package requestbuilder turns one leader trade plus follower settings
// into zero or more signed, bounds-checked copy-trade requests.
package requestbuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// Builder constructs validated CopyTradeRequests.
type Builder struct {
	signer *domain.Signer
	logger ports.Logger
	now    func() time.Time
}

// New creates a Builder.
func New(signer *domain.Signer, logger ports.Logger) (*Builder, error) {
	if signer == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for request builder")
	}
	return &Builder{signer: signer, logger: logger, now: time.Now}, nil
}

// Build produces one request per eligible follower. A failure building one
// follower's request is logged and skipped; it never aborts construction
// for the remaining followers.
func (b *Builder) Build(ctx context.Context, trade *domain.LeaderTrade, settings []domain.FollowerCopySettings) []*domain.CopyTradeRequest {
	requests := make([]*domain.CopyTradeRequest, 0, len(settings))
	for i := range settings {
		req, err := b.buildOne(trade, &settings[i])
		if err != nil {
			b.logger.Warn(ctx, "Skipping follower during request construction", map[string]interface{}{
				"followerID": settings[i].FollowerID,
				"tradeID":    trade.TradeID,
				"reason":     err.Error(),
			})
			continue
		}
		if req == nil {
			// Scaled quantity came out below one unit; silent drop.
			b.logger.Debug(ctx, "Dropping follower below minimum copy quantity", map[string]interface{}{
				"followerID": settings[i].FollowerID,
				"tradeID":    trade.TradeID,
			})
			continue
		}
		requests = append(requests, req)
	}
	return requests
}

// buildOne computes the scaled quantity for a single follower and signs
// the resulting request. Returns (nil, nil) when the follower must be
// silently dropped because the scaled quantity is below one unit.
func (b *Builder) buildOne(trade *domain.LeaderTrade, s *domain.FollowerCopySettings) (*domain.CopyTradeRequest, error) {
	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidTrade, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidSettings, err)
	}

	price := decimal.NewFromFloat(trade.Price)
	ratio := decimal.NewFromFloat(s.CopyRatio)
	maxAmount := decimal.NewFromFloat(s.MaxCopyAmount)

	// copy_quantity = floor(leader quantity * ratio)
	quantity := decimal.NewFromInt(trade.Quantity).Mul(ratio).Floor()
	copyValue := quantity.Mul(price)

	// When the notional exceeds the follower's cap, resize down to the
	// largest whole quantity the cap affords.
	if copyValue.GreaterThan(maxAmount) {
		quantity = maxAmount.Div(price).Floor()
		copyValue = quantity.Mul(price)
	}

	if quantity.LessThan(decimal.NewFromInt(1)) {
		return nil, nil
	}

	req := &domain.CopyTradeRequest{
		FollowerID:      s.FollowerID,
		LeaderID:        trade.LeaderID,
		OriginalTradeID: trade.TradeID,
		Symbol:          trade.Symbol,
		Action:          trade.Action,
		Quantity:        quantity.IntPart(),
		Price:           trade.Price,
		CopyRatio:       s.CopyRatio,
		MaxCopyAmount:   s.MaxCopyAmount,
		Timestamp:       b.now(),
	}
	req.Signature = b.signer.Sign(req)

	if !b.signer.Verify(req) {
		return nil, ports.ErrBadSignature
	}
	return req, nil
}
