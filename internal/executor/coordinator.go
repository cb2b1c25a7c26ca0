// Package executor runs admitted copy-trade requests concurrently with
// idempotency, balance checks, order placement, and result collection.
package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"copyTradeEngine/internal/confirm"
	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// copyIDNamespace makes copy ids deterministic per (follower, leader
// trade) pair: redundant fan-out of the same pair derives the same id,
// while a re-copy of a new leader trade derives a different one.
var copyIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("copy-trade-engine/copy-id"))

// Config holds coordinator tuning.
type Config struct {
	// MaxConcurrent bounds the number of copy tasks executing at once.
	MaxConcurrent int
}

// Coordinator executes admitted requests. All requests from one batch run
// concurrently and independently; one follower's outcome never blocks or
// cancels another's, and the batch always returns a result per request.
type Coordinator struct {
	cfg       Config
	inflight  ports.InflightStore
	oracle    ports.BalanceOracle
	orders    ports.OrderPlacer
	audit     ports.CopyAuditRepository
	registry  ports.FollowerRegistry
	messenger ports.Messenger
	gateway   *confirm.Gateway
	signer    *domain.Signer
	logger    ports.Logger
}

// New creates an execution coordinator.
func New(cfg Config, inflight ports.InflightStore, oracle ports.BalanceOracle, orders ports.OrderPlacer,
	audit ports.CopyAuditRepository, registry ports.FollowerRegistry, messenger ports.Messenger,
	gateway *confirm.Gateway, signer *domain.Signer, logger ports.Logger) (*Coordinator, error) {

	if inflight == nil || oracle == nil || orders == nil || audit == nil ||
		registry == nil || messenger == nil || gateway == nil || signer == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for execution coordinator")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 32
	}
	return &Coordinator{
		cfg:       cfg,
		inflight:  inflight,
		oracle:    oracle,
		orders:    orders,
		audit:     audit,
		registry:  registry,
		messenger: messenger,
		gateway:   gateway,
		signer:    signer,
		logger:    logger,
	}, nil
}

// DeriveCopyID returns the opaque copy id for a request.
func DeriveCopyID(req *domain.CopyTradeRequest) string {
	return uuid.NewSHA1(copyIDNamespace, []byte(req.FollowerID+":"+req.OriginalTradeID)).String()
}

// ExecuteBatch runs every request under a bounded task pool and joins on
// a barrier, returning one terminal result per request. Task failures are
// captured as results, never as batch errors; the batch is never
// cancelled once started.
func (c *Coordinator) ExecuteBatch(ctx context.Context, requests []*domain.CopyTradeRequest, settings map[string]domain.FollowerCopySettings) []*domain.CopyTradeResult {
	results := make([]*domain.CopyTradeResult, len(requests))

	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrent)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			results[i] = c.executeOne(ctx, req, settings[req.FollowerID])
			return nil
		})
	}
	// Tasks never return errors; Wait is purely the batch barrier.
	_ = g.Wait()
	return results
}

// executeOne drives a single copy through the idempotency guard, balance
// check, optional confirmation, and order placement.
func (c *Coordinator) executeOne(ctx context.Context, req *domain.CopyTradeRequest, cfg domain.FollowerCopySettings) *domain.CopyTradeResult {
	copyID := DeriveCopyID(req)
	requestedAt := time.Now()

	acquired, err := c.inflight.Acquire(ctx, copyID)
	if err != nil {
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusFailed,
			Error:  fmt.Sprintf("inflight guard unavailable: %v", err),
		})
	}
	if !acquired {
		return c.duplicate(ctx, req, copyID)
	}
	defer func() {
		// Release on every exit path, success or failure.
		if err := c.inflight.Release(context.WithoutCancel(ctx), copyID); err != nil {
			c.logger.Error(ctx, err, "Failed to release in-flight guard", map[string]interface{}{"copyID": copyID})
		}
	}()

	if !c.signer.Verify(req) {
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusFailed,
			Error:  ports.ErrBadSignature.Error(),
		})
	}

	snapshot, err := c.oracle.Snapshot(ctx, req.FollowerID)
	if err != nil {
		c.notify(ctx, req.FollowerID, fmt.Sprintf("Copy of %s could not be executed: balance check failed.", req.Symbol))
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusFailed,
			Error:  fmt.Sprintf("balance lookup: %v", err),
		})
	}
	if !snapshot.Active {
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusSkipped,
			Error:  ports.ErrAccountInactive.Error(),
		})
	}
	if snapshot.AvailableBalance < req.CopyValue() {
		c.notify(ctx, req.FollowerID, fmt.Sprintf("Copy of %s skipped: insufficient balance (need %.2f, have %.2f).",
			req.Symbol, req.CopyValue(), snapshot.AvailableBalance))
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusInsufficientBalance,
			Error:  ports.ErrInsufficientFunds.Error(),
		})
	}

	if cfg.RequireConfirmation {
		if res := c.confirmOrStop(ctx, req, copyID); res != nil {
			return c.finish(ctx, req, copyID, requestedAt, res)
		}
	}

	order, err := c.orders.PlaceOrder(ctx, ports.OrderRequest{
		UserID:    req.FollowerID,
		Symbol:    req.Symbol,
		Action:    req.Action,
		Quantity:  req.Quantity,
		Price:     req.Price,
		OrderType: "market",
		Metadata: map[string]string{
			"leader_id":         req.LeaderID,
			"original_trade_id": req.OriginalTradeID,
			"copy_ratio":        strconv.FormatFloat(req.CopyRatio, 'f', -1, 64),
			"risk_score":        strconv.FormatFloat(req.RiskScore, 'f', 2, 64),
		},
	})
	if err != nil {
		// Deliberately no retry: a delayed fill could execute far from
		// the leader's price.
		c.notify(ctx, req.FollowerID, fmt.Sprintf("Copy of %s %s failed to execute.", req.Symbol, req.Action))
		return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
			Status: domain.StatusFailed,
			Error:  fmt.Sprintf("%v: %v", ports.ErrOrderPlacementFailed, err),
		})
	}

	c.notify(ctx, req.FollowerID, fmt.Sprintf("Copied %s: %s %d %s @ %.2f.",
		req.LeaderID, req.Action, req.Quantity, req.Symbol, req.Price))
	return c.finish(ctx, req, copyID, requestedAt, &domain.CopyTradeResult{
		Status:    domain.StatusExecuted,
		TradeID:   order.TradeID,
		CopyValue: req.CopyValue(),
	})
}

// confirmOrStop drives the confirmation gateway. A nil return means the
// copy may proceed (explicit confirm, or timeout treated as implicit
// confirm); otherwise the returned result terminates the copy.
func (c *Coordinator) confirmOrStop(ctx context.Context, req *domain.CopyTradeRequest, copyID string) *domain.CopyTradeResult {
	outcome, err := c.gateway.Await(ctx, copyID, req)
	if err != nil {
		return &domain.CopyTradeResult{
			Status: domain.StatusConfirmationRequired,
			Error:  fmt.Sprintf("confirmation unavailable: %v", err),
		}
	}

	switch outcome {
	case confirm.OutcomeConfirmed, confirm.OutcomeTimeout:
		return nil
	case confirm.OutcomeCancelFollowing:
		if err := c.registry.StopFollowing(ctx, req.FollowerID, req.LeaderID); err != nil {
			c.logger.Error(ctx, err, "Failed to stop following after cancel reply", map[string]interface{}{
				"followerID": req.FollowerID,
				"leaderID":   req.LeaderID,
			})
		}
		return &domain.CopyTradeResult{Status: domain.StatusCancelled, Error: "follower cancelled subscription"}
	default: // confirm.OutcomeSkipped
		return &domain.CopyTradeResult{Status: domain.StatusConfirmationRequired, Error: "follower declined confirmation"}
	}
}

// duplicate reports a redundant execution attempt, echoing the prior
// outcome when the audit trail has one.
func (c *Coordinator) duplicate(ctx context.Context, req *domain.CopyTradeRequest, copyID string) *domain.CopyTradeResult {
	result := &domain.CopyTradeResult{
		Status:     domain.StatusDuplicate,
		CopyID:     copyID,
		FollowerID: req.FollowerID,
		LeaderID:   req.LeaderID,
		Timestamp:  time.Now(),
	}
	if prior, err := c.audit.FindByCopyID(ctx, copyID); err == nil && prior != nil {
		result.TradeID = prior.TradeID
		result.CopyValue = prior.CopyValue
		result.Error = fmt.Sprintf("prior outcome: %s", prior.Status)
	}
	c.logger.Info(ctx, "Duplicate copy attempt ignored", map[string]interface{}{
		"copyID":     copyID,
		"followerID": req.FollowerID,
	})
	return result
}

// finish fills in the result identity fields and persists the audit
// record for every terminal path.
func (c *Coordinator) finish(ctx context.Context, req *domain.CopyTradeRequest, copyID string, requestedAt time.Time, result *domain.CopyTradeResult) *domain.CopyTradeResult {
	result.CopyID = copyID
	result.FollowerID = req.FollowerID
	result.LeaderID = req.LeaderID
	result.Timestamp = time.Now()

	rec := &domain.CopyAuditRecord{
		CopyID:          copyID,
		FollowerID:      req.FollowerID,
		LeaderID:        req.LeaderID,
		OriginalTradeID: req.OriginalTradeID,
		Symbol:          req.Symbol,
		Signature:       req.Signature,
		Status:          result.Status,
		TradeID:         result.TradeID,
		CopyValue:       result.CopyValue,
		Error:           result.Error,
		RequestedAt:     requestedAt,
		CompletedAt:     result.Timestamp,
	}
	if err := c.audit.RecordResult(context.WithoutCancel(ctx), rec); err != nil {
		c.logger.Error(ctx, err, "Failed to persist copy audit record", map[string]interface{}{
			"copyID": copyID,
			"status": result.Status,
		})
	}
	return result
}

func (c *Coordinator) notify(ctx context.Context, followerID, text string) {
	if err := c.messenger.Send(ctx, ports.Message{Recipient: followerID, Text: text}); err != nil {
		c.logger.Warn(ctx, "Failed to notify follower", map[string]interface{}{
			"followerID": followerID,
			"error":      err.Error(),
		})
	}
}
