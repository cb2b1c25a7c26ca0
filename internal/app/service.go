package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"copyTradeEngine/config"
	"copyTradeEngine/internal/confirm"
	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/executor"
	"copyTradeEngine/internal/jobs"
	"copyTradeEngine/internal/metrics"
	"copyTradeEngine/internal/ports"
	"copyTradeEngine/internal/ratelimit"
	"copyTradeEngine/internal/requestbuilder"
	"copyTradeEngine/internal/risk"
)

// CopyTradingService orchestrates the copy-trade fan-out pipeline:
// registry lookup, request construction, risk and rate admission,
// concurrent execution, and metrics aggregation.
type CopyTradingService struct {
	cfg         *config.Config
	logger      ports.Logger
	registry    ports.FollowerRegistry
	builder     *requestbuilder.Builder
	gate        *risk.Gate
	limiter     *ratelimit.SlidingWindow
	coordinator *executor.Coordinator
	gateway     *confirm.Gateway
	aggregator  *metrics.Aggregator
	audit       ports.CopyAuditRepository
	leaderStats ports.LeaderStatsRepository
	messenger   ports.Messenger
	summaries   ports.SummaryPublisher // optional
	jobs        *jobs.Runner
}

// NewCopyTradingService creates the application service. The summary
// publisher may be nil when no bus is configured.
func NewCopyTradingService(
	cfg *config.Config,
	logger ports.Logger,
	registry ports.FollowerRegistry,
	builder *requestbuilder.Builder,
	gate *risk.Gate,
	limiter *ratelimit.SlidingWindow,
	coordinator *executor.Coordinator,
	gateway *confirm.Gateway,
	aggregator *metrics.Aggregator,
	audit ports.CopyAuditRepository,
	leaderStats ports.LeaderStatsRepository,
	messenger ports.Messenger,
	summaries ports.SummaryPublisher,
) (*CopyTradingService, error) {

	if cfg == nil || logger == nil || registry == nil || builder == nil || gate == nil ||
		limiter == nil || coordinator == nil || gateway == nil || aggregator == nil ||
		audit == nil || leaderStats == nil || messenger == nil {
		return nil, fmt.Errorf("missing required dependencies for CopyTradingService")
	}

	return &CopyTradingService{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		builder:     builder,
		gate:        gate,
		limiter:     limiter,
		coordinator: coordinator,
		gateway:     gateway,
		aggregator:  aggregator,
		audit:       audit,
		leaderStats: leaderStats,
		messenger:   messenger,
		summaries:   summaries,
		jobs:        jobs.NewRunner(logger),
	}, nil
}

// ProcessLeaderTrade fans one leader trade out to every admitted follower
// and returns the aggregate batch summary. Individual follower failures
// never fail the batch.
func (s *CopyTradingService) ProcessLeaderTrade(ctx context.Context, trade *domain.LeaderTrade) (*domain.BatchSummary, error) {
	start := time.Now()

	if err := trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrInvalidTrade, err)
	}

	followers, err := s.registry.ActiveFollowers(ctx, trade.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("lookup followers for leader %s: %w", trade.LeaderID, err)
	}
	s.logger.Info(ctx, "Processing leader trade", map[string]interface{}{
		"tradeID":   trade.TradeID,
		"leaderID":  trade.LeaderID,
		"symbol":    trade.Symbol,
		"followers": len(followers),
	})

	settings := make(map[string]domain.FollowerCopySettings, len(followers))
	for _, f := range followers {
		settings[f.FollowerID] = f
	}

	requests := s.builder.Build(ctx, trade, followers)
	byFollower := make(map[string]*domain.CopyTradeRequest, len(requests))
	for _, req := range requests {
		byFollower[req.FollowerID] = req
	}

	admitted, riskSkipped := s.gate.Filter(ctx, requests, settings)
	for _, res := range riskSkipped {
		if req, ok := byFollower[res.FollowerID]; ok {
			s.auditSkip(ctx, req, res.Error)
		}
	}

	// Sliding-window rate cap per follower; rejections are silent skips.
	final := admitted[:0]
	rateSkipped := 0
	for _, req := range admitted {
		if s.limiter.Allow(req.FollowerID) {
			final = append(final, req)
			continue
		}
		rateSkipped++
		s.auditSkip(ctx, req, "rate limit exceeded")
		s.logger.Info(ctx, "Request dropped by rate limiter", map[string]interface{}{
			"followerID": req.FollowerID,
			"tradeID":    trade.TradeID,
		})
	}

	results := s.coordinator.ExecuteBatch(ctx, final, settings)

	successful, failed := 0, 0
	copiedVolume := 0.0
	for _, res := range results {
		switch {
		case res.Status == domain.StatusExecuted:
			successful++
			copiedVolume += res.CopyValue
		case res.Status.IsFailure():
			failed++
		}
	}
	elapsed := time.Since(start)

	// Policy rejections are excluded from the success-rate base; a batch
	// with no attempted copies leaves the rate untouched.
	attempted := successful + failed
	if attempted > 0 {
		s.aggregator.RecordBatch(float64(successful)/float64(attempted), elapsed)
	} else {
		s.aggregator.RecordIdleBatch(elapsed)
	}

	if err := s.leaderStats.RecordBatch(ctx, trade.LeaderID, successful, failed, copiedVolume); err != nil {
		s.logger.Error(ctx, err, "Failed to update leader aggregates", map[string]interface{}{"leaderID": trade.LeaderID})
	}

	summary := &domain.BatchSummary{
		Status:           "completed",
		LeaderID:         trade.LeaderID,
		OriginalTradeID:  trade.TradeID,
		TotalFollowers:   len(followers),
		SuccessfulCopies: successful,
		FailedCopies:     failed,
		SkippedCopies:    len(followers) - successful - failed,
		ProcessingTime:   elapsed,
	}

	if s.summaries != nil {
		if err := s.summaries.PublishSummary(ctx, summary); err != nil {
			s.logger.Error(ctx, err, "Failed to publish batch summary", map[string]interface{}{"tradeID": trade.TradeID})
		}
	}
	s.notifyLeader(ctx, summary)

	s.logger.Info(ctx, "Leader trade processed", map[string]interface{}{
		"tradeID":     trade.TradeID,
		"successful":  successful,
		"failed":      failed,
		"riskSkipped": len(riskSkipped),
		"rateSkipped": rateSkipped,
		"elapsed":     elapsed.String(),
	})
	return summary, nil
}

// StartFollowing subscribes a follower to a leader.
func (s *CopyTradingService) StartFollowing(ctx context.Context, settings domain.FollowerCopySettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrInvalidSettings, err)
	}

	known, err := s.leaderStats.HasLeader(ctx, settings.LeaderID)
	if err != nil {
		return fmt.Errorf("check leader %s: %w", settings.LeaderID, err)
	}
	if !known {
		return ports.ErrInvalidLeader
	}

	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = time.Now()
	}
	if err := s.registry.StartFollowing(ctx, settings); err != nil {
		return err
	}
	if err := s.leaderStats.AdjustFollowers(ctx, settings.LeaderID, 1); err != nil {
		s.logger.Error(ctx, err, "Failed to bump follower count", map[string]interface{}{"leaderID": settings.LeaderID})
	}
	s.logger.Info(ctx, "Follower subscribed", map[string]interface{}{
		"followerID": settings.FollowerID,
		"leaderID":   settings.LeaderID,
		"copyRatio":  settings.CopyRatio,
	})
	return nil
}

// StopFollowing removes a follower's subscription to a leader.
func (s *CopyTradingService) StopFollowing(ctx context.Context, followerID, leaderID string) error {
	if err := s.registry.StopFollowing(ctx, followerID, leaderID); err != nil {
		return err
	}
	if err := s.leaderStats.AdjustFollowers(ctx, leaderID, -1); err != nil {
		s.logger.Error(ctx, err, "Failed to drop follower count", map[string]interface{}{"leaderID": leaderID})
	}
	return nil
}

// Leaderboard returns the top leaders for a timeframe, tiered by
// follower count.
func (s *CopyTradingService) Leaderboard(ctx context.Context, timeframe string, limit int) ([]*domain.LeaderStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.leaderStats.TopLeaders(ctx, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	for _, row := range rows {
		row.Tier = domain.TierForFollowers(row.FollowersCount)
	}
	return rows, nil
}

// HandleConfirmationReply routes an async confirmation reply from the
// messaging gateway to its waiting execution task.
func (s *CopyTradingService) HandleConfirmationReply(copyID, reply string) error {
	err := s.gateway.Resolve(copyID, reply)
	if errors.Is(err, ports.ErrNotFound) {
		// Late reply after timeout; nothing is waiting.
		s.logger.Debug(context.Background(), "Discarding late confirmation reply", map[string]interface{}{"copyID": copyID})
		return nil
	}
	return err
}

// Performance returns the smoothed process-wide performance snapshot.
func (s *CopyTradingService) Performance() metrics.PerformanceState {
	return s.aggregator.Snapshot()
}

// StartJobs schedules the supervised maintenance jobs. They stop when
// ctx is cancelled.
func (s *CopyTradingService) StartJobs(ctx context.Context) error {
	err := s.jobs.Schedule(ctx, "ratelimit-prune", s.cfg.RateLimitPruneInterval, func(ctx context.Context) error {
		removed := s.limiter.Prune()
		if removed > 0 {
			s.logger.Debug(ctx, "Pruned idle rate-limiter histories", map[string]interface{}{"removed": removed})
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.jobs.Schedule(ctx, "performance-snapshot", s.cfg.MetricsLogInterval, func(ctx context.Context) error {
		state := s.aggregator.Snapshot()
		s.logger.Info(ctx, "Performance snapshot", map[string]interface{}{
			"tradesProcessed":   state.TradesProcessed,
			"successRate":       state.SuccessRate,
			"avgProcessingTime": state.AvgProcessingTime.String(),
		})
		return nil
	})
}

// WaitJobs blocks until all scheduled jobs have stopped.
func (s *CopyTradingService) WaitJobs() {
	s.jobs.Wait()
}

// auditSkip persists the audit record for a copy rejected before it
// reached the coordinator. Skips are terminal outcomes too.
func (s *CopyTradingService) auditSkip(ctx context.Context, req *domain.CopyTradeRequest, reason string) {
	now := time.Now()
	rec := &domain.CopyAuditRecord{
		CopyID:          executor.DeriveCopyID(req),
		FollowerID:      req.FollowerID,
		LeaderID:        req.LeaderID,
		OriginalTradeID: req.OriginalTradeID,
		Symbol:          req.Symbol,
		Signature:       req.Signature,
		Status:          domain.StatusSkipped,
		Error:           reason,
		RequestedAt:     req.Timestamp,
		CompletedAt:     now,
	}
	if err := s.audit.RecordResult(ctx, rec); err != nil {
		s.logger.Error(ctx, err, "Failed to persist skip audit record", map[string]interface{}{
			"copyID":     rec.CopyID,
			"followerID": req.FollowerID,
		})
	}
}

func (s *CopyTradingService) notifyLeader(ctx context.Context, summary *domain.BatchSummary) {
	text := fmt.Sprintf("Your trade %s was copied by %d follower(s): %d executed, %d failed, %d skipped.",
		summary.OriginalTradeID, summary.TotalFollowers, summary.SuccessfulCopies, summary.FailedCopies, summary.SkippedCopies)
	if err := s.messenger.Send(ctx, ports.Message{Recipient: summary.LeaderID, Text: text}); err != nil {
		s.logger.Warn(ctx, "Failed to notify leader", map[string]interface{}{
			"leaderID": summary.LeaderID,
			"error":    err.Error(),
		})
	}
}
