package ports

import (
	"context"

	"copyTradeEngine/internal/domain"
)

// CopyAuditRepository persists the per-copy audit trail.
type CopyAuditRepository interface {
	// RecordResult saves the terminal audit record for one copy.
	RecordResult(ctx context.Context, rec *domain.CopyAuditRecord) error
	// FindByCopyID retrieves the most recent audit record for a copy id.
	// Returns nil, nil if none exists.
	FindByCopyID(ctx context.Context, copyID string) (*domain.CopyAuditRecord, error)
}

// LeaderStatsRepository persists per-leader aggregate copy statistics and
// backs the leaderboard query.
type LeaderStatsRepository interface {
	// HasLeader reports whether a leader is registered.
	HasLeader(ctx context.Context, leaderID string) (bool, error)
	// RecordBatch folds one batch's outcome into the leader's aggregates.
	RecordBatch(ctx context.Context, leaderID string, successful, failed int, copiedVolume float64) error
	// AdjustFollowers changes the leader's follower count by delta.
	AdjustFollowers(ctx context.Context, leaderID string, delta int64) error
	// TopLeaders returns up to limit leaders ordered by return percentage
	// for the given timeframe ("7d", "30d", or "all").
	TopLeaders(ctx context.Context, timeframe string, limit int) ([]*domain.LeaderStats, error)
}
