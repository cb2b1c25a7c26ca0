package ports

import (
	"context"

	"copyTradeEngine/internal/domain"
)

// FollowerRegistry stores follower subscriptions and their copy settings.
// The engine's hot path only reads; writes happen through the explicit
// subscribe/unsubscribe operations.
type FollowerRegistry interface {
	// ActiveFollowers returns the copy settings of all active followers
	// of a leader.
	ActiveFollowers(ctx context.Context, leaderID string) ([]domain.FollowerCopySettings, error)
	// StartFollowing registers a follower's subscription.
	// Returns ErrAlreadyFollowing if the pair already exists.
	StartFollowing(ctx context.Context, settings domain.FollowerCopySettings) error
	// StopFollowing removes a follower's subscription to a leader.
	// Returns ErrNotFound if no such subscription exists.
	StopFollowing(ctx context.Context, followerID, leaderID string) error
}

// InflightStore guards against concurrent duplicate executions of one
// copy id. It is a process-local (or shared cache) guard, not a system
// of record; entries are short-lived.
type InflightStore interface {
	// Acquire marks a copy id as in flight. It returns false if the id
	// is already marked, in which case the caller must not execute.
	Acquire(ctx context.Context, copyID string) (bool, error)
	// Release clears the in-flight mark. Callers must release on every
	// exit path, success or failure.
	Release(ctx context.Context, copyID string) error
}
