// Package redisstore backs the inflight guard and follower registry with
// Redis so multiple engine instances can share them.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// inflightTTL bounds how long an in-flight mark can outlive a crashed
// engine instance.
const inflightTTL = 5 * time.Minute

// InflightStore implements ports.InflightStore on Redis SET NX.
type InflightStore struct {
	client *redis.Client
	prefix string
}

// NewInflightStore creates a Redis-backed inflight store.
func NewInflightStore(client *redis.Client, prefix string) *InflightStore {
	if prefix == "" {
		prefix = "copytrade:inflight:"
	}
	return &InflightStore{client: client, prefix: prefix}
}

// Acquire marks a copy id as in flight; false if already marked.
func (s *InflightStore) Acquire(ctx context.Context, copyID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+copyID, 1, inflightTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis SETNX %s: %w", copyID, err)
	}
	return ok, nil
}

// Release clears the in-flight mark.
func (s *InflightStore) Release(ctx context.Context, copyID string) error {
	if err := s.client.Del(ctx, s.prefix+copyID).Err(); err != nil {
		return fmt.Errorf("redis DEL %s: %w", copyID, err)
	}
	return nil
}

// FollowerRegistry stores subscriptions as JSON members of a per-leader
// Redis hash keyed by follower id.
type FollowerRegistry struct {
	client *redis.Client
	prefix string
}

// NewFollowerRegistry creates a Redis-backed follower registry.
func NewFollowerRegistry(client *redis.Client, prefix string) *FollowerRegistry {
	if prefix == "" {
		prefix = "copytrade:followers:"
	}
	return &FollowerRegistry{client: client, prefix: prefix}
}

func (r *FollowerRegistry) key(leaderID string) string {
	return r.prefix + leaderID
}

// ActiveFollowers loads all subscriptions for a leader, skipping
// malformed entries.
func (r *FollowerRegistry) ActiveFollowers(ctx context.Context, leaderID string) ([]domain.FollowerCopySettings, error) {
	members, err := r.client.HGetAll(ctx, r.key(leaderID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", r.key(leaderID), err)
	}

	out := make([]domain.FollowerCopySettings, 0, len(members))
	for _, raw := range members {
		var s domain.FollowerCopySettings
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			// Skip malformed entries but continue.
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// StartFollowing registers a subscription.
func (r *FollowerRegistry) StartFollowing(ctx context.Context, settings domain.FollowerCopySettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal copy settings: %w", err)
	}
	added, err := r.client.HSetNX(ctx, r.key(settings.LeaderID), settings.FollowerID, string(data)).Result()
	if err != nil {
		return fmt.Errorf("redis HSETNX %s: %w", r.key(settings.LeaderID), err)
	}
	if !added {
		return ports.ErrAlreadyFollowing
	}
	return nil
}

// StopFollowing removes a subscription.
func (r *FollowerRegistry) StopFollowing(ctx context.Context, followerID, leaderID string) error {
	removed, err := r.client.HDel(ctx, r.key(leaderID), followerID).Result()
	if err != nil {
		return fmt.Errorf("redis HDEL %s: %w", r.key(leaderID), err)
	}
	if removed == 0 {
		return ports.ErrNotFound
	}
	return nil
}
