// Package memstore provides in-process implementations of the inflight
// guard and follower registry for single-node deployments and tests.
package memstore

import (
	"context"
	"sync"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// InflightStore is a mutex-guarded in-flight copy id set.
type InflightStore struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

// NewInflightStore creates an empty in-flight store.
func NewInflightStore() *InflightStore {
	return &InflightStore{ids: make(map[string]struct{})}
}

// Acquire marks a copy id as in flight; false if already marked.
func (s *InflightStore) Acquire(ctx context.Context, copyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[copyID]; exists {
		return false, nil
	}
	s.ids[copyID] = struct{}{}
	return true, nil
}

// Release clears the in-flight mark.
func (s *InflightStore) Release(ctx context.Context, copyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, copyID)
	return nil
}

// FollowerRegistry is an in-memory subscription store keyed by leader.
type FollowerRegistry struct {
	mu   sync.RWMutex
	subs map[string]map[string]domain.FollowerCopySettings // leaderID -> followerID -> settings
}

// NewFollowerRegistry creates an empty registry.
func NewFollowerRegistry() *FollowerRegistry {
	return &FollowerRegistry{subs: make(map[string]map[string]domain.FollowerCopySettings)}
}

// ActiveFollowers returns the copy settings of a leader's followers.
func (r *FollowerRegistry) ActiveFollowers(ctx context.Context, leaderID string) ([]domain.FollowerCopySettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	followers := r.subs[leaderID]
	out := make([]domain.FollowerCopySettings, 0, len(followers))
	for _, s := range followers {
		out = append(out, s)
	}
	return out, nil
}

// StartFollowing registers a subscription.
func (r *FollowerRegistry) StartFollowing(ctx context.Context, settings domain.FollowerCopySettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	followers, ok := r.subs[settings.LeaderID]
	if !ok {
		followers = make(map[string]domain.FollowerCopySettings)
		r.subs[settings.LeaderID] = followers
	}
	if _, exists := followers[settings.FollowerID]; exists {
		return ports.ErrAlreadyFollowing
	}
	followers[settings.FollowerID] = settings
	return nil
}

// StopFollowing removes a subscription.
func (r *FollowerRegistry) StopFollowing(ctx context.Context, followerID, leaderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	followers := r.subs[leaderID]
	if _, exists := followers[followerID]; !exists {
		return ports.ErrNotFound
	}
	delete(followers, followerID)
	return nil
}
