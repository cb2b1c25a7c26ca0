// Package ratelimit provides a per-follower sliding-window admission cap.
package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindow admits up to Limit events per follower within Window.
// It keeps an ordered list of admission timestamps per follower; stale
// entries are discarded on each check. Rejections are silent skips.
type SlidingWindow struct {
	window time.Duration
	limit  int

	mu      sync.Mutex
	history map[string][]time.Time
	now     func() time.Time
}

// NewSlidingWindow creates a limiter admitting limit events per window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindow{
		window:  window,
		limit:   limit,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the follower may be admitted now, recording the
// admission timestamp when it is.
func (l *SlidingWindow) Allow(followerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.trim(followerID, now)
	if len(recent) >= l.limit {
		l.history[followerID] = recent
		return false
	}
	l.history[followerID] = append(recent, now)
	return true
}

// Prune drops followers whose entire history has aged out of the window.
// Intended to be run as a recurring job so idle followers do not pin
// memory.
func (l *SlidingWindow) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for id := range l.history {
		if recent := l.trim(id, now); len(recent) == 0 {
			delete(l.history, id)
			removed++
		} else {
			l.history[id] = recent
		}
	}
	return removed
}

// trim returns the follower's admissions still inside the window.
// Caller must hold the mutex.
func (l *SlidingWindow) trim(followerID string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	entries := l.history[followerID]
	i := 0
	for i < len(entries) && !entries[i].After(cutoff) {
		i++
	}
	return entries[i:]
}
