// Package jobs runs named recurring maintenance jobs with supervised
// lifecycles instead of fire-and-forget goroutines.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"copyTradeEngine/internal/ports"
)

var (
	ErrEmptyName  = errors.New("job runner: empty job name")
	ErrNilHandler = errors.New("job runner: nil handler")
	ErrJobExists  = errors.New("job runner: job already scheduled")
)

// Handler performs one run of a recurring job. A returned error is logged
// and the schedule continues.
type Handler func(ctx context.Context) error

// Runner schedules recurring jobs tied to a base context. All jobs stop
// when the context is cancelled; Wait blocks until they have drained.
type Runner struct {
	logger ports.Logger

	mu   sync.Mutex
	jobs map[string]struct{}
	wg   sync.WaitGroup
}

// NewRunner creates a job runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger, jobs: make(map[string]struct{})}
}

// Schedule registers a job to run every interval until ctx is cancelled.
// The first run happens after one interval, not immediately.
func (r *Runner) Schedule(ctx context.Context, name string, interval time.Duration, handler Handler) error {
	if name == "" {
		return ErrEmptyName
	}
	if handler == nil {
		return ErrNilHandler
	}
	if interval <= 0 {
		return fmt.Errorf("job runner: non-positive interval for %q", name)
	}

	r.mu.Lock()
	if _, exists := r.jobs[name]; exists {
		r.mu.Unlock()
		return ErrJobExists
	}
	r.jobs[name] = struct{}{}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, name, interval, handler)
	return nil
}

func (r *Runner) run(ctx context.Context, name string, interval time.Duration, handler Handler) {
	defer func() {
		r.mu.Lock()
		delete(r.jobs, name)
		r.mu.Unlock()
		r.wg.Done()
	}()

	r.logger.Info(ctx, "Recurring job scheduled", map[string]interface{}{"job": name, "interval": interval.String()})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info(ctx, "Recurring job stopped", map[string]interface{}{"job": name})
			return
		case <-ticker.C:
			if err := handler(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.Error(ctx, err, "Recurring job run failed", map[string]interface{}{"job": name})
			}
		}
	}
}

// Wait blocks until all scheduled jobs have stopped.
func (r *Runner) Wait() {
	r.wg.Wait()
}
