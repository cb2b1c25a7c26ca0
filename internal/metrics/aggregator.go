// Package metrics smooths batch outcomes into process-wide performance
// figures using exponential moving averages.
package metrics

import (
	"sync"
	"time"
)

// DefaultAlpha is the EMA smoothing factor applied per batch.
const DefaultAlpha = 0.1

// PerformanceState is the process-wide smoothed performance snapshot,
// mutated once per processed batch.
type PerformanceState struct {
	TradesProcessed   int64         // Total batches folded in
	AvgProcessingTime time.Duration // EMA of batch processing time
	SuccessRate       float64       // EMA of batch success rate, in [0, 1]
}

// Aggregator folds batch results into the performance state.
type Aggregator struct {
	alpha float64

	mu          sync.Mutex
	state       PerformanceState
	rateSamples int64 // Batches that carried a success rate
}

// NewAggregator creates an aggregator with the given smoothing factor.
// Alpha outside (0, 1] falls back to DefaultAlpha.
func NewAggregator(alpha float64) *Aggregator {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Aggregator{alpha: alpha}
}

// RecordBatch folds one batch's success rate and processing time into the
// smoothed state. The first sample of each series seeds its EMA directly.
func (a *Aggregator) RecordBatch(successRate float64, processingTime time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rateSamples == 0 {
		a.state.SuccessRate = successRate
	} else {
		a.state.SuccessRate = a.alpha*successRate + (1-a.alpha)*a.state.SuccessRate
	}
	a.rateSamples++
	a.foldProcessingTime(processingTime)
	a.state.TradesProcessed++
}

// RecordIdleBatch folds a batch in which no copy was attempted: every
// follower was rejected by policy or none existed. The success-rate EMA
// is left untouched so quiet batches cannot drift it.
func (a *Aggregator) RecordIdleBatch(processingTime time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.foldProcessingTime(processingTime)
	a.state.TradesProcessed++
}

// foldProcessingTime smooths the batch processing time. Caller must hold
// the mutex.
func (a *Aggregator) foldProcessingTime(processingTime time.Duration) {
	if a.state.TradesProcessed == 0 {
		a.state.AvgProcessingTime = processingTime
		return
	}
	smoothed := a.alpha*float64(processingTime) + (1-a.alpha)*float64(a.state.AvgProcessingTime)
	a.state.AvgProcessingTime = time.Duration(smoothed)
}

// Snapshot returns a copy of the current performance state.
func (a *Aggregator) Snapshot() PerformanceState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}
