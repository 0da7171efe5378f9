package orchestration

import (
	"time"

	"github.com/agbru/testorch/internal/format"
)

// ProgressAggregator turns per-test updates into run-level progress.
// It wraps format.ProgressWithETA and is meant to be driven by a single
// goroutine consuming the progress channel.
type ProgressAggregator struct {
	state  *format.ProgressWithETA
	total  int
	failed int
}

// NewProgressAggregator creates an aggregator for total units of work.
// Returns nil if total <= 0.
func NewProgressAggregator(total int) *ProgressAggregator {
	if total <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state: format.NewProgressWithETA(total),
		total: total,
	}
}

// AggregatedProgress holds the result of processing a single update.
type AggregatedProgress struct {
	// Last is the update that was processed.
	Last ProgressUpdate
	// Completed is the number of finished units of work.
	Completed int
	// Failed is the number of finished units that did not pass.
	Failed int
	// Fraction is Completed/Total, between 0 and 1.
	Fraction float64
	// ETA is the estimated time remaining based on the smoothed completion rate.
	ETA time.Duration
}

// Update processes a single update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	if update.Status != StatusPassed {
		a.failed++
	}
	fraction, eta := a.state.Advance(1)
	return AggregatedProgress{
		Last:      update,
		Completed: a.state.Completed(),
		Failed:    a.failed,
		Fraction:  fraction,
		ETA:       eta,
	}
}

// Fraction returns the current completion fraction without updating.
// Useful for periodic refresh between updates.
func (a *ProgressAggregator) Fraction() float64 {
	return a.state.Fraction()
}

// ETA returns the current estimate without updating.
func (a *ProgressAggregator) ETA() time.Duration {
	return a.state.ETA()
}

// Total returns the number of units of work being tracked.
func (a *ProgressAggregator) Total() int {
	return a.total
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
