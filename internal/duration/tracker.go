// Package duration measures per-test wall-clock time. A Tracker maps a test
// identifier to the instant its start was observed and computes the elapsed
// time when the end is observed, from any number of goroutines at once.
package duration

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	apperrors "github.com/agbru/testorch/internal/errors"
)

// DefaultShards is the number of independently locked partitions.
const DefaultShards = 32

type shard struct {
	mu     sync.RWMutex
	starts map[string]time.Time
}

// Tracker is a concurrency-safe store of start instants keyed by test
// identifier. Goroutines only contend when their identifiers hash to the same
// shard.
type Tracker struct {
	shards []shard
	now    func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithShards sets the number of partitions. Values below 1 are ignored.
func WithShards(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.shards = make([]shard, n)
		}
	}
}

// NewTracker creates an empty Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		shards: make([]shard, DefaultShards),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	for i := range t.shards {
		t.shards[i].starts = make(map[string]time.Time)
	}
	return t
}

func (t *Tracker) shardFor(id string) *shard {
	return &t.shards[xxhash.Sum64String(id)%uint64(len(t.shards))]
}

// RecordStart stores the current instant for id, replacing any earlier one.
func (t *Tracker) RecordStart(id string) {
	now := t.now()
	s := t.shardFor(id)
	s.mu.Lock()
	s.starts[id] = now
	s.mu.Unlock()
}

// Elapsed returns the time since the start recorded for id. The entry is kept,
// so Elapsed may be called again. It fails with a
// apperrors.MissingStartRecordError when no start was recorded for id.
func (t *Tracker) Elapsed(id string) (time.Duration, error) {
	s := t.shardFor(id)
	s.mu.RLock()
	start, ok := s.starts[id]
	s.mu.RUnlock()
	if !ok {
		return 0, apperrors.MissingStartRecordError{ID: id}
	}
	return t.now().Sub(start), nil
}

// Len returns the number of recorded identifiers.
func (t *Tracker) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		n += len(s.starts)
		s.mu.RUnlock()
	}
	return n
}

// Reset forgets every recorded start.
func (t *Tracker) Reset() {
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		clear(s.starts)
		s.mu.Unlock()
	}
}
