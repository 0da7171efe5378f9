package duration

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/testorch/internal/errors"
)

// fakeClock advances by one millisecond on every reading.
type fakeClock struct {
	ticks atomic.Int64
	base  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.base.Add(time.Duration(c.ticks.Add(1)) * time.Millisecond)
}

func TestTracker_Elapsed(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	tr := NewTracker(WithClock(clock.Now))

	tr.RecordStart("A")       // t=1ms
	tr.RecordStart("B")       // t=2ms
	d, err := tr.Elapsed("A") // t=3ms
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 2*time.Millisecond {
		t.Errorf("Elapsed(A) = %v, want 2ms", d)
	}

	d, err = tr.Elapsed("B") // t=4ms
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 2*time.Millisecond {
		t.Errorf("Elapsed(B) = %v, want 2ms", d)
	}

	// Entries survive a read.
	if _, err := tr.Elapsed("A"); err != nil {
		t.Errorf("second Elapsed(A) should succeed, got %v", err)
	}
}

func TestTracker_MissingStartRecord(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	d, err := tr.Elapsed("never-started")
	if err == nil {
		t.Fatal("expected an error for an unknown id")
	}
	if d != 0 {
		t.Errorf("expected zero duration with error, got %v", d)
	}
	if !errors.Is(err, apperrors.ErrMissingStartRecord) {
		t.Errorf("expected ErrMissingStartRecord, got %v", err)
	}
	var missing apperrors.MissingStartRecordError
	if !errors.As(err, &missing) || missing.ID != "never-started" {
		t.Errorf("expected MissingStartRecordError for never-started, got %#v", err)
	}
}

func TestTracker_RecordStartOverwrites(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	tr := NewTracker(WithClock(clock.Now))

	tr.RecordStart("A")     // 1ms
	tr.RecordStart("A")     // 2ms
	d, _ := tr.Elapsed("A") // 3ms
	if d != time.Millisecond {
		t.Errorf("Elapsed after overwrite = %v, want 1ms", d)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tr.Len())
	}
}

func TestTracker_ResetAndShards(t *testing.T) {
	t.Parallel()
	tr := NewTracker(WithShards(1))
	for i := 0; i < 10; i++ {
		tr.RecordStart(fmt.Sprintf("t%d", i))
	}
	if tr.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", tr.Len())
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", tr.Len())
	}
	if _, err := tr.Elapsed("t0"); !errors.Is(err, apperrors.ErrMissingStartRecord) {
		t.Errorf("expected missing record after Reset, got %v", err)
	}

	if got := len(NewTracker(WithShards(0)).shards); got != DefaultShards {
		t.Errorf("WithShards(0) should keep the default, got %d shards", got)
	}
}

// TestTracker_ConcurrentAccess hammers the tracker from many goroutines with
// distinct and shared ids. Run with -race.
func TestTracker_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	tr := NewTracker()
	const goroutines = 200
	const perGoroutine = 50

	var wg sync.WaitGroup
	barrier := make(chan struct{})
	var failures atomic.Int64

	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(g int) {
			defer wg.Done()
			<-barrier
			for i := 0; i < perGoroutine; i++ {
				own := fmt.Sprintf("g%d-t%d", g, i)
				tr.RecordStart(own)
				tr.RecordStart("shared")
				d, err := tr.Elapsed(own)
				if err != nil || d < 0 {
					failures.Add(1)
				}
				if _, err := tr.Elapsed("shared"); err != nil {
					failures.Add(1)
				}
			}
		}(g)
	}
	close(barrier)
	wg.Wait()

	if n := failures.Load(); n != 0 {
		t.Errorf("%d lookups failed under contention", n)
	}
	if want := goroutines*perGoroutine + 1; tr.Len() != want {
		t.Errorf("Len() = %d, want %d", tr.Len(), want)
	}
}

// TestTracker_ElapsedUsesOwnStart_PropertyBased checks that for any set of
// distinct ids started in sequence and ended in reverse, each elapsed value
// is non-negative and derived from that id's own start.
func TestTracker_ElapsedUsesOwnStart_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("elapsed is measured from the id's own start", prop.ForAll(
		func(n int) bool {
			clock := newFakeClock()
			tr := NewTracker(WithClock(clock.Now))
			for i := 0; i < n; i++ {
				tr.RecordStart(fmt.Sprintf("id-%d", i)) // id-i started at tick i+1
			}
			// Reads happen in reverse order after the n starts.
			for i := n - 1; i >= 0; i-- {
				readTick := int64(n + (n - i))
				startTick := int64(i + 1)
				d, err := tr.Elapsed(fmt.Sprintf("id-%d", i))
				if err != nil || d < 0 {
					return false
				}
				if d != time.Duration(readTick-startTick)*time.Millisecond {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 200),
	))

	properties.TestingRun(t)
}
