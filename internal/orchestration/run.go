package orchestration

import (
	"sync"
	"time"

	"github.com/agbru/testorch/internal/parallel"
	"github.com/agbru/testorch/internal/suite"
)

// Status is the outcome of one unit of work.
type Status string

const (
	// StatusPassed means the test ran and recorded no failure or error.
	StatusPassed Status = "passed"
	// StatusFailed means the test recorded assertion failures only.
	StatusFailed Status = "failed"
	// StatusErrored means the test recorded at least one error.
	StatusErrored Status = "errored"
	// StatusInterrupted means the test was running when the pool was
	// force-cancelled.
	StatusInterrupted Status = "interrupted"
	// StatusNotRun means the test was discarded from the queue.
	StatusNotRun Status = "not_run"
)

// TestRecord is the outcome of one top-level test of the suite.
type TestRecord struct {
	// Index is the position of the test in the suite.
	Index int
	// Name is the display name of the test.
	Name string
	// Token is the unique key under which its start time was tracked.
	Token    string
	Status   Status
	Duration time.Duration
	// TestCases is the number of test cases the test declares.
	TestCases int
	// RunCount is the number of test cases that actually started.
	RunCount int
	Failures []suite.Failure
	Errors   []suite.Failure
}

// Counts tallies records by status.
type Counts struct {
	Passed      int
	Failed      int
	Errored     int
	Interrupted int
	NotRun      int
}

// Total returns the number of records counted.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Errored + c.Interrupted + c.NotRun
}

// Report is the final view of a run.
type Report struct {
	RunID     string
	Suite     string
	StartedAt time.Time
	Elapsed   time.Duration
	// Records holds one entry per top-level test, in submission order.
	Records []TestRecord
	// Shutdown describes how the pool terminated.
	Shutdown parallel.ShutdownResult
	// Panics counts panics that escaped a unit of work entirely.
	Panics int
}

// Counts tallies the records by status.
func (r *Report) Counts() Counts {
	var c Counts
	for _, rec := range r.Records {
		switch rec.Status {
		case StatusPassed:
			c.Passed++
		case StatusFailed:
			c.Failed++
		case StatusErrored:
			c.Errored++
		case StatusInterrupted:
			c.Interrupted++
		case StatusNotRun:
			c.NotRun++
		}
	}
	return c
}

// Forced reports whether the pool had to be force-cancelled.
func (r *Report) Forced() bool { return r.Shutdown.Forced }

// Successful reports whether every test passed and the pool drained
// gracefully.
func (r *Report) Successful() bool {
	return !r.Forced() && r.Counts().Passed == len(r.Records)
}

// TestCasesRun sums RunCount over all records.
func (r *Report) TestCasesRun() int {
	n := 0
	for _, rec := range r.Records {
		n += rec.RunCount
	}
	return n
}

type slotState uint8

const (
	slotQueued slotState = iota
	slotRunning
	slotDone
)

// Run is the handle on a dispatched suite. It completes once the worker pool
// terminated.
type Run struct {
	id        string
	suiteName string
	startedAt time.Time
	progress  func(ProgressUpdate)
	done      chan struct{}

	mu      sync.Mutex
	records []TestRecord
	slots   []slotState
	detach  []func()
	sealed  bool
	report  *Report
}

func newRun(id string, s *suite.Suite, tests []suite.Test, progress func(ProgressUpdate)) *Run {
	r := &Run{
		id:        id,
		suiteName: s.Name(),
		startedAt: time.Now(),
		progress:  progress,
		done:      make(chan struct{}),
		records:   make([]TestRecord, len(tests)),
		slots:     make([]slotState, len(tests)),
		detach:    make([]func(), len(tests)),
	}
	for i, t := range tests {
		r.records[i] = TestRecord{Index: i, Name: t.Name(), TestCases: t.CountTestCases()}
	}
	return r
}

// ID returns the unique identifier of the run.
func (r *Run) ID() string { return r.id }

// Done is closed once the run completed and its Report is available.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run completed and returns its Report.
func (r *Run) Wait() *Report {
	<-r.done
	return r.report
}

func (r *Run) assign(idx int, token string) {
	r.mu.Lock()
	r.records[idx].Token = token
	r.mu.Unlock()
}

// markRunning records that the unit at idx started. detach is called if the
// run is sealed before the unit completes. It reports false when the run was
// already sealed.
func (r *Run) markRunning(idx int, detach func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return false
	}
	r.slots[idx] = slotRunning
	r.detach[idx] = detach
	return true
}

// complete stores the outcome of a unit of work. Units that finish after the
// run was sealed are ignored: their status was already fixed as interrupted.
func (r *Run) complete(rec TestRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return false
	}
	rec.Token = r.records[rec.Index].Token
	r.records[rec.Index] = rec
	r.slots[rec.Index] = slotDone
	if r.progress != nil {
		r.progress(ProgressUpdate{Index: rec.Index, Name: rec.Name, Status: rec.Status, Total: len(r.records)})
	}
	return true
}

// seal fixes the status of unfinished records and publishes the Report.
// The discarded and abandoned counts of res are taken from the records, so
// they always match the not_run and still-running entries: the pool may count
// a task as started that had not reached its record yet.
func (r *Run) seal(res parallel.ShutdownResult, panics int) {
	r.mu.Lock()
	r.sealed = true
	res.Discarded, res.Abandoned = 0, 0
	for i := range r.records {
		switch r.slots[i] {
		case slotQueued:
			r.records[i].Status = StatusNotRun
			res.Discarded++
		case slotRunning:
			r.records[i].Status = StatusInterrupted
			res.Abandoned++
			if r.detach[i] != nil {
				r.detach[i]()
			}
		}
	}
	r.report = &Report{
		RunID:     r.id,
		Suite:     r.suiteName,
		StartedAt: r.startedAt,
		Elapsed:   time.Since(r.startedAt),
		Records:   append([]TestRecord(nil), r.records...),
		Shutdown:  res,
		Panics:    panics,
	}
	r.mu.Unlock()
	close(r.done)
}
