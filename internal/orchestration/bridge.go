package orchestration

import (
	"sync"

	"github.com/agbru/testorch/internal/duration"
	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/metrics"
	"github.com/agbru/testorch/internal/suite"
)

// Status codes attached to "test failed" log lines.
const (
	StatusFailure = 1
	StatusError   = 2
)

// listenerBridge connects one unit of work to the Dispatcher's shared state.
// It is attached to a single Result, so its listener methods run on one
// worker; detach may be called from the goroutine sealing the Run.
type listenerBridge struct {
	token    string
	tracker  *duration.Tracker
	logger   logging.Logger
	recorder metrics.Recorder

	mu sync.Mutex
	// open is the test case between StartTest and EndTest, if any.
	open    suite.Test
	outcome Status
	// detached is set once the Run was sealed with this unit unfinished.
	// Metrics are no longer reported after that.
	detached bool
}

var _ suite.Listener = (*listenerBridge)(nil)

func newListenerBridge(token string, tracker *duration.Tracker, logger logging.Logger, recorder metrics.Recorder) *listenerBridge {
	return &listenerBridge{token: token, tracker: tracker, logger: logger, recorder: recorder}
}

func (b *listenerBridge) StartTest(t suite.Test) {
	b.mu.Lock()
	b.open = t
	b.outcome = StatusPassed
	report := !b.detached
	b.mu.Unlock()

	b.logger.Info("test started", logging.String("test", t.Name()), logging.String("token", b.token))
	b.tracker.RecordStart(b.token)
	if report {
		b.recorder.TestStarted(t.Name())
	}
}

func (b *listenerBridge) EndTest(t suite.Test) {
	b.mu.Lock()
	b.open = nil
	outcome, report := b.outcome, !b.detached
	b.mu.Unlock()

	elapsed, err := b.tracker.Elapsed(b.token)
	if err != nil {
		b.logger.Info("test ended",
			logging.String("test", t.Name()),
			logging.String("duration", "unavailable"),
			logging.Err(err))
		if report {
			b.recorder.DurationUnavailable()
			b.recorder.TestFinished(string(outcome), -1)
		}
		return
	}
	b.logger.Info("test ended",
		logging.String("test", t.Name()),
		logging.Int64("elapsed_ms", elapsed.Milliseconds()))
	if report {
		b.recorder.TestFinished(string(outcome), elapsed)
	}
}

// detach stops metric reporting for a unit left running by a forced
// shutdown. A test case still open is released from the in-flight gauge.
func (b *listenerBridge) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detached {
		return
	}
	b.detached = true
	if b.open != nil {
		b.recorder.TestAbandoned()
	}
}

// AddError logs the error; the Result has already recorded it.
func (b *listenerBridge) AddError(t suite.Test, err error) {
	b.mu.Lock()
	b.outcome = StatusErrored
	b.mu.Unlock()
	b.logger.Error("test failed", err,
		logging.String("test", t.Name()),
		logging.Int("status", StatusError))
}

// AddFailure logs the failure; the Result has already recorded it.
func (b *listenerBridge) AddFailure(t suite.Test, failure *suite.AssertionError) {
	b.mu.Lock()
	if b.outcome != StatusErrored {
		b.outcome = StatusFailed
	}
	b.mu.Unlock()
	b.logger.Error("test failed", failure,
		logging.String("test", t.Name()),
		logging.Int("status", StatusFailure))
}

// openTest returns the test case still awaiting EndTest.
func (b *listenerBridge) openTest() suite.Test {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}
