package orchestration

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/testorch/internal/duration"
	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/metrics"
	"github.com/agbru/testorch/internal/parallel"
	"github.com/agbru/testorch/internal/suite"
)

// DefaultDrainTimeout is the ceiling on waiting for in-flight work once every
// test was submitted.
const DefaultDrainTimeout = 60 * time.Minute

const tracerName = "github.com/agbru/testorch/internal/orchestration"

// Options configures a Dispatcher. Zero values take defaults.
type Options struct {
	// PoolSize is the number of workers. Defaults to runtime.NumCPU().
	PoolSize int
	// DrainTimeout bounds the Draining state. Defaults to DefaultDrainTimeout.
	DrainTimeout time.Duration
	// GracePeriod is how long a forced shutdown waits for cancelled tests to
	// return. Zero returns immediately.
	GracePeriod time.Duration
}

func (o Options) withDefaults() Options {
	if o.PoolSize < 1 {
		o.PoolSize = runtime.NumCPU()
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.GracePeriod < 0 {
		o.GracePeriod = 0
	}
	return o
}

// Dispatcher runs the top-level tests of a suite concurrently. The duration
// tracker it owns is shared by every run and never cleared automatically.
type Dispatcher struct {
	opts     Options
	logger   logging.Logger
	recorder metrics.Recorder
	tracer   trace.Tracer
	tracker  *duration.Tracker
	progress func(ProgressUpdate)
	seq      atomic.Uint64
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithTracer sets the tracer used for run and test spans.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithTracker replaces the duration tracker, typically with one using an
// injected clock.
func WithTracker(t *duration.Tracker) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracker = t
		}
	}
}

// WithProgress registers a callback invoked once per finished unit of work.
// It is called with the run's lock held and must not block; it is never
// called after Run.Wait returned.
func WithProgress(fn func(ProgressUpdate)) Option {
	return func(d *Dispatcher) { d.progress = fn }
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts Options, logger logging.Logger, options ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	d := &Dispatcher{
		opts:     opts.withDefaults(),
		logger:   logger,
		recorder: metrics.NopRecorder{},
		tracer:   otel.Tracer(tracerName),
		tracker:  duration.NewTracker(),
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// Options returns the effective options.
func (d *Dispatcher) Options() Options { return d.opts }

// Tracker returns the shared duration tracker.
func (d *Dispatcher) Tracker() *duration.Tracker { return d.tracker }

// RunAll submits every top-level test of s to a fresh worker pool, in order,
// then starts the shutdown protocol in the background and returns. Cancelling
// ctx while the run drains forces cancellation of the remaining work.
//
// Parameters:
//   - ctx: Governs the wait for in-flight work and parents the trace spans.
//   - s: The suite whose direct children are dispatched.
//
// Returns:
//   - *Run: The handle to wait on for the Report.
//   - error: apperrors.ErrNilSuite if s is nil.
func (d *Dispatcher) RunAll(ctx context.Context, s *suite.Suite) (*Run, error) {
	if s == nil {
		return nil, apperrors.ErrNilSuite
	}
	tests := s.Tests()
	id := uuid.NewString()

	_, span := d.tracer.Start(ctx, "testorch.run", trace.WithAttributes(
		attribute.String("testorch.run_id", id),
		attribute.String("testorch.suite", s.Name()),
		attribute.Int("testorch.tests", len(tests)),
	))
	run := newRun(id, s, tests, d.progress)
	logger := d.logger.With(logging.String("run_id", id), logging.String("suite", s.Name()))

	pool := parallel.NewPool(d.opts.PoolSize,
		parallel.WithLogger(logger),
		parallel.WithGracePeriod(d.opts.GracePeriod),
		parallel.WithStateObserver(func(st parallel.State) { d.recorder.PoolState(st.String()) }),
	)
	logger.Info("run started",
		logging.Int("tests", len(tests)),
		logging.Int("test_cases", s.CountTestCases()),
		logging.Int("workers", pool.Size()))

	for i, t := range tests {
		idx, test := i, t
		token := fmt.Sprintf("%s#%d", test.Name(), d.seq.Add(1))
		run.assign(idx, token)
		if err := pool.Submit(func(taskCtx context.Context) {
			d.execute(trace.ContextWithSpan(taskCtx, span), run, idx, test, token, logger)
		}); err != nil {
			// The pool is private to this call, so this only happens if it
			// was shut down underneath us; the record stays not_run.
			logger.Error("submit failed", err, logging.String("test", test.Name()))
		}
	}

	go func() {
		res := pool.Shutdown(ctx, d.opts.DrainTimeout)
		if res.Forced {
			d.recorder.DrainForced(forcedReason(res.Reason))
			span.SetStatus(codes.Error, res.Reason.Error())
		}
		logger.Info("run finished",
			logging.Bool("forced", res.Forced),
			logging.Duration("elapsed", res.Elapsed))
		span.End()
		run.seal(res, pool.Stats().Panics)
	}()
	return run, nil
}

// execute is one unit of work. A unit picked up after the Run was sealed is
// skipped: its record is already not_run.
func (d *Dispatcher) execute(ctx context.Context, run *Run, idx int, test suite.Test, token string, logger logging.Logger) {
	result := suite.NewResult()
	bridge := newListenerBridge(token, d.tracker, logger, d.recorder)
	result.AddListener(bridge)
	if !run.markRunning(idx, bridge.detach) {
		logger.Debug("test skipped after run sealed", logging.String("test", test.Name()))
		return
	}

	ctx, span := d.tracer.Start(ctx, test.Name(), trace.WithAttributes(
		attribute.String("testorch.token", token),
		attribute.Int("testorch.index", idx),
	))
	defer span.End()

	start := time.Now()
	d.runProtected(ctx, test, result, bridge, logger)
	elapsed := time.Since(start)

	status := classify(ctx, result)
	if status != StatusPassed {
		span.SetStatus(codes.Error, string(status))
	}
	span.SetAttributes(attribute.String("testorch.status", string(status)))

	logger.Info("test completed",
		logging.String("test", test.Name()),
		logging.String("status", string(status)),
		logging.Int("failures", result.FailureCount()),
		logging.Int("errors", result.ErrorCount()),
		logging.Int64("elapsed_ms", elapsed.Milliseconds()))

	run.complete(TestRecord{
		Index:     idx,
		Name:      test.Name(),
		Status:    status,
		Duration:  elapsed,
		TestCases: test.CountTestCases(),
		RunCount:  result.RunCount(),
		Failures:  result.Failures(),
		Errors:    result.Errors(),
	})
}

// runProtected runs test and records a panic that escaped it as an error on
// its own Result. A test case left open by the panic is closed so that its
// start and end stay paired.
func (d *Dispatcher) runProtected(ctx context.Context, test suite.Test, result *suite.Result, bridge *listenerBridge, logger logging.Logger) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		err := apperrors.NewPanicError(test.Name(), rec)
		logger.Error("test panicked", err, logging.String("test", test.Name()))
		trace.SpanFromContext(ctx).RecordError(err)
		culprit := test
		if open := bridge.openTest(); open != nil {
			culprit = open
		}
		result.AddError(culprit, err)
		if open := bridge.openTest(); open != nil {
			result.EndTest(open)
		}
	}()
	test.Run(ctx, result)
}

func classify(ctx context.Context, result *suite.Result) Status {
	switch {
	case ctx.Err() != nil:
		return StatusInterrupted
	case result.ErrorCount() > 0:
		return StatusErrored
	case result.FailureCount() > 0:
		return StatusFailed
	default:
		return StatusPassed
	}
}

func forcedReason(err error) string {
	if errors.Is(err, apperrors.ErrDrainTimeout) {
		return "timeout"
	}
	return "interrupted"
}
