package suite

import (
	"context"
	"errors"

	apperrors "github.com/agbru/testorch/internal/errors"
)

// Failure pairs a test with the error it produced.
type Failure struct {
	Test Test
	Err  error
}

// TestName returns the name of the failed test.
func (f Failure) TestName() string {
	if f.Test == nil {
		return ""
	}
	return f.Test.Name()
}

// Message returns the error message.
func (f Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// Result accumulates the outcomes of the tests run against it and forwards
// lifecycle events to its listeners. The tally held by the Result is the
// authoritative one: listeners are notified after the outcome was recorded.
//
// A Result must not be shared across goroutines.
type Result struct {
	errors    []Failure
	failures  []Failure
	listeners []Listener
	runCount  int
}

// NewResult creates an empty Result.
func NewResult() *Result {
	return &Result{}
}

// AddListener registers a listener for subsequent events.
func (r *Result) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

// StartTest records that t started and notifies listeners.
func (r *Result) StartTest(t Test) {
	r.runCount += t.CountTestCases()
	for _, l := range r.listeners {
		l.StartTest(t)
	}
}

// EndTest notifies listeners that t ended.
func (r *Result) EndTest(t Test) {
	for _, l := range r.listeners {
		l.EndTest(t)
	}
}

// AddError records an unexpected error for t and notifies listeners.
func (r *Result) AddError(t Test, err error) {
	r.errors = append(r.errors, Failure{Test: t, Err: err})
	for _, l := range r.listeners {
		l.AddError(t, err)
	}
}

// AddFailure records an assertion failure for t and notifies listeners.
func (r *Result) AddFailure(t Test, failure *AssertionError) {
	r.failures = append(r.failures, Failure{Test: t, Err: failure})
	for _, l := range r.listeners {
		l.AddFailure(t, failure)
	}
}

// Run executes body as test t: start notification, protected execution,
// classification of the outcome, end notification. A panic in body is
// recorded as an error; end is always reported after start.
func (r *Result) Run(ctx context.Context, t Test, body func(ctx context.Context) error) {
	r.StartTest(t)
	defer r.EndTest(t)
	r.runProtected(ctx, t, body)
}

func (r *Result) runProtected(ctx context.Context, t Test, body func(ctx context.Context) error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.AddError(t, apperrors.NewPanicError(t.Name(), rec))
		}
	}()
	if body == nil {
		return
	}
	err := body(ctx)
	if err == nil {
		return
	}
	var failure *AssertionError
	if errors.As(err, &failure) {
		r.AddFailure(t, failure)
		return
	}
	r.AddError(t, err)
}

// Errors returns a copy of the recorded errors.
func (r *Result) Errors() []Failure { return append([]Failure(nil), r.errors...) }

// Failures returns a copy of the recorded assertion failures.
func (r *Result) Failures() []Failure { return append([]Failure(nil), r.failures...) }

// ErrorCount returns the number of recorded errors.
func (r *Result) ErrorCount() int { return len(r.errors) }

// FailureCount returns the number of recorded failures.
func (r *Result) FailureCount() int { return len(r.failures) }

// RunCount returns the number of logical test cases started.
func (r *Result) RunCount() int { return r.runCount }

// WasSuccessful reports whether no error nor failure was recorded.
func (r *Result) WasSuccessful() bool {
	return len(r.errors) == 0 && len(r.failures) == 0
}
