package suite

import (
	"context"
	"fmt"
)

// Test is a unit of work that can be executed against a Result.
type Test interface {
	// Name returns the stable display name of the test.
	Name() string
	// CountTestCases returns the number of logical test cases the test
	// stands for. Composites return the sum over their children.
	CountTestCases() int
	// Run executes the test, reporting lifecycle events and outcomes to r.
	// Implementations should honour ctx cancellation where they can block.
	Run(ctx context.Context, r *Result)
}

// Listener observes the lifecycle of the tests run against a Result.
type Listener interface {
	// StartTest is called before a test case executes.
	StartTest(t Test)
	// EndTest is called after a test case executed, whatever its outcome.
	EndTest(t Test)
	// AddError is called after an unexpected error was recorded.
	AddError(t Test, err error)
	// AddFailure is called after an assertion failure was recorded.
	AddFailure(t Test, failure *AssertionError)
}

// AssertionError is the error a test body returns to report a failed
// expectation, as opposed to an unexpected error.
type AssertionError struct {
	Message string
}

// Error returns the failure message.
func (e *AssertionError) Error() string { return e.Message }

// Failf returns an *AssertionError with a formatted message.
func Failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// Case is a leaf test built from a name and a body.
type Case struct {
	name string
	body func(ctx context.Context) error
}

var _ Test = (*Case)(nil)

// NewCase creates a leaf test. A nil body always passes.
func NewCase(name string, body func(ctx context.Context) error) *Case {
	return &Case{name: name, body: body}
}

// Name returns the case name.
func (c *Case) Name() string { return c.name }

// CountTestCases always returns 1.
func (c *Case) CountTestCases() int { return 1 }

// Run executes the body under r's protection.
func (c *Case) Run(ctx context.Context, r *Result) {
	r.Run(ctx, c, c.body)
}

// String returns the case name.
func (c *Case) String() string { return c.name }

// Suite is an ordered collection of tests. A Suite is itself a Test, so
// suites nest.
type Suite struct {
	name  string
	tests []Test
}

var _ Test = (*Suite)(nil)

// New creates a suite holding the given tests in order.
func New(name string, tests ...Test) *Suite {
	return &Suite{name: name, tests: append([]Test(nil), tests...)}
}

// AddTest appends a test to the suite.
func (s *Suite) AddTest(t Test) {
	s.tests = append(s.tests, t)
}

// Name returns the suite name.
func (s *Suite) Name() string { return s.name }

// Tests returns a copy of the direct children, in order.
func (s *Suite) Tests() []Test {
	return append([]Test(nil), s.tests...)
}

// TestAt returns the i-th direct child.
func (s *Suite) TestAt(i int) Test { return s.tests[i] }

// TestCount returns the number of direct children. It may differ from
// CountTestCases when children are composites.
func (s *Suite) TestCount() int { return len(s.tests) }

// CountTestCases returns the number of logical test cases in the tree.
func (s *Suite) CountTestCases() int {
	count := 0
	for _, t := range s.tests {
		count += t.CountTestCases()
	}
	return count
}

// Run runs every child in order against r. Children not yet started when
// ctx is cancelled are skipped.
func (s *Suite) Run(ctx context.Context, r *Result) {
	for _, t := range s.tests {
		if ctx.Err() != nil {
			return
		}
		t.Run(ctx, r)
	}
}

// String returns the suite name.
func (s *Suite) String() string { return s.name }
