// Package orchestration dispatches the top-level tests of a suite onto a
// bounded worker pool and collects their outcomes into a Report.
//
// Each test is one unit of work: it runs on a single worker against its own
// suite.Result, to which a listener bridge is attached. The bridge feeds the
// Dispatcher's shared duration tracker, logs lifecycle events and updates the
// metrics recorder. RunAll returns as soon as every test was submitted; the
// returned Run completes once the pool reached its terminal state, either
// after a graceful drain or after forced cancellation.
package orchestration
