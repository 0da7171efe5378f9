// Package parallel provides the fixed-size worker pool the dispatcher runs
// tests on.
//
// A Pool moves through four states:
//
//	Accepting ──Shutdown──▶ Draining ──drained──────────────────▶ Terminated
//	                           │                                     ▲
//	                           └─ceiling exceeded / ctx cancelled─▶ ForceCancelling
//
// While Accepting, Submit enqueues without blocking. Shutdown closes the pool
// for new work and waits up to a ceiling for queued and in-flight tasks. When
// the ceiling is exceeded, or the waiting context is cancelled, the pool
// cancels the context every task runs under, discards tasks that never
// started and returns without waiting for tasks that ignore cancellation.
// Terminated is absorbing.
//
// Tasks never take a worker down: a panic escaping a task is recovered,
// collected in an ErrorCollector and logged, and the worker moves on.
package parallel
