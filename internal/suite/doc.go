// Package suite defines the test model consumed by the orchestrator: the Test
// abstraction, leaf Cases and composite Suites, the per-run Result that
// accumulates errors and failures, and the Listener protocol through which a
// Result reports test lifecycle events.
//
// A Result is owned by exactly one unit of work and is not safe for
// concurrent use. Tests report through the Result they are given:
//
//	r := suite.NewResult()
//	r.AddListener(myListener)
//	test.Run(ctx, r)
//	if !r.WasSuccessful() { ... }
//
//go:generate mockgen -source=suite.go -destination=mocks/mock_suite.go -package=mocks
package suite
