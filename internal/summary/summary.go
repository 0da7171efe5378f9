// Package summary aggregates what a suite declares and what a run achieved
// into a single loggable value.
package summary

import (
	"time"

	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/suite"
)

// Summary describes a suite and, when built from a Report, its run.
type Summary struct {
	Suite string
	// TestCases is the number of test cases the suite declares.
	TestCases int

	// The fields below are only set by FromReport.
	RunID      string
	Dispatched int
	CasesRun   int
	Counts     orchestration.Counts
	Elapsed    time.Duration
	Forced     bool
	Reason     string
	Discarded  int
}

// Summarize counts the test cases of s. It only reads the suite.
func Summarize(s *suite.Suite) Summary {
	if s == nil {
		return Summary{}
	}
	return Summary{Suite: s.Name(), TestCases: s.CountTestCases()}
}

// FromReport extends the summary of s with the outcome of a run.
func FromReport(s *suite.Suite, r *orchestration.Report) Summary {
	sum := Summarize(s)
	if r == nil {
		return sum
	}
	sum.RunID = r.RunID
	sum.Dispatched = len(r.Records)
	sum.CasesRun = r.TestCasesRun()
	sum.Counts = r.Counts()
	sum.Elapsed = r.Elapsed
	sum.Forced = r.Forced()
	sum.Discarded = r.Shutdown.Discarded
	if r.Shutdown.Reason != nil {
		sum.Reason = r.Shutdown.Reason.Error()
	}
	return sum
}

// Log writes the summary line.
func Log(logger logging.Logger, sum Summary) {
	fields := []logging.Field{
		logging.String("suite", sum.Suite),
		logging.Int("test_cases", sum.TestCases),
	}
	if sum.RunID != "" {
		fields = append(fields,
			logging.String("run_id", sum.RunID),
			logging.Int("dispatched", sum.Dispatched),
			logging.Int("cases_run", sum.CasesRun),
			logging.Int("passed", sum.Counts.Passed),
			logging.Int("failed", sum.Counts.Failed),
			logging.Int("errored", sum.Counts.Errored),
			logging.Int("interrupted", sum.Counts.Interrupted),
			logging.Int("not_run", sum.Counts.NotRun),
			logging.Duration("elapsed", sum.Elapsed),
			logging.Bool("forced", sum.Forced),
		)
		if sum.Reason != "" {
			fields = append(fields, logging.String("reason", sum.Reason))
		}
	}
	logger.Info("summary", fields...)
}
