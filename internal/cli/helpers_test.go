package cli

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/parallel"
	"github.com/agbru/testorch/internal/suite"
	"github.com/agbru/testorch/internal/ui"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(prev) })
}

// sampleReport returns a forced run with one record of each status.
func sampleReport() *orchestration.Report {
	failing := suite.NewCase("check-output", nil)
	broken := suite.NewCase("compile", nil)
	return &orchestration.Report{
		RunID:     "run-1",
		Suite:     "smoke",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Records: []orchestration.TestRecord{
			{Index: 0, Name: "lint", Token: "lint#1", Status: orchestration.StatusPassed, Duration: 20 * time.Millisecond, TestCases: 1, RunCount: 1},
			{Index: 1, Name: "check-output", Token: "check-output#2", Status: orchestration.StatusFailed, Duration: 5 * time.Millisecond, TestCases: 1, RunCount: 1,
				Failures: []suite.Failure{{Test: failing, Err: suite.Failf("exited with status 1, want 0")}}},
			{Index: 2, Name: "compile", Token: "compile#3", Status: orchestration.StatusErrored, TestCases: 1, RunCount: 1,
				Errors: []suite.Failure{{Test: broken, Err: errors.New("start cc: not found")}}},
			{Index: 3, Name: "slow", Token: "slow#4", Status: orchestration.StatusInterrupted, Duration: time.Minute, TestCases: 1},
			{Index: 4, Name: "never", Status: orchestration.StatusNotRun, TestCases: 2},
		},
		Shutdown: parallel.ShutdownResult{
			Forced:    true,
			Reason:    apperrors.DrainTimeoutError{Limit: time.Minute},
			Discarded: 1,
			Abandoned: 1,
		},
	}
}
