package orchestration

import (
	"testing"

	"github.com/agbru/testorch/internal/parallel"
	"github.com/agbru/testorch/internal/suite"
)

func TestReport_Counts(t *testing.T) {
	t.Parallel()
	r := &Report{Records: []TestRecord{
		{Status: StatusPassed},
		{Status: StatusPassed},
		{Status: StatusFailed},
		{Status: StatusErrored},
		{Status: StatusInterrupted},
		{Status: StatusNotRun},
	}}
	want := Counts{Passed: 2, Failed: 1, Errored: 1, Interrupted: 1, NotRun: 1}
	if got := r.Counts(); got != want {
		t.Errorf("Counts() = %+v, want %+v", got, want)
	}
	if r.Counts().Total() != 6 {
		t.Errorf("Total() = %d, want 6", r.Counts().Total())
	}
}

func TestReport_Successful(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		report Report
		want   bool
	}{
		{"all passed", Report{Records: []TestRecord{{Status: StatusPassed}}}, true},
		{"one failed", Report{Records: []TestRecord{{Status: StatusPassed}, {Status: StatusFailed}}}, false},
		{"forced", Report{
			Records:  []TestRecord{{Status: StatusPassed}},
			Shutdown: parallel.ShutdownResult{Forced: true},
		}, false},
	}
	for _, tt := range tests {
		if got := tt.report.Successful(); got != tt.want {
			t.Errorf("%s: Successful() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestRun_SealFixesUnfinished verifies queued slots become not_run, running
// slots interrupted, and late completions are dropped.
func TestRun_SealFixesUnfinished(t *testing.T) {
	t.Parallel()
	tests := []suite.Test{suite.NewCase("a", nil), suite.NewCase("b", nil), suite.NewCase("c", nil)}
	var updates int
	run := newRun("id", suite.New("s", tests...), tests, func(ProgressUpdate) { updates++ })
	run.assign(0, "a#1")
	run.markRunning(0, func() { t.Error("completed unit must not be detached") })
	run.complete(TestRecord{Index: 0, Name: "a", Status: StatusPassed})
	detached := 0
	run.markRunning(1, func() { detached++ })

	// The pool saw two started tasks and nothing discarded; the records say
	// otherwise and win.
	run.seal(parallel.ShutdownResult{Forced: true, Discarded: 0, Abandoned: 2}, 0)

	if run.complete(TestRecord{Index: 1, Name: "b", Status: StatusPassed}) {
		t.Error("complete after seal should be rejected")
	}
	report := run.Wait()
	want := []Status{StatusPassed, StatusInterrupted, StatusNotRun}
	for i, st := range want {
		if report.Records[i].Status != st {
			t.Errorf("record %d status = %s, want %s", i, report.Records[i].Status, st)
		}
	}
	if report.Shutdown.Discarded != 1 || report.Shutdown.Abandoned != 1 {
		t.Errorf("Discarded/Abandoned = %d/%d, want 1/1", report.Shutdown.Discarded, report.Shutdown.Abandoned)
	}
	if detached != 1 {
		t.Errorf("detach calls = %d, want 1", detached)
	}
	if run.markRunning(2, nil) {
		t.Error("markRunning after seal should report false")
	}
	if report.Records[0].Token != "a#1" {
		t.Errorf("token = %q, want a#1", report.Records[0].Token)
	}
	if updates != 1 {
		t.Errorf("progress updates = %d, want 1", updates)
	}
	select {
	case <-run.Done():
	default:
		t.Error("Done() should be closed after seal")
	}
}
