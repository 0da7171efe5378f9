package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/sysmon"
)

func TestPresentReport(t *testing.T) {
	noColor(t)
	r := sampleReport()

	var out bytes.Buffer
	CLIReportPresenter{}.PresentReport(r, &out)
	got := out.String()

	for _, want := range []string{
		"Run Summary: smoke",
		"FAILED", "ERRORED", "INTERRUPTED", "NOT RUN",
		"FAIL check-output: exited with status 1, want 0",
		"ERROR compile: start cc: not found",
		"Ran 5 tests (3 test cases)",
		"1 passed, 1 failed, 1 errored, 1 interrupted, 1 not run",
		"Pool force-cancelled: in-flight work did not drain within 1m0s (1 discarded, 1 abandoned)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "lint") {
		t.Error("passed tests should be hidden unless verbose")
	}
	if strings.Contains(got, "OK\n") {
		t.Error("a forced run is not OK")
	}
}

func TestPresentReport_VerboseAndSuccess(t *testing.T) {
	noColor(t)
	r := &orchestration.Report{
		Suite:   "green",
		Elapsed: time.Second,
		Records: []orchestration.TestRecord{
			{Index: 0, Name: "only", Status: orchestration.StatusPassed, Duration: time.Millisecond, TestCases: 1, RunCount: 1},
		},
	}
	var out bytes.Buffer
	CLIReportPresenter{Verbose: true}.PresentReport(r, &out)
	got := out.String()
	if !strings.Contains(got, "only") || !strings.Contains(got, "PASSED") {
		t.Errorf("verbose output should list passed tests:\n%s", got)
	}
	if !strings.HasSuffix(got, "OK\n") {
		t.Errorf("successful run should end with OK:\n%s", got)
	}
}

func TestFormatRecordDuration(t *testing.T) {
	tests := []struct {
		rec  orchestration.TestRecord
		want string
	}{
		{orchestration.TestRecord{Status: orchestration.StatusNotRun}, "-"},
		{orchestration.TestRecord{Status: orchestration.StatusPassed}, "< 1µs"},
		{orchestration.TestRecord{Status: orchestration.StatusPassed, Duration: 15 * time.Millisecond}, "15ms"},
	}
	for _, tt := range tests {
		if got := FormatRecordDuration(tt.rec); got != tt.want {
			t.Errorf("FormatRecordDuration(%+v) = %q, want %q", tt.rec, got, tt.want)
		}
	}
}

func TestDisplayResourceUsage(t *testing.T) {
	var out bytes.Buffer
	DisplayResourceUsage(sysmon.Stats{CPUPercent: 12.5, MemPercent: 40, RSSBytes: 2048}, &out)
	if got := out.String(); got != "Peak usage: CPU 12.5%, memory 40.0%, RSS 2.0 KiB\n" {
		t.Errorf("DisplayResourceUsage() = %q", got)
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	noColor(t)
	var out bytes.Buffer
	PrintExecutionConfig("smoke", 4, 6, 2, time.Hour, &out)
	got := out.String()
	if !strings.Contains(got, "Suite smoke: 4 tests, 6 test cases.") || !strings.Contains(got, "Workers: 2, drain timeout 1h0m0s.") {
		t.Errorf("PrintExecutionConfig() = %q", got)
	}
}
