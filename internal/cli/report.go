package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/suite"
)

// ReportFile is the serialized form of a run.
type ReportFile struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Suite      string       `json:"suite" yaml:"suite"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	ElapsedMS  int64        `json:"elapsed_ms" yaml:"elapsed_ms"`
	Successful bool         `json:"successful" yaml:"successful"`
	Forced     bool         `json:"forced" yaml:"forced"`
	Reason     string       `json:"reason,omitempty" yaml:"reason,omitempty"`
	Discarded  int          `json:"discarded" yaml:"discarded"`
	Abandoned  int          `json:"abandoned" yaml:"abandoned"`
	Panics     int          `json:"panics" yaml:"panics"`
	Counts     ReportCounts `json:"counts" yaml:"counts"`
	Tests      []ReportTest `json:"tests" yaml:"tests"`
}

// ReportCounts tallies tests by status.
type ReportCounts struct {
	Passed      int `json:"passed" yaml:"passed"`
	Failed      int `json:"failed" yaml:"failed"`
	Errored     int `json:"errored" yaml:"errored"`
	Interrupted int `json:"interrupted" yaml:"interrupted"`
	NotRun      int `json:"not_run" yaml:"not_run"`
}

// ReportTest is one top-level test.
type ReportTest struct {
	Index      int             `json:"index" yaml:"index"`
	Name       string          `json:"name" yaml:"name"`
	Token      string          `json:"token,omitempty" yaml:"token,omitempty"`
	Status     string          `json:"status" yaml:"status"`
	DurationMS float64         `json:"duration_ms" yaml:"duration_ms"`
	TestCases  int             `json:"test_cases" yaml:"test_cases"`
	RunCount   int             `json:"run_count" yaml:"run_count"`
	Failures   []ReportFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Errors     []ReportFailure `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ReportFailure is one failure or error of a test case.
type ReportFailure struct {
	Test    string `json:"test" yaml:"test"`
	Message string `json:"message" yaml:"message"`
}

// NewReportFile converts a sealed run report.
func NewReportFile(r *orchestration.Report) ReportFile {
	c := r.Counts()
	rf := ReportFile{
		RunID:      r.RunID,
		Suite:      r.Suite,
		StartedAt:  r.StartedAt.UTC(),
		ElapsedMS:  r.Elapsed.Milliseconds(),
		Successful: r.Successful(),
		Forced:     r.Forced(),
		Discarded:  r.Shutdown.Discarded,
		Abandoned:  r.Shutdown.Abandoned,
		Panics:     r.Panics,
		Counts: ReportCounts{
			Passed:      c.Passed,
			Failed:      c.Failed,
			Errored:     c.Errored,
			Interrupted: c.Interrupted,
			NotRun:      c.NotRun,
		},
		Tests: make([]ReportTest, 0, len(r.Records)),
	}
	if r.Shutdown.Reason != nil {
		rf.Reason = r.Shutdown.Reason.Error()
	}
	for _, rec := range r.Records {
		rf.Tests = append(rf.Tests, ReportTest{
			Index:      rec.Index,
			Name:       rec.Name,
			Token:      rec.Token,
			Status:     string(rec.Status),
			DurationMS: float64(rec.Duration) / float64(time.Millisecond),
			TestCases:  rec.TestCases,
			RunCount:   rec.RunCount,
			Failures:   convertFailures(rec.Failures),
			Errors:     convertFailures(rec.Errors),
		})
	}
	return rf
}

func convertFailures(fs []suite.Failure) []ReportFailure {
	if len(fs) == 0 {
		return nil
	}
	out := make([]ReportFailure, len(fs))
	for i, f := range fs {
		out[i] = ReportFailure{Test: f.TestName(), Message: f.Message()}
	}
	return out
}

// EncodeReport writes r to w as indented JSON, or as YAML when asYAML is set.
func EncodeReport(w io.Writer, r *orchestration.Report, asYAML bool) error {
	rf := NewReportFile(r)
	if asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rf); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rf)
}

// WriteReport writes r to path. Files ending in .yaml or .yml get YAML,
// everything else JSON. Missing parent directories are created.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteReport(path string, r *orchestration.Report) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.WrapError(err, "create report directory %s", dir)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return apperrors.WrapError(err, "create report file")
	}
	ext := strings.ToLower(filepath.Ext(path))
	if err := EncodeReport(file, r, ext == ".yaml" || ext == ".yml"); err != nil {
		file.Close()
		return apperrors.WrapError(err, "write report %s", path)
	}
	return file.Close()
}
