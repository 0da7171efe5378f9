package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/agbru/testorch/internal/format"
	"github.com/agbru/testorch/internal/orchestration"
	"github.com/agbru/testorch/internal/suite"
	"github.com/agbru/testorch/internal/sysmon"
	"github.com/agbru/testorch/internal/ui"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// terminal spinner.
type CLIProgressReporter struct{}

var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress delegates to DisplayProgress.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, total int, out io.Writer) {
	DisplayProgress(wg, progressChan, total, out)
}

// CLIReportPresenter implements orchestration.ReportPresenter with a table
// of tests followed by failure details and totals.
type CLIReportPresenter struct {
	// Verbose lists passed tests too. Otherwise only tests that did not
	// pass appear in the table.
	Verbose bool
}

var _ orchestration.ReportPresenter = CLIReportPresenter{}

// PresentReport writes the summary of a finished run.
func (p CLIReportPresenter) PresentReport(r *orchestration.Report, out io.Writer) {
	fmt.Fprintf(out, "\n--- Run Summary: %s ---\n", r.Suite)

	rows := 0
	table := tablewriter.NewWriter(out)
	table.Header("#", "Test", "Status", "Duration", "Cases")
	for _, rec := range r.Records {
		if !p.Verbose && rec.Status == orchestration.StatusPassed {
			continue
		}
		table.Append([]string{
			strconv.Itoa(rec.Index + 1),
			rec.Name,
			ui.RenderStatus(string(rec.Status)),
			FormatRecordDuration(rec),
			fmt.Sprintf("%d/%d", rec.RunCount, rec.TestCases),
		})
		rows++
	}
	if rows > 0 {
		table.Render()
	}

	DisplayFailures(r, out)
	DisplayTotals(r, out)
}

// FormatRecordDuration formats the duration of a record, or "-" when the
// test never ran.
func FormatRecordDuration(rec orchestration.TestRecord) string {
	switch {
	case rec.Status == orchestration.StatusNotRun:
		return "-"
	case rec.Duration <= 0:
		return "< 1µs"
	}
	return format.FormatExecutionDuration(rec.Duration)
}

// DisplayFailures lists every failure and error with its message.
func DisplayFailures(r *orchestration.Report, out io.Writer) {
	for _, rec := range r.Records {
		if len(rec.Errors) == 0 && len(rec.Failures) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s\n", ui.Colorize(func(t ui.Theme) string { return t.Bold }, rec.Name))
		writeFailures(out, "ERROR", rec.Errors, func(t ui.Theme) string { return t.Error })
		writeFailures(out, "FAIL", rec.Failures, func(t ui.Theme) string { return t.Warning })
	}
}

func writeFailures(out io.Writer, label string, fs []suite.Failure, color func(ui.Theme) string) {
	for _, f := range fs {
		msg := strings.ReplaceAll(f.Message(), "\n", "\n      ")
		fmt.Fprintf(out, "  %s %s: %s\n", ui.Colorize(color, label), f.TestName(), msg)
	}
}

// DisplayTotals writes the one-line tally of the run and, when the pool was
// force-cancelled, why.
func DisplayTotals(r *orchestration.Report, out io.Writer) {
	c := r.Counts()
	fmt.Fprintf(out, "\nRan %s tests (%s test cases) in %s: %d passed, %d failed, %d errored, %d interrupted, %d not run\n",
		format.FormatNumberString(strconv.Itoa(len(r.Records))),
		format.FormatNumberString(strconv.Itoa(r.TestCasesRun())),
		format.FormatExecutionDuration(r.Elapsed),
		c.Passed, c.Failed, c.Errored, c.Interrupted, c.NotRun)

	if r.Forced() {
		reason := "forced"
		if r.Shutdown.Reason != nil {
			reason = r.Shutdown.Reason.Error()
		}
		fmt.Fprintf(out, "%s %s (%d discarded, %d abandoned)\n",
			ui.Colorize(func(t ui.Theme) string { return t.Error }, "Pool force-cancelled:"),
			reason, r.Shutdown.Discarded, r.Shutdown.Abandoned)
	}
	if r.Panics > 0 {
		fmt.Fprintf(out, "%d panic(s) escaped a test\n", r.Panics)
	}
	if r.Successful() {
		fmt.Fprintln(out, ui.Colorize(func(t ui.Theme) string { return t.Success }, "OK"))
	}
}

// DisplayResourceUsage shows the peak resource usage sampled during the run.
func DisplayResourceUsage(peak sysmon.Stats, out io.Writer) {
	fmt.Fprintf(out, "Peak usage: CPU %.1f%%, memory %.1f%%, RSS %s\n",
		peak.CPUPercent, peak.MemPercent, format.FormatBytes(peak.RSSBytes))
}

// PrintExecutionConfig displays the run configuration before dispatching.
//
// Parameters:
//   - suiteName: The name of the root suite.
//   - tests: The number of top-level tests.
//   - cases: The number of test cases declared.
//   - poolSize: The number of workers.
//   - drainTimeout: The drain ceiling.
//   - out: The writer for standard output.
func PrintExecutionConfig(suiteName string, tests, cases, poolSize int, drainTimeout time.Duration, out io.Writer) {
	t := ui.GetCurrentTheme()
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Suite %s%s%s: %s%d%s tests, %s%d%s test cases.\n",
		t.Primary, suiteName, t.Reset, t.Info, tests, t.Reset, t.Info, cases, t.Reset)
	fmt.Fprintf(out, "Workers: %s%d%s, drain timeout %s%s%s.\n",
		t.Info, poolSize, t.Reset, t.Warning, drainTimeout, t.Reset)
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
