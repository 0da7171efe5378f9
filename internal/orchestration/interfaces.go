package orchestration

import (
	"io"
	"sync"
)

// ProgressUpdate is emitted every time a unit of work finishes.
type ProgressUpdate struct {
	// Index is the submission index of the test.
	Index int
	// Name is the display name of the test.
	Name string
	// Status is the outcome of the test.
	Status Status
	// Total is the number of units of work in the run.
	Total int
}

// ProgressReporter defines the interface for displaying run progress.
// This interface decouples the orchestration layer from the presentation
// layer: implementations draw spinners or bars while the Dispatcher only
// emits updates.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed.
	// It should be called in a separate goroutine.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving one update per finished test.
	//   - total: The number of units of work being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, total int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, total int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, total int, out io.Writer) {
	f(wg, progressChan, total, out)
}

// NullProgressReporter drains the progress channel without displaying
// anything. Used for quiet mode and tests.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ReportPresenter renders a finished run.
type ReportPresenter interface {
	PresentReport(report *Report, out io.Writer)
}
