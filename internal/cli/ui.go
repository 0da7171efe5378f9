//go:generate mockgen -source=ui.go -destination=mocks/mock_ui.go -package=mocks

package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/testorch/internal/format"
	"github.com/agbru/testorch/internal/orchestration"
)

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 30
)

// Spinner abstracts a terminal spinner so DisplayProgress can be tested
// without a terminal.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

// UpdateSuffix sets the suffix under the spinner's lock, since the
// animation goroutine reads it concurrently.
func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// DisplayProgress shows a spinner with a progress bar, an ETA and a count
// of tests that did not pass, until progressChan is closed.
//
// Parameters:
//   - wg: Marked done when the display has finished.
//   - progressChan: One update per finished test.
//   - total: The number of top-level tests in the run.
//   - out: The writer for progress output.
func DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, total int, out io.Writer) {
	defer wg.Done()
	agg := orchestration.NewProgressAggregator(total)
	if agg == nil {
		orchestration.DrainChannel(progressChan)
		return
	}

	s := newSpinner(spinner.WithWriter(out))
	var last orchestration.AggregatedProgress
	s.UpdateSuffix(FormatProgressLine(last, total))
	s.Start()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-progressChan:
			if !ok {
				s.Stop()
				fmt.Fprintf(out, "%s\n", FormatProgressLine(last, total))
				return
			}
			last = agg.Update(update)
			s.UpdateSuffix(FormatProgressLine(last, total))
		case <-ticker.C:
			last.Fraction = agg.Fraction()
			last.ETA = agg.ETA()
			s.UpdateSuffix(FormatProgressLine(last, total))
		}
	}
}

// FormatProgressLine renders " [bar] 42.0% ETA: 3s  5/12 tests, 1 not passed".
func FormatProgressLine(p orchestration.AggregatedProgress, total int) string {
	line := fmt.Sprintf(" %s  %d/%d tests", format.FormatProgressBarWithETA(p.Fraction, p.ETA, ProgressBarWidth), p.Completed, total)
	if p.Failed > 0 {
		line += fmt.Sprintf(", %d not passed", p.Failed)
	}
	return line
}
