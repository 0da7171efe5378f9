package orchestration

import (
	"bufio"
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/agbru/testorch/internal/logging"
)

// logBuffer collects the JSON lines of a logger built by logging.NewLogger,
// which serialises concurrent writes itself. Read it only once every writer
// is done, typically after Run.Wait.
type logBuffer struct {
	bytes.Buffer
}

// lines decodes every JSON log line written so far.
func (b *logBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(b.Bytes()))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

// withMessage filters lines by their message.
func withMessage(lines []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, l := range lines {
		if l["message"] == msg {
			out = append(out, l)
		}
	}
	return out
}

func newTestLogger() (*logBuffer, logging.Logger) {
	buf := &logBuffer{}
	return buf, logging.NewLogger(buf, "orchestration")
}

// fakeRecorder counts metrics events.
type fakeRecorder struct {
	mu          sync.Mutex
	started     int
	finished    map[string]int
	unavailable int
	abandoned   int
	states      []string
	forced      []string
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{finished: make(map[string]int)}
}

func (f *fakeRecorder) TestStarted(string) {
	f.mu.Lock()
	f.started++
	f.mu.Unlock()
}

func (f *fakeRecorder) TestFinished(status string, _ time.Duration) {
	f.mu.Lock()
	f.finished[status]++
	f.mu.Unlock()
}

func (f *fakeRecorder) DurationUnavailable() {
	f.mu.Lock()
	f.unavailable++
	f.mu.Unlock()
}

func (f *fakeRecorder) TestAbandoned() {
	f.mu.Lock()
	f.abandoned++
	f.mu.Unlock()
}

func (f *fakeRecorder) PoolState(state string) {
	f.mu.Lock()
	f.states = append(f.states, state)
	f.mu.Unlock()
}

func (f *fakeRecorder) DrainForced(reason string) {
	f.mu.Lock()
	f.forced = append(f.forced, reason)
	f.mu.Unlock()
}

// waitReport waits for run with a test-friendly ceiling.
func waitReport(t *testing.T, run *Run, limit time.Duration) *Report {
	t.Helper()
	select {
	case <-run.Done():
		return run.Wait()
	case <-time.After(limit):
		t.Fatalf("run %s did not complete within %v", run.ID(), limit)
		return nil
	}
}
