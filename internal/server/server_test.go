package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/metrics"
)

func newTestServer() (*Server, *metrics.Prometheus) {
	m := metrics.NewPrometheus()
	return New("127.0.0.1:0", m, newTestLogger()), m
}

func TestServer_handleMetrics(t *testing.T) {
	s, m := newTestServer()
	m.TestStarted("a")
	m.TestFinished("passed", 10*time.Millisecond)

	t.Run("GET returns metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		body := rec.Body.String()
		for _, name := range []string{"testorch_tests_started_total", "testorch_tests_finished_total", "go_goroutines"} {
			if !strings.Contains(body, name) {
				t.Errorf("response should contain %s", name)
			}
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("security headers should be applied")
		}
	})

	for _, method := range []string{http.MethodPost, http.MethodPut} {
		t.Run(method+" returns method not allowed", func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(method, "/metrics", http.NoBody))
			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
			}
		})
	}
}

func TestServer_handleHealth(t *testing.T) {
	s, _ := newTestServer()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Goroutines < 1 {
		t.Errorf("health = %+v", resp)
	}
}

func TestServer_metricsMiddleware(t *testing.T) {
	s, _ := newTestServer()

	nextCalled := false
	handler := s.metricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/test", http.NoBody))

	if !nextCalled {
		t.Error("next handler was not called")
	}
	if got := testutil.ToFloat64(s.requests.WithLabelValues("418", "get")); got != 1 {
		t.Errorf("requests{code=418} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.inFlight); got != 0 {
		t.Errorf("in-flight = %v, want 0 after the request", got)
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s, _ := newTestServer()
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown before Start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("Addr() = %q, want the bound port", s.Addr())
	}

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// testLogger is a minimal logger for testing that implements logging.Logger.
type testLogger struct{}

func newTestLogger() *testLogger                                  { return &testLogger{} }
func (l *testLogger) Info(_ string, _ ...logging.Field)           {}
func (l *testLogger) Warn(_ string, _ ...logging.Field)           {}
func (l *testLogger) Error(_ string, _ error, _ ...logging.Field) {}
func (l *testLogger) Debug(_ string, _ ...logging.Field)          {}
func (l *testLogger) Printf(_ string, _ ...any)                   {}
func (l *testLogger) Println(_ ...any)                            {}
func (l *testLogger) With(_ ...logging.Field) logging.Logger      { return l }
