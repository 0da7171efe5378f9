package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/agbru/testorch/internal/errors"
	"github.com/agbru/testorch/internal/logging"
	"github.com/agbru/testorch/internal/metrics"
)

// Timeouts applied to the HTTP server.
const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// Server serves /metrics and /healthz.
type Server struct {
	addr     string
	router   *mux.Router
	logger   logging.Logger
	metrics  *metrics.Prometheus
	security SecurityConfig
	started  time.Time

	requests *prometheus.CounterVec
	inFlight prometheus.Gauge

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// Option customises a Server.
type Option func(*Server)

// WithSecurityConfig replaces DefaultSecurityConfig.
func WithSecurityConfig(c SecurityConfig) Option {
	return func(s *Server) { s.security = c }
}

// New creates a server for addr. The HTTP instrumentation collectors are
// registered on the same registry as the dispatcher metrics.
func New(addr string, m *metrics.Prometheus, logger logging.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := &Server{
		addr:     addr,
		logger:   logger,
		metrics:  m,
		security: DefaultSecurityConfig(),
		started:  time.Now(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by the metrics endpoint.",
		}, []string{"code", "method"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := m.Register(s.requests, s.inFlight); err != nil {
		logger.Warn("http metrics not registered", logging.Err(err))
	}

	s.router = mux.NewRouter()
	s.router.HandleFunc("/metrics", s.metricsMiddleware(s.handleMetrics)).Methods(http.MethodGet, http.MethodOptions)
	s.router.HandleFunc("/healthz", s.metricsMiddleware(s.handleHealth)).Methods(http.MethodGet, http.MethodOptions)
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.WrapError(err, "listen on %s", s.addr)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	s.mu.Lock()
	s.httpServer, s.listener = srv, ln
	s.mu.Unlock()

	s.logger.Info("metrics server listening", logging.String("addr", ln.Addr().String()))
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server stopped", err)
		}
	}()
	return nil
}

// Addr returns the bound address once started, the configured one otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Shutdown gracefully stops the server, closing remaining connections once
// ctx expires. It is a no-op if Start was not called.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	err := srv.Shutdown(ctx)
	if apperrors.IsContextError(err) {
		s.logger.Warn("metrics server shutdown timed out", logging.Err(err))
		return srv.Close()
	}
	return err
}

// metricsMiddleware applies the security headers and counts requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	instrumented := promhttp.InstrumentHandlerInFlight(s.inFlight,
		promhttp.InstrumentHandlerCounter(s.requests, SecurityMiddleware(s.security, next)))
	return instrumented.ServeHTTP
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.Handler().ServeHTTP(w, r)
}

type healthResponse struct {
	Status     string  `json:"status"`
	Uptime     float64 `json:"uptime_seconds"`
	Goroutines int     `json:"goroutines"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := healthResponse{
		Status:     "ok",
		Uptime:     time.Since(s.started).Seconds(),
		Goroutines: runtime.NumGoroutine(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("encode health response", err)
	}
}
