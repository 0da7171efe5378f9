// Package metrics exposes dispatcher activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "testorch"

// Recorder receives dispatcher events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	TestStarted(name string)
	TestFinished(status string, elapsed time.Duration)
	DurationUnavailable()
	// TestAbandoned releases a started test case that will never be reported
	// as finished because its pool was force-cancelled underneath it.
	TestAbandoned()
	PoolState(state string)
	DrainForced(reason string)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) TestStarted(string)                 {}
func (NopRecorder) TestFinished(string, time.Duration) {}
func (NopRecorder) DurationUnavailable()               {}
func (NopRecorder) TestAbandoned()                     {}
func (NopRecorder) PoolState(string)                   {}
func (NopRecorder) DrainForced(string)                 {}

var poolStates = []string{"accepting", "draining", "force_cancelling", "terminated"}

// Prometheus is a Recorder backed by a private Prometheus registry.
type Prometheus struct {
	registry    *prometheus.Registry
	started     prometheus.Counter
	finished    *prometheus.CounterVec
	duration    prometheus.Histogram
	inFlight    prometheus.Gauge
	unavailable prometheus.Counter
	abandoned   prometheus.Counter
	poolState   *prometheus.GaugeVec
	forced      *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them, together with the
// Go runtime and process collectors, on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_started_total",
			Help:      "Number of test cases that started.",
		}),
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_finished_total",
			Help:      "Number of dispatched tests that finished, by status.",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "test_duration_seconds",
			Help:      "Wall-clock duration of test cases.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tests_in_flight",
			Help:      "Number of test cases currently running.",
		}),
		unavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duration_unavailable_total",
			Help:      "Number of test ends observed without a start record.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tests_abandoned_total",
			Help:      "Number of started test cases still running when their pool was force-cancelled.",
		}),
		poolState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "pool_state",
			Help:      "1 for the current state of the most recent worker pool.",
		}, []string{"state"}),
		forced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "drain_forced_total",
			Help:      "Number of pools force-cancelled, by reason.",
		}, []string{"reason"}),
	}
	p.registry.MustRegister(
		p.started, p.finished, p.duration, p.inFlight, p.unavailable, p.abandoned, p.poolState, p.forced,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// TestStarted counts a started test case.
func (p *Prometheus) TestStarted(string) {
	p.started.Inc()
	p.inFlight.Inc()
}

// TestFinished counts a finished test case and observes its duration.
func (p *Prometheus) TestFinished(status string, elapsed time.Duration) {
	p.inFlight.Dec()
	p.finished.WithLabelValues(status).Inc()
	if elapsed >= 0 {
		p.duration.Observe(elapsed.Seconds())
	}
}

// DurationUnavailable counts an end without a start record.
func (p *Prometheus) DurationUnavailable() { p.unavailable.Inc() }

// TestAbandoned takes an abandoned test case out of the in-flight gauge.
func (p *Prometheus) TestAbandoned() {
	p.inFlight.Dec()
	p.abandoned.Inc()
}

// PoolState marks state as the current pool state.
func (p *Prometheus) PoolState(state string) {
	for _, s := range poolStates {
		v := 0.0
		if s == state {
			v = 1
		}
		p.poolState.WithLabelValues(s).Set(v)
	}
}

// DrainForced counts a forced pool shutdown.
func (p *Prometheus) DrainForced(reason string) {
	p.forced.WithLabelValues(reason).Inc()
}

// Register adds extra collectors to the registry.
func (p *Prometheus) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := p.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
