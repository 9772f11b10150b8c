package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome label values.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeStale   = "stale"
)

// Metrics holds the Prometheus collectors for the orchestrator.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	dispatched prometheus.Counter
	outcomes   *prometheus.CounterVec
	duration   prometheus.Histogram
	inFlight   prometheus.Gauge
}

// NewMetrics creates the fetch collectors and registers them with reg.
// With a nil reg the collectors are created unregistered.
//
// Collectors:
//   - roster_fetch_dispatched_total: requests started
//   - roster_fetch_outcomes_total: completed requests by outcome (success, failure, stale)
//   - roster_fetch_duration_seconds: remote call duration
//   - roster_fetch_in_flight: requests not yet completed, including cancelled ones still draining
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		dispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "roster",
			Subsystem: "fetch",
			Name:      "dispatched_total",
			Help:      "Total number of remote fetches dispatched",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roster",
			Subsystem: "fetch",
			Name:      "outcomes_total",
			Help:      "Total number of completed remote fetches by outcome",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roster",
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Remote fetch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "roster",
			Subsystem: "fetch",
			Name:      "in_flight",
			Help:      "Number of remote fetches not yet completed",
		}),
	}
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.dispatched.Inc()
	m.inFlight.Inc()
}

func (m *Metrics) finished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.outcomes.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
