package httpaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects dispatch metrics.  A nil *Metrics records nothing.
type Metrics struct {
	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// outcome label values
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

// unmatched requests are recorded under one path label so arbitrary URLs
// cannot blow up the label cardinality
const unmatchedPath = "unmatched"

// NewMetrics creates the dispatch collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "httpaction",
				Name:      "invocations_total",
				Help:      "Total number of dispatched action invocations",
			},
			[]string{"path", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "httpaction",
				Name:      "invocation_duration_seconds",
				Help:      "Duration of dispatched action invocations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path"},
		),
	}
	reg.MustRegister(m.invocations, m.duration)
	return m
}

func (m *Metrics) observe(path, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	if outcome == outcomeNotFound {
		path = unmatchedPath
	}
	m.invocations.WithLabelValues(path, outcome).Inc()
	m.duration.WithLabelValues(path).Observe(d.Seconds())
}
