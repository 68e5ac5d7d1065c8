package backend

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Hooks lets callers observe backend traffic without the client depending on
// a metrics backend.
type Hooks struct {
	OnFetch        func(endpoint, outcome string, duration float64)
	OnCircuitState func(state string)
}

// Metrics holds Prometheus metrics for backend fetches.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	CircuitOpen   prometheus.Gauge
}

// NewMetrics registers and returns backend metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triageboard_backend_fetches_total",
			Help: "Total backend fetches by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "triageboard_backend_fetch_duration_seconds",
			Help:    "Duration of backend fetches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"endpoint"}),
		CircuitOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triageboard_backend_circuit_open",
			Help: "1 while the backend circuit breaker is open, 0.5 half-open, 0 closed.",
		}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.CircuitOpen,
	)

	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnFetch: func(endpoint, outcome string, duration float64) {
			m.FetchesTotal.WithLabelValues(endpoint, outcome).Inc()
			m.FetchDuration.WithLabelValues(endpoint).Observe(duration)
		},
		OnCircuitState: func(state string) {
			switch state {
			case "open":
				m.CircuitOpen.Set(1)
			case "half-open":
				m.CircuitOpen.Set(0.5)
			default:
				m.CircuitOpen.Set(0)
			}
		},
	}
}
