package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for viewer sessions.
type Metrics struct {
	Active prometheus.Gauge
}

// NewMetrics registers and returns session metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "triageboard_sessions",
			Help: "Viewer sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.Active)
	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnCount: func(n int) { m.Active.Set(float64(n)) },
	}
}
