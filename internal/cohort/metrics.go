package cohort

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/triageboard/internal/clinical"
)

// Metrics holds Prometheus metrics for cohort page loads.
type Metrics struct {
	LoadsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns cohort metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triageboard_cohort_page_loads_total",
			Help: "Cohort page loads by cohort and outcome (ok, error, stale).",
		}, []string{"cohort", "outcome"}),
	}
	reg.MustRegister(m.LoadsTotal)
	return m
}

// Hooks returns Hooks that update the corresponding metrics.
func (m *Metrics) Hooks() Hooks {
	return Hooks{
		OnLoad: func(cohort clinical.Cohort, outcome string) {
			m.LoadsTotal.WithLabelValues(string(cohort), outcome).Inc()
		},
	}
}
