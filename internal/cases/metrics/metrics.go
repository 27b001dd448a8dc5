package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks case lifecycle activity.
type Metrics struct {
	CasesOpened prometheus.Counter
	Transitions *prometheus.CounterVec
}

// New creates a Metrics instance with all case metrics registered.
func New() *Metrics {
	return &Metrics{
		CasesOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govinda_cases_opened_total",
			Help: "Total number of cases opened",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govinda_case_transitions_total",
			Help: "Total number of case status transitions by target status",
		}, []string{"to_status"}),
	}
}

func (m *Metrics) IncrementCasesOpened() {
	m.CasesOpened.Inc()
}

func (m *Metrics) IncrementTransition(toStatus string) {
	m.Transitions.WithLabelValues(toStatus).Inc()
}
