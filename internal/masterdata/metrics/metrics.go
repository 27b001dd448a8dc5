package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the masterdata module. Tracks mutation
// counts per type, optimistic-lock conflicts and the temporal query path.
type Metrics struct {
	PersonsCreated     prometheus.Counter
	Mutations          *prometheus.CounterVec
	VersionConflicts   prometheus.Counter
	Corrections        prometheus.Counter
	StateAtDuration    prometheus.Histogram
	MutationTxDuration prometheus.Histogram
}

// New creates a Metrics instance with all masterdata metrics registered.
func New() *Metrics {
	return &Metrics{
		PersonsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govinda_persons_created_total",
			Help: "Total number of persons created",
		}),
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "govinda_person_mutations_total",
			Help: "Total number of effective-dated person mutations by type",
		}, []string{"mutation_type"}),
		VersionConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govinda_person_version_conflicts_total",
			Help: "Total number of mutations rejected by the optimistic lock",
		}),
		Corrections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govinda_history_corrections_total",
			Help: "Total number of history entries superseded by corrections",
		}),
		StateAtDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govinda_state_at_duration_seconds",
			Help:    "Duration of temporal state-at-date queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		MutationTxDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govinda_person_mutation_tx_duration_seconds",
			Help:    "Duration of the aggregate-plus-history mutation transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementPersonsCreated records a successful person creation.
func (m *Metrics) IncrementPersonsCreated() {
	m.PersonsCreated.Inc()
}

// IncrementMutation records a persisted effective-dated mutation.
func (m *Metrics) IncrementMutation(mutationType string) {
	m.Mutations.WithLabelValues(mutationType).Inc()
}

// IncrementVersionConflict records a mutation lost to a concurrent writer.
func (m *Metrics) IncrementVersionConflict() {
	m.VersionConflicts.Inc()
}

// IncrementCorrection records a superseded history entry.
func (m *Metrics) IncrementCorrection() {
	m.Corrections.Inc()
}

// ObserveStateAt records the duration of a state-at-date query.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveStateAt(start time.Time) {
	m.StateAtDuration.Observe(time.Since(start).Seconds())
}

// ObserveMutationTx records the duration of a mutation transaction.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMutationTx(start time.Time) {
	m.MutationTxDuration.Observe(time.Since(start).Seconds())
}
