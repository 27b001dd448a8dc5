package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the tenant module.
type Metrics struct {
	TenantCreated     prometheus.Counter
	GetTenantDuration prometheus.Histogram
}

// New creates a new Metrics instance with all tenant module metrics registered.
func New() *Metrics {
	return &Metrics{
		TenantCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "govinda_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		GetTenantDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "govinda_get_tenant_duration_seconds",
			Help:    "Duration of GetTenant operations (tenant resolution path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementTenantCreated records a successful tenant creation.
func (m *Metrics) IncrementTenantCreated() {
	m.TenantCreated.Inc()
}

// ObserveGetTenant records the duration of a GetTenant operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGetTenant(start time.Time) {
	m.GetTenantDuration.Observe(time.Since(start).Seconds())
}
