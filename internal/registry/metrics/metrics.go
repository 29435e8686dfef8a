package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	// Operation outcomes by operation and result ("ok" or an error reason)
	Operations *prometheus.CounterVec

	OperationLatency *prometheus.HistogramVec

	PropertiesListed    prometheus.Counter
	PropertiesPurchased prometheus.Counter

	// Owner cache lookups by result: hit, miss, error
	OwnerCache *prometheus.CounterVec
}

// New registers the registry metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estate_registry_operations_total",
			Help: "Total registry operations by operation and result",
		}, []string{"operation", "result"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estate_registry_operation_duration_seconds",
			Help:    "Duration of registry operations including the store transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),

		PropertiesListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "estate_properties_listed_total",
			Help: "Total properties listed",
		}),

		PropertiesPurchased: factory.NewCounter(prometheus.CounterOpts{
			Name: "estate_properties_purchased_total",
			Help: "Total successful ownership transfers",
		}),

		OwnerCache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estate_owner_cache_lookups_total",
			Help: "Owner cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
func (m *Metrics) ObserveOperation(operation, result string, d time.Duration) {
	if m != nil {
		m.Operations.WithLabelValues(operation, result).Inc()
		m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementListed() {
	if m != nil {
		m.PropertiesListed.Inc()
	}
}

func (m *Metrics) IncrementPurchased() {
	if m != nil {
		m.PropertiesPurchased.Inc()
	}
}

// ObserveOwnerCache records a cache lookup result.
func (m *Metrics) ObserveOwnerCache(result string) {
	if m != nil {
		m.OwnerCache.WithLabelValues(result).Inc()
	}
}
