package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, outcome string)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncRetriesTotal(endpoint string)
	IncPersistenceErrors()
	ObservePersistenceDuration(duration time.Duration)
	Registry() *prometheus.Registry
}

type MetricsProvider struct {
	registry            *prometheus.Registry
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	retriesTotal        *prometheus.CounterVec
	persistenceErrors   prometheus.Counter
	persistenceDuration prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, outcome string) {
	m.requestsTotal.WithLabelValues(endpoint, outcome).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRetriesTotal(endpoint string) {
	m.retriesTotal.WithLabelValues(endpoint).Inc()
}

func (m *MetricsProvider) IncPersistenceErrors() {
	m.persistenceErrors.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

// Registry returns the collector registry so the host application can mount
// it on its own /metrics handler.
func (m *MetricsProvider) Registry() *prometheus.Registry {
	return m.registry
}

func NewMetricsProvider(conf *MetricsConfig) MetricsProviderInterface {
	if !conf.Enabled {
		return &noopMetrics{}
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsProvider{
		registry: registry,

		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixtrack_requests_total",
			Help: "Total number of API requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mixtrack_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		retriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mixtrack_retries_total",
			Help: "Total number of API request retries",
		}, []string{"endpoint"}),

		persistenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "mixtrack_persistence_errors_total",
			Help: "Total number of failed persistence operations",
		}),

		persistenceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "mixtrack_persistence_duration_seconds",
			Help:    "Duration of persistence operations in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ string)              {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncRetriesTotal(_ string)                         {}
func (n *noopMetrics) IncPersistenceErrors()                            {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) Registry() *prometheus.Registry                   { return nil }
