package providers

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	m := NewMetricsProvider(&MetricsConfig{Enabled: false})
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	// Ensure no-op methods don't panic
	m.IncRequestsTotal("/track", "ok")
	m.ObserveRequestDuration("/track", time.Millisecond)
	m.IncRetriesTotal("/track")
	m.IncPersistenceErrors()
	m.ObservePersistenceDuration(time.Millisecond)
	assert.Nil(t, m.Registry())
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	m := NewMetricsProvider(&MetricsConfig{Enabled: true})
	provider, ok := m.(*MetricsProvider)
	require.True(t, ok)
	require.NotNil(t, m.Registry())

	m.IncRequestsTotal("/track", "ok")
	m.IncRequestsTotal("/track", "ok")
	m.IncRequestsTotal("/engage", "server_error")
	m.IncRetriesTotal("/track")
	m.IncPersistenceErrors()
	m.ObserveRequestDuration("/track", 10*time.Millisecond)
	m.ObservePersistenceDuration(time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(provider.requestsTotal.WithLabelValues("/track", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(provider.requestsTotal.WithLabelValues("/engage", "server_error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(provider.retriesTotal.WithLabelValues("/track")))
	assert.Equal(t, float64(1), testutil.ToFloat64(provider.persistenceErrors))
}

func TestMetricsProvider_IsolatedRegistries(t *testing.T) {
	a := NewMetricsProvider(&MetricsConfig{Enabled: true})
	b := NewMetricsProvider(&MetricsConfig{Enabled: true})

	assert.NotSame(t, a.Registry(), b.Registry())
}
