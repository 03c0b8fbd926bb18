package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()

	m.ProxyRequests.WithLabelValues(OutcomeFake).Inc()
	m.ProxyRequests.WithLabelValues(OutcomeForwarded).Add(2)
	m.UpstreamErrors.Inc()
	m.LogEntries.Set(42)
	m.StreamSubscribers.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues(OutcomeFake)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProxyRequests.WithLabelValues(OutcomeForwarded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamErrors))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.LogEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamSubscribers))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ProxyRequests.WithLabelValues(OutcomeError).Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `fakegate_proxy_requests_total{outcome="error"} 1`)
}

func TestRegistriesAreIsolated(t *testing.T) {
	a := New()
	b := New()
	a.UpstreamErrors.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.UpstreamErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.UpstreamErrors))
}
