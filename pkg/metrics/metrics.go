// Package metrics exposes Prometheus instrumentation for the proxy.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Proxy request outcomes.
const (
	OutcomeFake      = "fake"
	OutcomeForwarded = "forwarded"
	OutcomeError     = "error"
)

// Metrics holds the proxy's instruments on a private registry, so tests
// can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// ProxyRequests counts handled proxy transactions by outcome.
	ProxyRequests *prometheus.CounterVec

	// UpstreamErrors counts forward attempts that failed at the transport
	// level.
	UpstreamErrors prometheus.Counter

	// LogEntries tracks the current request history size.
	LogEntries prometheus.Gauge

	// StreamSubscribers tracks open live-stream connections.
	StreamSubscribers prometheus.Gauge
}

// New creates a Metrics with all instruments registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProxyRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fakegate_proxy_requests_total",
			Help: "Proxy transactions handled, by outcome.",
		}, []string{"outcome"}),
		UpstreamErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "fakegate_upstream_errors_total",
			Help: "Forwarded requests that failed at the transport level.",
		}),
		LogEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fakegate_log_entries",
			Help: "Request log entries currently retained.",
		}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fakegate_log_subscribers",
			Help: "Open live request stream connections.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
