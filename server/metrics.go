package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics instruments the token endpoint. Each Server carries its own
// registry so multiple instances can coexist in one process.
type Metrics struct {
	registry             *prometheus.Registry
	tokenRequests        *prometheus.CounterVec
	tokenRequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		tokenRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "token_requests_total",
			Help: "Token endpoint requests by grant type and result.",
		}, []string{"grant_type", "result"}),
		tokenRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "token_request_duration_seconds",
			Help:    "Token endpoint latency by grant type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"grant_type"}),
	}
}

func (m *Metrics) ObserveTokenRequest(grantType, result string, elapsed time.Duration) {
	m.tokenRequests.WithLabelValues(grantType, result).Inc()
	m.tokenRequestDuration.WithLabelValues(grantType).Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
