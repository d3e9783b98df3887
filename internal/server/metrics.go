package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects serve-mode observability counters on a private registry
// so tests can run multiple servers without duplicate-registration panics.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics creates and registers the server metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return &Metrics{
		registry: reg,
		requestsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "catscan_classify_requests_total",
			Help: "Classification requests by outcome.",
		}, []string{"outcome"}),
		duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "catscan_classify_duration_seconds",
			Help:    "Wall-clock duration of classification requests.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one classification request.
func (m *Metrics) ObserveRequest(outcome string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}
