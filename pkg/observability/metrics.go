package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthFailuresTotal *prometheus.CounterVec

	BoardsTotal prometheus.Gauge
	TasksTotal  prometheus.Gauge

	IntegrityOrphans *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskwall_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskwall_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		AuthFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskwall_auth_failures_total",
				Help: "Authentication and authorization failures",
			},
			[]string{"kind"},
		),
		BoardsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskwall_boards_total",
			Help: "Current number of boards",
		}),
		TasksTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskwall_tasks_total",
			Help: "Current number of tasks",
		}),
		IntegrityOrphans: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskwall_integrity_orphans",
				Help: "Orphaned entities found by the last integrity sweep",
			},
			[]string{"entity"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthFailuresTotal,
		m.BoardsTotal,
		m.TasksTotal,
		m.IntegrityOrphans,
	)

	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
