// Package monitoring provides Prometheus metrics for the coordinator
// and its HTTP adapter.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. Each Metrics value carries its
// own registry so isolated instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP adapter
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Coordinator signals
	EventsPublished  *prometheus.CounterVec
	RecordsPersisted *prometheus.CounterVec
	RecordsSynced    *prometheus.CounterVec
	SyncTags         prometheus.Counter
	InstallPrompts   *prometheus.CounterVec
	Online           prometheus.Gauge

	// WebSocket adapter
	WSConnections prometheus.Gauge
}

// New creates a metrics collector on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coordinator_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_events_published_total",
				Help: "Coordinator events published, by type",
			},
			[]string{"type"},
		),
		RecordsPersisted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_records_persisted_total",
				Help: "Offline records persisted, by collection",
			},
			[]string{"collection"},
		),
		RecordsSynced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_records_synced_total",
				Help: "Offline records replayed to the backend, by collection",
			},
			[]string{"collection"},
		),
		SyncTags: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "coordinator_sync_tags_registered_total",
				Help: "Deferred sync tag registrations",
			},
		),
		InstallPrompts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coordinator_install_prompts_total",
				Help: "Install prompt outcomes",
			},
			[]string{"outcome"},
		),
		Online: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "coordinator_online",
				Help: "1 while the host is online, 0 while offline",
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "coordinator_ws_connections",
				Help: "Connected WebSocket observers",
			},
		),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and durations for the gin adapter.
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.RequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
