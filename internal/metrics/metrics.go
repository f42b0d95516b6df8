// Package metrics exposes Prometheus counters for one task list server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	Mutations           *prometheus.CounterVec
	Tasks               prometheus.Gauge
}

// New creates a Metrics on its own registry. Every series carries a
// "list" label set to name.
func New(name string) *Metrics {
	reg := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"list": name}, reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasklist_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tasklist_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Mutations: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasklist_tasks_mutations_total",
				Help: "Successful task list mutations by operation",
			},
			[]string{"op"},
		),
		Tasks: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "tasklist_tasks",
				Help: "Number of tasks seen at the last load",
			},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest adds one observed request.
func (m *Metrics) RecordRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordMutation counts a successful create or delete.
func (m *Metrics) RecordMutation(op string) {
	m.Mutations.WithLabelValues(op).Inc()
}

// RecordSize updates the task gauge.
func (m *Metrics) RecordSize(size int) {
	m.Tasks.Set(float64(size))
}
