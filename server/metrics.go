package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gssdash"

// Metrics holds the dashboard's Prometheus collectors on a private registry.
// It satisfies views.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	recomputes     *prometheus.CounterVec
	recomputeTime  *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	rows           prometheus.Gauge
	requests       *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_recomputes_total",
			Help:      "Controller recomputations, by controller.",
		}, []string{"controller"}),
		recomputeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_recompute_seconds",
			Help:      "Time spent recomputing a controller's charts.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"controller"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_hits_total",
			Help:      "Controller outputs served from the memo cache.",
		}, []string{"controller"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_render_seconds",
			Help:      "Chart image render time.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chart", "format"}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      "Respondents loaded.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by route and status code.",
		}, []string{"method", "route", "code"}),
	}
	m.registry.MustRegister(
		m.recomputes, m.recomputeTime, m.cacheHits, m.renderDuration, m.rows, m.requests,
		collectors.NewGoCollector(),
	)
	return m
}

// Recomputed records one controller recomputation.
func (m *Metrics) Recomputed(controller string, took time.Duration) {
	m.recomputes.WithLabelValues(controller).Inc()
	m.recomputeTime.WithLabelValues(controller).Observe(took.Seconds())
}

// CacheHit records one memoized output served.
func (m *Metrics) CacheHit(controller string) {
	m.cacheHits.WithLabelValues(controller).Inc()
}

// Rendered records a chart image render.
func (m *Metrics) Rendered(chart, format string, took time.Duration) {
	m.renderDuration.WithLabelValues(chart, format).Observe(took.Seconds())
}

// SetRows records the dataset size.
func (m *Metrics) SetRows(n int) { m.rows.Set(float64(n)) }

func (m *Metrics) request(method, route string, code int) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
