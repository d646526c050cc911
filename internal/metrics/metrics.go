// Package metrics exposes Prometheus counters for pipeline runs.
// All methods are safe on a nil *Metrics so callers can run without metrics.
package metrics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item results used as the "result" label
const (
	ResultDone   = "done"
	ResultFailed = "failed"
)

// MetricsPath is the scrape endpoint
const MetricsPath = "/metrics"

// Metrics holds Prometheus counters and gauges for the pipeline.
type Metrics struct {
	registry        *prometheus.Registry
	itemsTotal      *prometheus.CounterVec
	bytesDownloaded prometheus.Counter
	muxFailures     *prometheus.CounterVec
	activeRuns      prometheus.Gauge
}

// New creates and registers Prometheus metrics for the pipeline.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	itemsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytmux_items_total",
		Help: "Total number of items processed, by result",
	}, []string{"result"})
	bytesDownloaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ytmux_bytes_downloaded_total",
		Help: "Total number of stream bytes written to disk",
	})
	muxFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ytmux_mux_failures_total",
		Help: "Total number of failed ffmpeg invocations, by operation",
	}, []string{"op"})
	activeRuns := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ytmux_active_runs",
		Help: "Number of item runs currently in progress",
	})

	registry.MustRegister(
		itemsTotal,
		bytesDownloaded,
		muxFailures,
		activeRuns,
	)

	return &Metrics{
		registry:        registry,
		itemsTotal:      itemsTotal,
		bytesDownloaded: bytesDownloaded,
		muxFailures:     muxFailures,
		activeRuns:      activeRuns,
	}
}

// ItemFinished counts one item with its result.
func (m *Metrics) ItemFinished(result string) {
	if m == nil {
		return
	}
	m.itemsTotal.WithLabelValues(result).Inc()
}

// AddBytes adds n downloaded bytes.
func (m *Metrics) AddBytes(n int) {
	if m == nil {
		return
	}
	m.bytesDownloaded.Add(float64(n))
}

// MuxFailed counts a failed ffmpeg invocation for op.
func (m *Metrics) MuxFailed(op string) {
	if m == nil {
		return
	}
	m.muxFailures.WithLabelValues(op).Inc()
}

// RunStarted increments the active runs gauge.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

// RunFinished decrements the active runs gauge.
func (m *Metrics) RunFinished() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// NewRouter mounts the metrics handler on a chi router.
func NewRouter(m *Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Method(http.MethodGet, MetricsPath, m.Handler())
	return r
}
