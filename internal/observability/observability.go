// Package observability builds the structured logger and the Prometheus metrics of the worker.
package observability

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewLogger returns a slog logger writing to w in the given format.
// Unknown formats fall back to text.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

const namespace = "tally"

// Metrics holds the worker instruments on a private registry.
type Metrics struct {
	registry     *prometheus.Registry
	processed    *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	queueEmpty   prometheus.Counter
}

// NewMetrics creates the worker instruments. Each call has its own registry
// so tests and multiple workers never collide.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_processed_total",
			Help:      "Reports processed by the worker, by final status.",
		}, []string{"status"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Duration of each computation step.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"step"}),
		queueEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_empty_polls_total",
			Help:      "Polls that found no report to book.",
		}),
	}
	registry.MustRegister(m.processed, m.stepDuration, m.queueEmpty)
	return m
}

// ObserveReport counts a finished report by status.
func (m *Metrics) ObserveReport(status string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(status).Inc()
}

// ObserveStep records the duration of one step.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveEmptyPoll counts a poll that found the queue empty.
func (m *Metrics) ObserveEmptyPoll() {
	if m == nil {
		return
	}
	m.queueEmpty.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
