// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 Metrics collector
// =============================================================================

// Collector registers and records the Prometheus metrics for the
// control plane.
type Collector struct {
	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Browser action metrics
	actionsTotal        *prometheus.CounterVec
	actionDuration      *prometheus.HistogramVec
	coordinateFallbacks *prometheus.CounterVec

	// Page snapshot metrics
	snapshotsTotal   prometheus.Counter
	snapshotDuration prometheus.Histogram
	snapshotElements prometheus.Histogram

	// Intervention metrics
	interventionsTotal    *prometheus.CounterVec
	interventionsResolved *prometheus.CounterVec
	interventionsPending  prometheus.Gauge
	interventionWait      *prometheus.HistogramVec

	// Store metrics

	logger *zap.Logger
}

// NewCollector creates the collector and registers every metric under
// namespace on the default registry.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP metrics
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// Browser action metrics
	c.actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_actions_total",
			Help:      "Total number of browser actions",
		},
		[]string{"action", "status"},
	)

	c.actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "browser_action_duration_seconds",
			Help:      "Browser action duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"action"},
	)

	c.coordinateFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_fallbacks_total",
			Help:      "Selector actions retried at element coordinates",
		},
		[]string{"action", "status"},
	)

	// Page snapshot metrics
	c.snapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_snapshots_total",
			Help:      "Total number of page snapshots built",
		},
	)

	c.snapshotDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_snapshot_duration_seconds",
			Help:      "Page snapshot build duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	c.snapshotElements = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_snapshot_elements",
			Help:      "Interactive elements per page snapshot",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// Intervention metrics
	c.interventionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interventions_total",
			Help:      "Total number of intervention requests",
		},
		[]string{"type"},
	)

	c.interventionsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interventions_resolved_total",
			Help:      "Intervention requests by terminal status",
		},
		[]string{"type", "status"},
	)

	c.interventionsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interventions_pending",
			Help:      "Intervention requests currently awaiting an operator",
		},
	)

	c.interventionWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "intervention_wait_seconds",
			Help:      "Time from intervention request to terminal status",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"type"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP metrics
// =============================================================================

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🖱️ Browser action metrics
// =============================================================================

// RecordAction records one dispatched browser action.
func (c *Collector) RecordAction(action, status string, duration time.Duration) {
	c.actionsTotal.WithLabelValues(action, status).Inc()
	c.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordCoordinateFallback records a selector action that was retried
// at the element's coordinates.
func (c *Collector) RecordCoordinateFallback(action, status string) {
	c.coordinateFallbacks.WithLabelValues(action, status).Inc()
}

// =============================================================================
// 📸 Page snapshot metrics
// =============================================================================

// RecordSnapshot records one page snapshot build.
func (c *Collector) RecordSnapshot(duration time.Duration, elements int) {
	c.snapshotsTotal.Inc()
	c.snapshotDuration.Observe(duration.Seconds())
	c.snapshotElements.Observe(float64(elements))
}

// =============================================================================
// 🙋 Intervention metrics
// =============================================================================

// RecordInterventionRequested records a new intervention request.
func (c *Collector) RecordInterventionRequested(interventionType string) {
	c.interventionsTotal.WithLabelValues(interventionType).Inc()
	c.interventionsPending.Inc()
}

// RecordInterventionResolved records a request reaching a terminal
// status after waiting for the given duration.
func (c *Collector) RecordInterventionResolved(interventionType, status string, waited time.Duration) {
	c.interventionsResolved.WithLabelValues(interventionType, status).Inc()
	c.interventionsPending.Dec()
	c.interventionWait.WithLabelValues(interventionType).Observe(waited.Seconds())
}

// =============================================================================
// 🗄️ Store metrics
// =============================================================================

// =============================================================================
// 🔧 Helpers
// =============================================================================

// statusCode buckets an HTTP status into its class.
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
