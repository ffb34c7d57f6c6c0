// Package prometheus provides the Prometheus-backed implementations of
// the metrics interfaces.
package prometheus

import (
	"strconv"
	"time"

	"github.com/MadalinaDev/PR-labs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	rateLimitedTotal  prometheus.Counter
	connectionsTotal  *prometheus.CounterVec
	activeConnections prometheus.Gauge
}

// NewHTTPMetrics creates a Prometheus-backed HTTP metrics recorder.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
// The nil recorder satisfies metrics.HTTPMetrics and records nothing.
func NewHTTPMetrics() *httpMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &httpMetrics{
		requestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileserver_requests_total",
				Help: "Total number of HTTP requests by method and status code",
			},
			[]string{"method", "status"},
		),
		requestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fileserver_request_duration_seconds",
				Help:    "Request processing duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		rateLimitedTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "fileserver_rate_limited_total",
				Help: "Total number of requests denied by the rate limiter",
			},
		),
		connectionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fileserver_connections_total",
				Help: "Total number of connections by lifecycle event",
			},
			[]string{"event"}, // "accepted", "closed"
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "fileserver_active_connections",
				Help: "Number of currently active client connections",
			},
		),
	}
}

func (m *httpMetrics) RecordRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (m *httpMetrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

func (m *httpMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsTotal.WithLabelValues("accepted").Inc()
}

func (m *httpMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsTotal.WithLabelValues("closed").Inc()
}

func (m *httpMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}
