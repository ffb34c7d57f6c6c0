// Package metrics defines the observability interfaces the server
// records into, plus the shared Prometheus registry. Implementations
// live in the prometheus subpackage; passing nil recorders disables
// collection with zero overhead.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu      sync.RWMutex
	reg     *prometheus.Registry
	enabled bool
)

// InitRegistry creates the process-wide Prometheus registry. Must be
// called before constructing any recorder; recorders constructed while
// metrics are disabled are nil and record nothing.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	enabled = true
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// GetRegistry returns the shared registry, or nil when disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return reg
}

// HTTPMetrics records request and connection lifecycle events for the
// file server.
//
// All methods must be safe on a nil receiver so call sites never need
// nil checks.
type HTTPMetrics interface {
	// RecordRequest records one completed request with its method,
	// response status, and processing duration.
	RecordRequest(method string, status int, duration time.Duration)

	// RecordRateLimited records one request denied by the rate limiter.
	RecordRateLimited()

	// RecordConnectionAccepted increments the accepted-connection counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the closed-connection counter.
	RecordConnectionClosed()

	// SetActiveConnections sets the active-connection gauge.
	SetActiveConnections(count int32)
}
