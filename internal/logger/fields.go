package logger

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so logs from the
// accept loop, connection handlers, and the control-plane API can be
// aggregated and queried together.
const (
	// Client identification
	KeyClientIP   = "client_ip"   // Client IP address
	KeyClientPort = "client_port" // Client source port

	// Request
	KeyMethod = "method" // HTTP method
	KeyPath   = "path"   // Request URL path
	KeyStatus = "status" // HTTP response status code

	// Connection
	KeyConnectionID = "connection_id" // Connection identifier

	// Operation metadata
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyBytes      = "bytes"       // Response body size in bytes

	// Rate limiting
	KeyRateLimited = "rate_limited" // Request denied by the rate limiter
)
