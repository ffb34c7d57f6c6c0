package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MadalinaDev/PR-labs/internal/logger"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/metrics"
)

// NewRouter creates the chi router with all middleware and routes.
//
// Routes:
//   - GET /healthz - liveness probe
//   - GET /counters - JSON snapshot of the per-path request counter
//   - GET /metrics - Prometheus exposition (404 when metrics are disabled)
func NewRouter(hits counter.Counter) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
			"service": "fileserver",
		}))
	})

	r.Get("/counters", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, okResponse(hits.Snapshot()))
	})

	if reg := metrics.GetRegistry(); reg != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/healthz", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs control-plane requests using the internal logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("Control-plane request",
			"request_id", requestID,
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.KeyBytes, ww.BytesWritten(),
			logger.KeyDurationMs, logger.Duration(start),
		)
	})
}
