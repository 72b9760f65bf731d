package router

import (
	"net/http"

	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	custommiddleware "github.com/evyataryagoni/ipgeobot/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates the ops router: health check and Prometheus metrics.
// gatherer is what /metrics exposes; nil means the default registry.
func SetupRouter(m *metrics.Metrics, gatherer prometheus.Gatherer, log *logger.Logger) chi.Router {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Order matters: RequestID first so the logger can pick it up
	r.Use(middleware.RequestID)
	r.Use(custommiddleware.LoggingMiddleware(log, m))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

// healthCheckHandler returns 200 OK while the process is up
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
