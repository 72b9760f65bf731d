package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	// Messaging
	MessagesTotal *prometheus.CounterVec

	// Lookups
	LookupsTotal            *prometheus.CounterVec
	LookupErrors            *prometheus.CounterVec
	OutboundRequestDuration *prometheus.HistogramVec

	// Cache
	CacheRequests *prometheus.CounterVec

	// Ops HTTP server
	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates all metrics and registers them with the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the metrics with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid duplicate registration.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgeobot_messages_total",
				Help: "Total number of handled messages by route",
			},
			[]string{"route"},
		),

		LookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgeobot_lookups_total",
				Help: "Total number of IP lookups by result",
			},
			[]string{"result"},
		),

		LookupErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgeobot_lookup_errors_total",
				Help: "Total number of failed IP lookups by error type",
			},
			[]string{"error_type"},
		),

		OutboundRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ipgeobot_outbound_request_duration_seconds",
				Help:    "Latency of calls to the self-address and geolocation services",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgeobot_cache_requests_total",
				Help: "Geolocation cache hits vs misses",
			},
			[]string{"result"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ipgeobot_ops_http_requests_total",
				Help: "Total number of requests to the ops HTTP server",
			},
			[]string{"method", "path", "status"},
		),
	}
}
