package service

import (
	"context"

	"github.com/evyataryagoni/ipgeobot/internal/cache"
	"github.com/evyataryagoni/ipgeobot/internal/logger"
	"github.com/evyataryagoni/ipgeobot/internal/metrics"
	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// GeoClient performs the actual outbound lookup (see geoapi.Client)
type GeoClient interface {
	Lookup(ctx context.Context, query models.IPQuery) models.LookupResult
}

// LookupService sits between the message router and the geolocation client
//
// Responsibilities:
//   - Serve explicit addresses from the cache when one is configured
//   - Call the client
//   - Log and count outcomes
//
// It does not validate addresses: free text is validated by the router,
// command arguments are passed through as typed.
type LookupService struct {
	client  GeoClient
	cache   cache.Cache
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewLookupService creates a lookup service. c, m and log may be nil.
func NewLookupService(client GeoClient, c cache.Cache, m *metrics.Metrics, log *logger.Logger) *LookupService {
	if c == nil {
		c = cache.NopCache{}
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &LookupService{
		client:  client,
		cache:   c,
		metrics: m,
		logger:  log.WithComponent("LookupService"),
	}
}

// Lookup resolves a query into a record or a classified error.
// Cache failures are logged and otherwise ignored.
func (s *LookupService) Lookup(ctx context.Context, query models.IPQuery) models.LookupResult {
	log := s.logger.WithIP(query.Address)

	if !query.IsSelf() {
		if record := s.fromCache(ctx, query.Address); record != nil {
			log.Debug().Msg("Serving geolocation from cache")
			s.countSuccess()
			return models.Success(record)
		}
	}

	log.Debug().Bool("self", query.IsSelf()).Msg("Looking up IP address")
	result := s.client.Lookup(ctx, query)

	if !result.OK() {
		if result.Err == nil {
			result = models.Failure(models.LookupError{Kind: models.ErrUnknown, Detail: "empty lookup result"})
		}
		kind := result.Err.Kind
		log.Warn().Str("error_type", string(kind)).Err(result.Err).Msg("IP lookup failed")
		if s.metrics != nil {
			s.metrics.LookupsTotal.WithLabelValues("error").Inc()
			s.metrics.LookupErrors.WithLabelValues(string(kind)).Inc()
		}
		return result
	}

	log.Info().
		Str("resolved_ip", result.Record.IP).
		Msg("IP lookup successful")
	s.countSuccess()

	// own address can change between requests, so only explicit ones are cached
	if !query.IsSelf() {
		if err := s.cache.Set(ctx, query.Address, result.Record); err != nil {
			log.Warn().Err(err).Msg("Failed to cache geolocation")
		}
	}

	return result
}

// Close releases the cache
func (s *LookupService) Close() error {
	return s.cache.Close()
}

func (s *LookupService) fromCache(ctx context.Context, ip string) *models.GeoRecord {
	record, err := s.cache.Get(ctx, ip)
	if err != nil {
		s.logger.Warn().Err(err).Str("ip", ip).Msg("Cache lookup failed")
	}

	if s.metrics != nil {
		if record != nil {
			s.metrics.CacheRequests.WithLabelValues("hit").Inc()
		} else {
			s.metrics.CacheRequests.WithLabelValues("miss").Inc()
		}
	}
	return record
}

func (s *LookupService) countSuccess() {
	if s.metrics != nil {
		s.metrics.LookupsTotal.WithLabelValues("success").Inc()
	}
}
