package cache

import (
	"context"

	"github.com/evyataryagoni/ipgeobot/internal/models"
)

// Cache keeps recent geolocation records keyed by address.
// Allows a Redis implementation, a no-op one and easy testing with mocks.
type Cache interface {
	// Get returns the cached record, or nil when there is none
	Get(ctx context.Context, ip string) (*models.GeoRecord, error)

	// Set stores a record under ip for the cache's TTL
	Set(ctx context.Context, ip string, record *models.GeoRecord) error

	// Close cleans up resources (connections etc.)
	Close() error
}

// NopCache never stores anything. It is used when caching is disabled.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*models.GeoRecord, error) { return nil, nil }
func (NopCache) Set(context.Context, string, *models.GeoRecord) error { return nil }
func (NopCache) Close() error { return nil }
