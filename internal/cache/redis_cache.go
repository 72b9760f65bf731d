package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/evyataryagoni/ipgeobot/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "geo:"

// RedisCache implements Cache using Redis keys with a TTL
//
// Key Format: geo:<ip_address>
// Value: JSON-encoded GeoRecord
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis and checks the connection
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
	}, nil
}

// Get implements Cache
func (c *RedisCache) Get(ctx context.Context, ip string) (*models.GeoRecord, error) {
	val, err := c.client.Get(ctx, keyPrefix+ip).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	var record models.GeoRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to decode geo record: %w", err)
	}

	return &record, nil
}

// Set implements Cache
func (c *RedisCache) Set(ctx context.Context, ip string, record *models.GeoRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode geo record: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+ip, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
