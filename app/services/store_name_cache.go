// Package services provides external service integrations and technical concerns like tokens and delivery channels
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const storeNamesCacheKey = "market_stores:active_names"

// StoreNameCache caches the active market store roster. The ingestion worker
// resolves merchant membership on every ticket, so the roster is read far
// more often than it changes.
type StoreNameCache interface {
	Get(ctx context.Context) ([]string, bool)
	Set(ctx context.Context, names []string)
	Invalidate(ctx context.Context)
}

// RedisStoreNameCache implements StoreNameCache on Redis
type RedisStoreNameCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStoreNameCache creates a new store name cache
func NewRedisStoreNameCache(client *redis.Client, ttl time.Duration) StoreNameCache {
	return &RedisStoreNameCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached roster and whether it was present. Cache errors
// behave as misses.
func (c *RedisStoreNameCache) Get(ctx context.Context) ([]string, bool) {
	raw, err := c.client.Get(ctx, storeNamesCacheKey).Bytes()
	if err != nil {
		return nil, false
	}

	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, false
	}

	return names, true
}

// Set stores the roster with the configured TTL. Failures are ignored; the
// roster is always recoverable from the database.
func (c *RedisStoreNameCache) Set(ctx context.Context, names []string) {
	raw, err := json.Marshal(names)
	if err != nil {
		return
	}

	c.client.Set(ctx, storeNamesCacheKey, raw, c.ttl)
}

// Invalidate drops the cached roster. Called after any store mutation.
func (c *RedisStoreNameCache) Invalidate(ctx context.Context) {
	c.client.Del(ctx, storeNamesCacheKey)
}

// NoopStoreNameCache is used when no cache backend is configured
type NoopStoreNameCache struct{}

// NewNoopStoreNameCache creates a cache that never hits
func NewNoopStoreNameCache() StoreNameCache {
	return &NoopStoreNameCache{}
}

func (c *NoopStoreNameCache) Get(context.Context) ([]string, bool) { return nil, false }
func (c *NoopStoreNameCache) Set(context.Context, []string)        {}
func (c *NoopStoreNameCache) Invalidate(context.Context)           {}
