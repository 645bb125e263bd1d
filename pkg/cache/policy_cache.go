package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPolicyCacheTTL applies when no TTL is configured.
	DefaultPolicyCacheTTL = time.Minute

	policyCacheKey = "circulation:policy"

	// loadedField marks a cached hash as populated, so an empty settings
	// table is still a cache hit.
	loadedField = "_loaded"
)

// PolicyCache stores the raw circulation_settings rows as one Redis hash.
// Key format: "circulation:policy"
type PolicyCache struct {
	client *RedisClient
	ttl    time.Duration
}

// NewPolicyCache creates a PolicyCache backed by the given RedisClient.
func NewPolicyCache(r *RedisClient, ttl time.Duration) *PolicyCache {
	if ttl <= 0 {
		ttl = DefaultPolicyCacheTTL
	}
	return &PolicyCache{client: r, ttl: ttl}
}

// Get returns the cached settings.
// Returns redis.Nil error when the key does not exist or has expired.
func (c *PolicyCache) Get(ctx context.Context) (map[string]string, error) {
	vals, err := c.client.Client().HGetAll(ctx, policyCacheKey).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if _, ok := vals[loadedField]; !ok {
		return nil, redis.Nil
	}
	delete(vals, loadedField)
	return vals, nil
}

// Set replaces the cached settings and resets the TTL.
// Uses a transaction pipeline so readers never see a partial hash.
func (c *PolicyCache) Set(ctx context.Context, settings map[string]string) error {
	fields := make([]any, 0, len(settings)*2+2)
	fields = append(fields, loadedField, "1")
	for k, v := range settings {
		fields = append(fields, k, v)
	}

	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, policyCacheKey)
	pipe.HSet(ctx, policyCacheKey, fields...)
	pipe.Expire(ctx, policyCacheKey, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete drops the cached settings.
func (c *PolicyCache) Delete(ctx context.Context) error {
	if err := c.client.Client().Del(ctx, policyCacheKey).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}
