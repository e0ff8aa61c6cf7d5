package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ledger-app/config"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = time.Minute

// Cache is an optional Redis-backed response cache for the analytics
// endpoints. A nil *Cache is a no-op, so callers never have to branch on
// whether Redis is configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis when REDIS_ADDR is set; otherwise it returns nil.
func New() (*Cache, error) {
	if config.RedisAddr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(config.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// GetJSON loads a cached value into out; ok is false on miss or when the
// cache is disabled.
func (c *Cache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if c == nil {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(payload, out) == nil
}

// SetJSON stores a value under key for the configured TTL. Failures are
// swallowed: a cold cache must never break a read path.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, payload, c.ttl)
}
