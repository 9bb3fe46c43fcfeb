package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/captech/portal/internal/application/dashboard"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotCache stores serialized dashboard snapshots in Redis, so a
// multi-instance deployment shares one snapshot per company.
type RedisSnapshotCache struct {
	client *redis.Client
}

// RedisConfig holds the Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisSnapshotCache connects to Redis and verifies the connection
func NewRedisSnapshotCache(cfg RedisConfig) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisSnapshotCache{client: client}, nil
}

// NewRedisSnapshotCacheWithClient wraps an existing client, for tests or
// for sharing a connection pool across components
func NewRedisSnapshotCacheWithClient(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

// Get returns the cached value and whether the key was present
func (c *RedisSnapshotCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot cache: %w", err)
	}
	return data, true, nil
}

// Set stores the value with a TTL
func (c *RedisSnapshotCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot cache: %w", err)
	}
	return nil
}

// Delete removes the key. Deleting an absent key is not an error.
func (c *RedisSnapshotCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// Close closes the underlying client
func (c *RedisSnapshotCache) Close() error {
	return c.client.Close()
}

var _ dashboard.SnapshotCache = (*RedisSnapshotCache)(nil)
