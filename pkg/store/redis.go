package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is the default retention for persisted engine state.
	DefaultTTL = 90 * 24 * time.Hour
	// DefaultKeyPrefix namespaces all engine keys in Redis.
	DefaultKeyPrefix = "codequest:progression:"
)

// RedisGatewayConfig tunes the Redis-backed gateway.
type RedisGatewayConfig struct {
	// KeyPrefix namespaces all keys. Empty means DefaultKeyPrefix.
	KeyPrefix string
	// TTL applied on every write. Zero means DefaultTTL; negative disables expiry.
	TTL time.Duration
}

// RedisGateway implements Gateway on top of a Redis client, storing each
// value as a JSON blob under a prefixed key.
type RedisGateway struct {
	client redis.UniversalClient
	cfg    RedisGatewayConfig
}

// NewRedisGateway creates a Redis-backed persistence gateway.
func NewRedisGateway(client redis.UniversalClient, cfg RedisGatewayConfig) *RedisGateway {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	return &RedisGateway{client: client, cfg: cfg}
}

func (g *RedisGateway) makeKey(key string) string {
	return g.cfg.KeyPrefix + key
}

func (g *RedisGateway) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := g.client.Get(ctx, g.makeKey(key)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("failed to unmarshal key %s: %w", key, err)
	}
	return true, nil
}

func (g *RedisGateway) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal key %s: %w", key, err)
	}

	ttl := g.cfg.TTL
	if ttl < 0 {
		ttl = 0 // redis: zero expiration means persist forever
	}
	if err := g.client.Set(ctx, g.makeKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	logrus.Debugf("persisted key %s (%d bytes)", key, len(data))
	return nil
}

func (g *RedisGateway) Delete(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.makeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
