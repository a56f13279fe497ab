package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"mtga-analyzer/backend/internal/config"
	"mtga-analyzer/backend/internal/health"
)

const redisProbeName = "redis"

// redisStore is the subset of *redis.Client used by RedisCache. Tests inject
// fakes built from redis.NewStringResult / redis.NewStatusResult.
type redisStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisCache stores card payloads in Redis with a per-key TTL. Every call
// goes through the circuit breaker; after 3 consecutive failures calls are
// rejected immediately and the catalog treats them as misses.
type RedisCache struct {
	cfg   config.RedisConfig
	ttl   time.Duration
	cb    *gobreaker.CircuitBreaker
	store redisStore
}

// NewRedisCache creates a RedisCache. go-redis dials lazily, so no connection
// is opened at construction time.
func NewRedisCache(cfg config.RedisConfig, ttl time.Duration, cb *gobreaker.CircuitBreaker) *RedisCache {
	return &RedisCache{
		cfg: cfg,
		ttl: ttl,
		cb:  cb,
		store: redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

// Get reads key. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		val []byte
		hit bool
	)
	_, err := c.cb.Execute(func() (any, error) {
		b, err := c.store.Get(ctx, c.cfg.KeyPrefix+key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}
		val, hit = b, true
		return nil, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val, hit, nil
}

// Set writes key with the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	_, err := c.cb.Execute(func() (any, error) {
		if err := c.store.Set(ctx, c.cfg.KeyPrefix+key, value, c.ttl).Err(); err != nil {
			return nil, fmt.Errorf("redis set: %w", err)
		}
		return nil, nil
	})
	return err
}

// Probe sends a PING command to Redis and validates the PONG response.
func (c *RedisCache) Probe(ctx context.Context) health.ProbeResult {
	start := time.Now()

	_, err := c.cb.Execute(func() (any, error) {
		val, err := c.store.Ping(ctx).Result()
		if err != nil {
			return nil, fmt.Errorf("ping: %w", err)
		}
		if val != "PONG" {
			return nil, fmt.Errorf("unexpected PING response: %q", val)
		}
		return nil, nil
	})

	latency := time.Since(start).Milliseconds()

	if err != nil {
		errMsg := err.Error()
		if errors.Is(err, gobreaker.ErrOpenState) {
			errMsg = "circuit open"
		}
		return health.ProbeResult{
			Name:      redisProbeName,
			OK:        false,
			LatencyMs: latency,
			Error:     errMsg,
		}
	}

	return health.ProbeResult{
		Name:      redisProbeName,
		OK:        true,
		LatencyMs: latency,
	}
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.store.Close()
}
