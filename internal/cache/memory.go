// Package cache provides the in-process card cache.
package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"mtga-analyzer/backend/internal/health"
)

const memoryProbeName = "memory"

// Memory is a TTL and capacity bounded in-process cache. Expired entries are
// evicted by a background loop started in NewMemory and stopped by Close.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemory builds a Memory cache. A zero capacity means unbounded.
func NewMemory(ttl time.Duration, capacity uint64) *Memory {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithTTL[string, []byte](ttl),
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}

	m := &Memory{items: ttlcache.New[string, []byte](opts...)}
	go m.items.Start()
	return m
}

// Get returns the cached value for key. Expired entries are misses.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

// Set stores value under key with the cache's default TTL.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.items.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	return m.items.Len()
}

// Probe always succeeds; the memory cache has no remote dependency.
func (m *Memory) Probe(_ context.Context) health.ProbeResult {
	return health.ProbeResult{Name: memoryProbeName, OK: true}
}

// Close stops the eviction loop.
func (m *Memory) Close() error {
	m.items.Stop()
	return nil
}
