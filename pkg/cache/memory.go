package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache is a bounded in-process cache of JSON encoded values. Each
// entry carries its own TTL; the least recently used entry goes first when
// the cache is full.
type MemoryCache struct {
	c *ttlcache.Cache[string, []byte]
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:    1000,
		DefaultTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1
	}

	return &MemoryCache{
		c: ttlcache.New[string, []byte](
			ttlcache.WithTTL[string, []byte](cfg.DefaultTTL),
			ttlcache.WithCapacity[string, []byte](uint64(cfg.MaxSize)),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	mc.setRaw(key, data, ttl)
	return nil
}

// setRaw stores data under key. A non-positive ttl means the default TTL.
func (mc *MemoryCache) setRaw(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = ttlcache.DefaultTTL
	}
	mc.c.Set(key, data, ttl)
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest any) error {
	data, ok := mc.getRaw(key)
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) getRaw(key string) ([]byte, bool) {
	item := mc.c.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		mc.c.Delete(key)
	}
	return nil
}

// Len reports the number of live entries.
func (mc *MemoryCache) Len() int {
	mc.c.DeleteExpired()
	return mc.c.Len()
}

func (mc *MemoryCache) Close() error {
	mc.c.DeleteAll()
	return nil
}
