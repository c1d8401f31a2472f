package cache

import (
	"context"
	"time"

	"github.com/matzehuels/contribnet/pkg/observability"
)

// Instrumented reports hits, misses and writes of a cache to the
// registered [observability.CacheHooks].
type Instrumented struct {
	Cache
}

// Instrument wraps c so that every lookup and write fires cache hooks.
func Instrument(c Cache) Cache {
	if _, ok := c.(*Instrumented); ok {
		return c
	}
	return &Instrumented{Cache: c}
}

// Get fires OnCacheHit or OnCacheMiss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, KeyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, KeyType(key))
		}
	}
	return data, hit, err
}

// Set fires OnCacheSet after a successful write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KeyType(key), len(data))
	return nil
}
