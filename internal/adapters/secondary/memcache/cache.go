package memcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"dropout-risk-service/internal/core/domain"
	ports "dropout-risk-service/internal/core/ports/output"
)

// probabilityCache keeps model outputs in process memory.
type probabilityCache struct {
	store *gocache.Cache
}

func NewProbabilityCache(defaultTTL, cleanupInterval time.Duration) ports.ProbabilityCache {
	return &probabilityCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *probabilityCache) Get(_ context.Context, key string) (float64, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return 0, domain.ErrCacheMiss
	}
	p, ok := v.(float64)
	if !ok {
		c.store.Delete(key)
		return 0, domain.ErrCacheMiss
	}
	return p, nil
}

// Set stores the probability; a zero ttl uses the cache default.
func (c *probabilityCache) Set(_ context.Context, key string, probability float64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, probability, ttl)
	return nil
}
