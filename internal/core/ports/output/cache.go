package ports

import (
	"context"
	"time"
)

// ProbabilityCache memoizes model outputs keyed by model version and feature vector.
// Get returns domain.ErrCacheMiss when the key is absent.
type ProbabilityCache interface {
	Get(ctx context.Context, key string) (float64, error)
	Set(ctx context.Context, key string, probability float64, ttl time.Duration) error
}
