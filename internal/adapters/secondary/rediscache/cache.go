package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
	ports "dropout-risk-service/internal/core/ports/output"
)

type probabilityCache struct {
	client *redis.Client
}

// NewClient connects to Redis and pings it.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewProbabilityCache(client *redis.Client) ports.ProbabilityCache {
	return &probabilityCache{client: client}
}

func (c *probabilityCache) Get(ctx context.Context, key string) (float64, error) {
	val, err := c.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrCacheMiss
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (c *probabilityCache) Set(ctx context.Context, key string, probability float64, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, probability, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
