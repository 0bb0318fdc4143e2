package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
)

func TestProbabilityCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cache := NewProbabilityCache(client)
	ctx := context.Background()

	_, err = cache.Get(ctx, "dropout:prob:v1:abc")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	require.NoError(t, cache.Set(ctx, "dropout:prob:v1:abc", 0.734, time.Minute))
	p, err := cache.Get(ctx, "dropout:prob:v1:abc")
	require.NoError(t, err)
	assert.Equal(t, 0.734, p)

	s.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "dropout:prob:v1:abc")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestProbabilityCache_ServerDown(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	s.Close()

	_, err = NewProbabilityCache(client).Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}

func TestNewClient(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client, err := NewClient(context.Background(), &config.RedisConfig{Addr: s.Addr()})
	require.NoError(t, err)
	defer client.Close()

	_, err = NewClient(context.Background(), &config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
