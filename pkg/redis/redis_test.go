package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/aegis-valuation/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: false}}

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	limit := APIRateLimit("127.0.0.1", 5, time.Second)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 5, remaining)
	assert.Equal(t, "api:127.0.0.1", limit.Key)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
	assert.False(t, cache.Enabled())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "snapshot:TCS:2024-03-31", SnapshotKey("TCS", "2024-03-31"))
	assert.Equal(t, "report:TCS:2024-03-31:abc", ReportKey("TCS", "2024-03-31", "abc"))
	assert.Equal(t, "aegis:cache:snapshot:TCS:latest", NewCache(Disabled(), "aegis").fullKey(SnapshotKey("TCS", "latest")))
}

func TestCache_RoundTrip(t *testing.T) {
	if os.Getenv("REDIS_URL") == "" && os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("redis not configured, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Redis.Enabled = true

	ctx := context.Background()
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	cache := NewCache(client, "aegis-test")
	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var out map[string]int
	found, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, out["a"])

	require.NoError(t, cache.Delete(ctx, "k"))
	found, err = cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
