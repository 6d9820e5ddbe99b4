package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"cipher-canvas/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c GalleryCache = Nop{}

	stored, err := c.SetGallery(ctx, 0, []byte("x"))
	require.NoError(t, err)
	assert.False(t, stored)
	data, ok, err := c.GetGallery(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, config.RedisConfig{Addr: addr, TTLSeconds: 5})
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.InvalidateGallery(ctx))
	_, ok, err := c.GetGallery(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	version, err := c.GalleryVersion(ctx)
	require.NoError(t, err)
	stored, err := c.SetGallery(ctx, version, []byte(`[{"id":"1"}]`))
	require.NoError(t, err)
	assert.True(t, stored)
	data, ok, err := c.GetGallery(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	require.NoError(t, c.InvalidateGallery(ctx))
	_, ok, err = c.GetGallery(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_UnreachableServerSurfacesErrors(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheWithClient(client, time.Second)
	defer c.Close()

	_, ok, err := c.GetGallery(ctx)
	assert.Error(t, err)
	assert.False(t, ok)
	_, err = c.GalleryVersion(ctx)
	assert.Error(t, err)
	_, err = c.SetGallery(ctx, 0, []byte("[]"))
	assert.Error(t, err)
	assert.Error(t, c.InvalidateGallery(ctx))

	_, err = NewRedisCache(ctx, config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestRedisCache_StaleVersionIsNotStored(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, config.RedisConfig{Addr: addr, TTLSeconds: 5})
	require.NoError(t, err)
	defer c.Close()

	before, err := c.GalleryVersion(ctx)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateGallery(ctx))

	after, err := c.GalleryVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	stored, err := c.SetGallery(ctx, before, []byte(`[]`))
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, err := c.GetGallery(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
