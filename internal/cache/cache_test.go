package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/weather-archive/internal/cache"
)

const sampleURL = "https://archive-api.open-meteo.com/v1/archive?latitude=52.52&longitude=13.405&start_date=2023-01-01&end_date=2023-01-03"

func newTestCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewCache(client), mr
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleURL, []byte(`{"latitude":52.5}`)))

	got, err := c.Get(ctx, sampleURL)
	require.NoError(t, err)
	assert.Equal(t, `{"latitude":52.5}`, string(got))
}

func TestCache_Get_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	got, err := c.Get(context.Background(), sampleURL)
	require.NoError(t, err)
	assert.Nil(t, got, "cache miss should return nil, nil")
}

func TestCache_KeysDifferPerURL(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleURL, []byte("a")))

	got, err := c.Get(ctx, sampleURL+"&timezone=auto")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCache_NeverExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, sampleURL, []byte("body")))

	mr.FastForward(24 * 365 * time.Hour)

	got, err := c.Get(ctx, sampleURL)
	require.NoError(t, err)
	assert.Equal(t, "body", string(got))

	for _, k := range mr.Keys() {
		assert.Zero(t, mr.TTL(k), "key %s should carry no TTL", k)
	}
}

func TestCache_Set_EmptyBody(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Set(context.Background(), sampleURL, nil))
	assert.Empty(t, mr.Keys())
}

func TestCache_Get_ServerDown(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), sampleURL)
	require.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestMemory_SetAndGet(t *testing.T) {
	m := cache.NewMemory()
	ctx := context.Background()

	got, err := m.Get(ctx, sampleURL)
	require.NoError(t, err)
	assert.Nil(t, got)

	body := []byte("payload")
	require.NoError(t, m.Set(ctx, sampleURL, body))
	body[0] = 'X'

	got, err = m.Get(ctx, sampleURL)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got), "stored body must not alias the caller's slice")
	assert.NoError(t, m.Ping(ctx))
}

func TestConnect_InvalidURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := cache.Connect(context.Background(), "redis://localhost:19999")
	require.Error(t, err)
}

func TestConnect_Miniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.Connect(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	_ = client.Close()
}
