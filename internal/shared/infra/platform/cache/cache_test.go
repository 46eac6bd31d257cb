package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "product:", time.Minute), mr
}

func TestCaches(t *testing.T) {
	mem := NewInMemoryCache(time.Minute, time.Minute)
	t.Cleanup(mem.Stop)
	rc, _ := newRedisCache(t)

	for name, c := range map[string]Cache{"memoria": mem, "redis": rc} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var got product

			hit, err := c.Get(ctx, "p1", &got)
			require.NoError(t, err)
			assert.False(t, hit)

			require.NoError(t, c.Set(ctx, "p1", product{ID: "p1", Price: 9.5}, 0))
			hit, err = c.Get(ctx, "p1", &got)
			require.NoError(t, err)
			assert.True(t, hit)
			assert.Equal(t, product{ID: "p1", Price: 9.5}, got)

			require.NoError(t, c.Delete(ctx, "p1"))
			hit, err = c.Get(ctx, "p1", &got)
			require.NoError(t, err)
			assert.False(t, hit)
		})
	}
}

func TestInMemoryCache_Expiration(t *testing.T) {
	c := NewInMemoryCache(time.Minute, time.Hour)
	t.Cleanup(c.Stop)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var v string
	hit, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisCache_UsesPrefixAndTTL(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, c.Set(context.Background(), "p9", product{ID: "p9"}, 0))

	assert.True(t, mr.Exists("product:p9"))
	assert.Equal(t, time.Minute, mr.TTL("product:p9"))
}
