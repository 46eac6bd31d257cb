package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memoria": NewInMemoryStore(time.Hour),
		"redis":   NewRedisStore(client, "stock:", time.Hour),
	}
}

func TestStore_ClaimAndRelease(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			stage, err := s.Claim(ctx, "order-1:product-1")
			require.NoError(t, err)
			assert.Equal(t, StageNone, stage)

			stage, err = s.Claim(ctx, "order-1:product-1")
			require.NoError(t, err)
			assert.Equal(t, StageClaimed, stage, "la segunda reclamación ve la primera")

			stage, err = s.Claim(ctx, "order-1:product-2")
			require.NoError(t, err)
			assert.Equal(t, StageNone, stage)

			require.NoError(t, s.Release(ctx, "order-1:product-1"))
			stage, err = s.Claim(ctx, "order-1:product-1")
			require.NoError(t, err)
			assert.Equal(t, StageNone, stage)
		})
	}
}

func TestStore_AdvanceKeepsTheStage(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Claim(ctx, "k")
			require.NoError(t, err)

			require.NoError(t, s.Advance(ctx, "k", StageApplied))
			stage, err := s.Claim(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, StageApplied, stage)

			require.NoError(t, s.Advance(ctx, "k", StagePublished))
			stage, err = s.Claim(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, StagePublished, stage)
		})
	}
}

func TestStore_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			var mu sync.Mutex
			winners := 0

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					stage, err := s.Claim(context.Background(), "k")
					if err == nil && stage == StageNone {
						mu.Lock()
						winners++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, winners)
		})
	}
}

func TestInMemoryStore_LeaseAndTTL(t *testing.T) {
	s := NewInMemoryStore(time.Hour, WithLease(time.Minute))
	now := time.Now()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	stage, _ := s.Claim(ctx, "abandonada")
	require.Equal(t, StageNone, stage)
	stage, _ = s.Claim(ctx, "aplicada")
	require.Equal(t, StageNone, stage)
	require.NoError(t, s.Advance(ctx, "aplicada", StageApplied))

	// pasado el lease solo caduca la reclamación que no avanzó
	now = now.Add(2 * time.Minute)
	stage, _ = s.Claim(ctx, "abandonada")
	assert.Equal(t, StageNone, stage)
	stage, _ = s.Claim(ctx, "aplicada")
	assert.Equal(t, StageApplied, stage)

	now = now.Add(2 * time.Hour)
	stage, _ = s.Claim(ctx, "aplicada")
	assert.Equal(t, StageNone, stage)
}

func TestRedisStore_LeaseAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, "stock:", time.Hour, WithLease(time.Minute))
	ctx := context.Background()

	_, err := s.Claim(ctx, "abandonada")
	require.NoError(t, err)
	_, err = s.Claim(ctx, "aplicada")
	require.NoError(t, err)
	require.NoError(t, s.Advance(ctx, "aplicada", StageApplied))

	assert.Equal(t, time.Minute, mr.TTL("stock:abandonada"))
	assert.Equal(t, time.Hour, mr.TTL("stock:aplicada"))

	mr.FastForward(2 * time.Minute)
	stage, err := s.Claim(ctx, "abandonada")
	require.NoError(t, err)
	assert.Equal(t, StageNone, stage)
	stage, err = s.Claim(ctx, "aplicada")
	require.NoError(t, err)
	assert.Equal(t, StageApplied, stage)
}
