package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const claimAttempts = 3

// RedisStore guarda la etapa como valor de la clave. La reclamación es un SETNX con el lease;
// Advance la reescribe con el TTL completo, pasado el cual ya no es posible una re-entrega.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	lease  time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, opts ...Option) *RedisStore {
	o := buildOptions(opts)
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, lease: o.lease}
}

func (s *RedisStore) Claim(ctx context.Context, key string) (Stage, error) {
	k := s.prefix + key
	for i := 0; i < claimAttempts; i++ {
		ok, err := s.client.SetNX(ctx, k, string(StageClaimed), s.lease).Result()
		if err != nil {
			return StageNone, err
		}
		if ok {
			return StageNone, nil
		}

		v, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// caducó entre SETNX y GET
			continue
		}
		if err != nil {
			return StageNone, err
		}
		return Stage(v), nil
	}
	return StageNone, fmt.Errorf("claim %s: key expired on every attempt", key)
}

func (s *RedisStore) Advance(ctx context.Context, key string, stage Stage) error {
	return s.client.Set(ctx, s.prefix+key, string(stage), s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
