package idempotency

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	stage   Stage
	expires time.Time // cero: no caduca
}

// InMemoryStore es la versión local de RedisStore. Las claves caducadas se ignoran al reclamar.
type InMemoryStore struct {
	mu     sync.Mutex
	claims map[string]entry
	ttl    time.Duration
	lease  time.Duration
	now    func() time.Time
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore(ttl time.Duration, opts ...Option) *InMemoryStore {
	o := buildOptions(opts)
	return &InMemoryStore{claims: make(map[string]entry), ttl: ttl, lease: o.lease, now: time.Now}
}

func (s *InMemoryStore) Claim(_ context.Context, key string) (Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.claims[key]; ok && (e.expires.IsZero() || now.Before(e.expires)) {
		return e.stage, nil
	}
	s.claims[key] = entry{stage: StageClaimed, expires: now.Add(s.lease)}
	return StageNone, nil
}

func (s *InMemoryStore) Advance(_ context.Context, key string, stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{stage: stage}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	s.claims[key] = e
	return nil
}

func (s *InMemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}
