package mocks

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
	sharedCache "github.com/davicafu/latamtradex/internal/shared/infra/platform/cache"
)

// DummyCache es un mock de caché en memoria, genérico y seguro para concurrencia.
// Guarda bytes serializados igual que Redis.
type DummyCache struct {
	store map[string][]byte
	mu    sync.RWMutex
	// Down simula una caché caída: todas las operaciones fallan.
	Down bool
}

// Verificación estática para asegurar que implementa la interfaz compartida.
var _ sharedCache.Cache = (*DummyCache)(nil)

var ErrCacheDown = errors.New("cache unavailable")

func NewDummyCache() *DummyCache {
	return &DummyCache{store: make(map[string][]byte)}
}

func (c *DummyCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.Down {
		return false, ErrCacheDown
	}

	data, ok := c.store[key]
	if !ok {
		return false, nil // Cache miss
	}
	if err := codec.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DummyCache) Set(_ context.Context, key string, val interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return ErrCacheDown
	}

	data, err := codec.Marshal(val)
	if err != nil {
		return err
	}
	c.store[key] = data
	return nil
}

func (c *DummyCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Down {
		return ErrCacheDown
	}
	delete(c.store, key)
	return nil
}

// Has indica si key está en la caché.
func (c *DummyCache) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.store[key]
	return ok
}
