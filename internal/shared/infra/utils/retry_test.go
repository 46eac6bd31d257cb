package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastPolicy = RetryPolicy{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, Multiplier: 2, MaxRetries: 3}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var waits []time.Duration

	err := Retry(context.Background(), fastPolicy, func() error {
		calls++
		if calls < 3 {
			return errors.New("broker no disponible")
		}
		return nil
	}, func(err error, wait time.Duration) {
		waits = append(waits, wait)
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, waits, 2)
	// sin jitter el backoff crece de forma exponencial
	assert.Equal(t, time.Millisecond, waits[0])
	assert.Equal(t, 2*time.Millisecond, waits[1])
}

func TestRetry_StopsAfterMaxRetries(t *testing.T) {
	calls := 0
	boom := errors.New("boom")

	err := Retry(context.Background(), fastPolicy, func() error {
		calls++
		return boom
	}, nil)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls) // intento inicial + 3 reintentos
}

func TestRetry_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	invalid := errors.New("configuración inválida")

	err := Retry(context.Background(), fastPolicy, func() error {
		calls++
		return Permanent(invalid)
	}, nil)

	assert.ErrorIs(t, err, invalid)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, RetryPolicy{InitialInterval: time.Second, MaxRetries: 5}, func() error {
		return errors.New("sigue fallando")
	}, nil)

	assert.Error(t, err)
}
