package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy describe un backoff exponencial acotado por número de reintentos.
type RetryPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxRetries      int
	// Jitter es el factor de aleatorización (0 = sin jitter, 0.2 = ±20%).
	Jitter float64
}

// Retry ejecuta fn hasta que devuelva nil, se agoten los reintentos o se cancele ctx.
// onRetry (opcional) se llama antes de cada espera con el error y la pausa calculada.
// Devuelve el último error de fn, o el error del contexto.
func Retry(ctx context.Context, policy RetryPolicy, fn func() error, onRetry func(err error, wait time.Duration)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = policy.InitialInterval
	if policy.MaxInterval > 0 {
		b.MaxInterval = policy.MaxInterval
	}
	if policy.Multiplier > 0 {
		b.Multiplier = policy.Multiplier
	}
	b.RandomizationFactor = policy.Jitter
	b.MaxElapsedTime = 0 // el límite lo pone MaxRetries
	b.Reset()

	var bo backoff.BackOff = b
	if policy.MaxRetries >= 0 {
		bo = backoff.WithMaxRetries(bo, uint64(policy.MaxRetries))
	}
	bo = backoff.WithContext(bo, ctx)

	var notify backoff.Notify
	if onRetry != nil {
		notify = func(err error, wait time.Duration) { onRetry(err, wait) }
	}
	return backoff.RetryNotify(fn, bo, notify)
}

// Permanent marca err como no reintentable: Retry lo devuelve inmediatamente.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
