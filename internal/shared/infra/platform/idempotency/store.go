// Package idempotency registra hasta dónde llegó un efecto para que una re-entrega del mismo
// mensaje no lo repita y termine lo que faltó.
package idempotency

import (
	"context"
	"time"
)

// Stage es el progreso de una clave.
type Stage string

const (
	// StageNone: la clave no existía y el llamante acaba de reclamarla.
	StageNone Stage = ""
	// StageClaimed: reclamada por un intento que aún no aplicó el efecto.
	StageClaimed Stage = "claimed"
	// StageApplied: efecto aplicado, falta publicar el hecho.
	StageApplied Stage = "applied"
	// StagePublished: terminado.
	StagePublished Stage = "published"
)

// DefaultLease es lo que vive una reclamación que no llega a StageApplied. Al caducar, la
// siguiente entrega vuelve a intentar el efecto.
const DefaultLease = 30 * time.Second

// Store reclama claves de forma atómica y guarda su etapa.
type Store interface {
	// Claim reclama key durante el lease si no existe y devuelve StageNone. Si existe
	// devuelve su etapa sin modificarla.
	Claim(ctx context.Context, key string) (Stage, error)
	// Advance guarda la etapa de key con el TTL completo.
	Advance(ctx context.Context, key string, stage Stage) error
	// Release borra key para que el efecto pueda volver a intentarse.
	Release(ctx context.Context, key string) error
}

type options struct {
	lease time.Duration
}

type Option func(*options)

// WithLease cambia DefaultLease.
func WithLease(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.lease = d
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{lease: DefaultLease}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
