package domain

import (
	"context"
	"errors"
)

// ---------- Errores de dominio ----------
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInsufficientStock    = errors.New("insufficient stock")
)

func IsDomainError(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductAlreadyExists) ||
		errors.Is(err, ErrInvalidProduct) ||
		errors.Is(err, ErrInsufficientStock)
}

// ---------- Interfaces (Ports) ----------

type ProductRepository interface {
	// Debe devolver ErrProductAlreadyExists si el SKU ya existe.
	Create(ctx context.Context, p *Product) error

	// Debe devolver ErrProductNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Product, error)

	// DecrementStock resta quantity solo si stock >= quantity, de forma atómica, y devuelve el
	// producto actualizado. ErrProductNotFound o ErrInsufficientStock si no se aplica.
	DecrementStock(ctx context.Context, id string, quantity int) (*Product, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}
