package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidOrder  = errors.New("invalid order")
	ErrInvalidStatus = errors.New("invalid order status")
)

func IsDomainError(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrInvalidOrder) ||
		errors.Is(err, ErrInvalidStatus)
}

// ---------- Interfaces (Ports) ----------

type OrderRepository interface {
	// Create guarda el pedido y sus líneas de forma atómica.
	Create(ctx context.Context, o *Order) error

	// Debe devolver ErrOrderNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// UpdateStatus devuelve el pedido actualizado o ErrOrderNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, status OrderStatus, updatedAt time.Time) (*Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}
