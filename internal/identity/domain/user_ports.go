package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ---------- Errores de dominio ----------
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidUser        = errors.New("invalid user")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IsDomainError indica si err es una regla de negocio incumplida (no un fallo de infraestructura).
func IsDomainError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrUserAlreadyExists) ||
		errors.Is(err, ErrInvalidUser) ||
		errors.Is(err, ErrInvalidCredentials)
}

// ---------- Interfaces (Ports) ----------

// UserRepository define las operaciones persistentes para User.
type UserRepository interface {
	// Debe devolver ErrUserAlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u *User) error

	// Debe devolver ErrUserNotFound si no existe.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// Debe devolver ErrUserNotFound si no existe. email ya viene normalizado.
	GetByEmail(ctx context.Context, email string) (*User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare devuelve error si password no corresponde a hash.
	Compare(hash, password string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}
