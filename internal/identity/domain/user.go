package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	sharedBus "github.com/davicafu/latamtradex/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	}
	return false
}

// User representa una cuenta registrada. La contraseña solo se guarda como hash bcrypt.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser valida los datos y construye un usuario nuevo. Sin rol explícito es comprador.
func NewUser(email, name string, role Role, passwordHash string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidUser, email)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if role == "" {
		role = RoleBuyer
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidUser, role)
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("%w: password hash is required", ErrInvalidUser)
	}

	now = now.UTC()
	return &User{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail es la forma con la que se guardan y buscan los emails.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Verificación estática
var _ sharedBus.Keyer = (*User)(nil)
