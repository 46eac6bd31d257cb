package mocks

import (
	"context"
	"fmt"
	"sync"

	identityDomain "github.com/davicafu/latamtradex/internal/identity/domain"
	"github.com/google/uuid"
)

// InMemoryUserRepo simula UserRepository con índice único por email.
type InMemoryUserRepo struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*identityDomain.User
	// Err, si no es nil, lo devuelven todas las operaciones.
	Err error
}

var _ identityDomain.UserRepository = (*InMemoryUserRepo)(nil)

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{Users: make(map[uuid.UUID]*identityDomain.User)}
}

func (r *InMemoryUserRepo) Create(_ context.Context, u *identityDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	for _, existing := range r.Users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: %s", identityDomain.ErrUserAlreadyExists, u.Email)
		}
	}
	cp := *u
	r.Users[u.ID] = &cp
	return nil
}

func (r *InMemoryUserRepo) GetByID(_ context.Context, id uuid.UUID) (*identityDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.Users[id]
	if !ok {
		return nil, identityDomain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *InMemoryUserRepo) GetByEmail(_ context.Context, email string) (*identityDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	for _, u := range r.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, identityDomain.ErrUserNotFound
}

// PlainHasher "hashea" con un prefijo para que los tests no paguen bcrypt.
type PlainHasher struct{}

func (PlainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}
