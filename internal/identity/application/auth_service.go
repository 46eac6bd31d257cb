package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davicafu/latamtradex/internal/identity/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"go.uber.org/zap"
)

// AuthService define los casos de uso de identidad.
type AuthService struct {
	repo   domain.UserRepository
	hasher domain.PasswordHasher
	events domain.EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(repo domain.UserRepository, hasher domain.PasswordHasher, events domain.EventPublisher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{repo: repo, hasher: hasher, events: events, log: log, now: time.Now}
}

// RegisterUser crea la cuenta y publica user.registered con clave userId.
// Si la publicación falla el usuario ya quedó guardado y se devuelve el error.
func (s *AuthService) RegisterUser(ctx context.Context, cmd contracts.RegisterUser) (*domain.User, error) {
	email := domain.NormalizeEmail(cmd.Email)

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		s.log.Warn("⚠️ Usuario ya existe", zap.String("email", email))
		return nil, fmt.Errorf("%w: %s", domain.ErrUserAlreadyExists, email)
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := domain.NewUser(email, cmd.Name, domain.Role(cmd.Role), hash, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("✅ Usuario registrado", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))

	evt := contracts.UserRegistered{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := s.events.Publish(ctx, contracts.UserRegisteredTopic, evt.UserID, evt); err != nil {
		return user, fmt.Errorf("publish %s: %w", contracts.UserRegisteredTopic, err)
	}
	return user, nil
}

// LoginUser verifica las credenciales. No emite token ni respuesta: solo registra el resultado.
func (s *AuthService) LoginUser(ctx context.Context, cmd contracts.LoginUser) (*domain.User, error) {
	email := domain.NormalizeEmail(cmd.Email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Warn("⚠️ Login de usuario inexistente", zap.String("email", email))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, cmd.Password); err != nil {
		s.log.Warn("⚠️ Contraseña incorrecta", zap.String("email", email))
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Info("🔓 Login correcto", zap.String("user_id", user.ID.String()), zap.String("email", email))
	return user, nil
}
