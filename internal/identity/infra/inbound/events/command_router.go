package events

import (
	"context"
	"fmt"

	"github.com/davicafu/latamtradex/internal/identity/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"go.uber.org/zap"
)

const routerName = "identity-command-router"

// AuthUseCases es lo que el router necesita de la capa de aplicación.
type AuthUseCases interface {
	RegisterUser(ctx context.Context, cmd contracts.RegisterUser) (*domain.User, error)
	LoginUser(ctx context.Context, cmd contracts.LoginUser) (*domain.User, error)
}

// CommandRouter es el único consumidor autorizado de auth.commands.
type CommandRouter struct {
	service AuthUseCases
	log     *zap.Logger
}

var _ contracts.AuthHandler = (*CommandRouter)(nil)

func NewCommandRouter(service AuthUseCases, log *zap.Logger) *CommandRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandRouter{service: service, log: log}
}

// Register engancha el router a auth.commands.
func (r *CommandRouter) Register(reg *sharedEvents.Registry) error {
	return reg.RegisterHandler(contracts.AuthCommandsTopic, routerName, r.Handle)
}

// Handle decodifica el sobre y despacha a la variante. Los errores de dominio, de
// decodificación y los comandos desconocidos salen como fallos terminales.
func (r *CommandRouter) Handle(ctx context.Context, msg sharedEvents.Message) error {
	env, err := contracts.ParseEnvelope(msg.Value)
	if err != nil {
		r.log.Warn("⚠️ Comando ilegible", zap.Int64("offset", msg.Offset), zap.Error(err))
		return sharedEvents.Terminal(err)
	}

	r.log.Info("📥 Comando recibido", zap.String("command", env.Command), zap.String("key", msg.Key))

	cmd, err := contracts.DecodeAuthCommand(env)
	if err != nil {
		r.log.Warn("⚠️ Datos de comando inválidos", zap.String("command", env.Command), zap.Error(err))
		return sharedEvents.Terminal(err)
	}
	return cmd.Dispatch(ctx, r)
}

func (r *CommandRouter) RegisterUser(ctx context.Context, cmd contracts.RegisterUser) error {
	if _, err := r.service.RegisterUser(ctx, cmd); err != nil {
		return r.fail(contracts.RegisterUserCommand, err)
	}
	return nil
}

func (r *CommandRouter) LoginUser(ctx context.Context, cmd contracts.LoginUser) error {
	if _, err := r.service.LoginUser(ctx, cmd); err != nil {
		return r.fail(contracts.LoginUserCommand, err)
	}
	r.log.Info("Login successful", zap.String("email", cmd.Email))
	return nil
}

func (r *CommandRouter) Unknown(_ context.Context, cmd contracts.UnknownCommand) error {
	r.log.Warn("⚠️ Comando desconocido", zap.String("command", cmd.Name), zap.String("topic", cmd.Topic))
	return sharedEvents.Terminal(fmt.Errorf("%w: %s", contracts.ErrUnknownCommand, cmd.Name))
}

func (r *CommandRouter) fail(command string, err error) error {
	r.log.Error("❌ Error procesando comando", zap.String("command", command), zap.Error(err))
	if domain.IsDomainError(err) {
		return sharedEvents.Terminal(err)
	}
	return err
}
