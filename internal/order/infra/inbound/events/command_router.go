package events

import (
	"context"
	"fmt"

	"github.com/davicafu/latamtradex/internal/order/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"go.uber.org/zap"
)

const routerName = "order-command-router"

type OrderUseCases interface {
	CreateOrder(ctx context.Context, cmd contracts.CreateOrder) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, cmd contracts.UpdateOrderStatus) (*domain.Order, error)
}

// CommandRouter es el único consumidor autorizado de order.commands.
type CommandRouter struct {
	service OrderUseCases
	log     *zap.Logger
}

var _ contracts.OrderHandler = (*CommandRouter)(nil)

func NewCommandRouter(service OrderUseCases, log *zap.Logger) *CommandRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandRouter{service: service, log: log}
}

func (r *CommandRouter) Register(reg *sharedEvents.Registry) error {
	return reg.RegisterHandler(contracts.OrderCommandsTopic, routerName, r.Handle)
}

func (r *CommandRouter) Handle(ctx context.Context, msg sharedEvents.Message) error {
	env, err := contracts.ParseEnvelope(msg.Value)
	if err != nil {
		r.log.Warn("⚠️ Comando ilegible", zap.Int64("offset", msg.Offset), zap.Error(err))
		return sharedEvents.Terminal(err)
	}

	r.log.Info("📥 Comando recibido", zap.String("command", env.Command), zap.String("key", msg.Key))

	cmd, err := contracts.DecodeOrderCommand(env)
	if err != nil {
		r.log.Warn("⚠️ Datos de comando inválidos", zap.String("command", env.Command), zap.Error(err))
		return sharedEvents.Terminal(err)
	}
	return cmd.Dispatch(ctx, r)
}

func (r *CommandRouter) CreateOrder(ctx context.Context, cmd contracts.CreateOrder) error {
	if _, err := r.service.CreateOrder(ctx, cmd); err != nil {
		return r.fail(contracts.CreateOrderCommand, err)
	}
	return nil
}

func (r *CommandRouter) UpdateOrderStatus(ctx context.Context, cmd contracts.UpdateOrderStatus) error {
	if _, err := r.service.UpdateOrderStatus(ctx, cmd); err != nil {
		return r.fail(contracts.UpdateOrderStatusCommand, err)
	}
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
