package events

import (
	"context"
	"fmt"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"go.uber.org/zap"
)

const routerName = "catalog-command-router"

type CatalogUseCases interface {
	CreateProduct(ctx context.Context, cmd contracts.CreateProduct) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// CommandRouter es el único consumidor autorizado de catalog.commands.
type CommandRouter struct {
	service CatalogUseCases
	log     *zap.Logger
}

var _ contracts.CatalogHandler = (*CommandRouter)(nil)

func NewCommandRouter(service CatalogUseCases, log *zap.Logger) *CommandRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandRouter{service: service, log: log}
}

func (r *CommandRouter) Register(reg *sharedEvents.Registry) error {
	return reg.RegisterHandler(contracts.CatalogCommandsTopic, routerName, r.Handle)
}

func (r *CommandRouter) Handle(ctx context.Context, msg sharedEvents.Message) error {
	env, err := contracts.ParseEnvelope(msg.Value)
	if err != nil {
		r.log.Warn("⚠️ Comando ilegible", zap.Int64("offset", msg.Offset), zap.Error(err))
		return sharedEvents.Terminal(err)
	}

	r.log.Info("📥 Comando recibido", zap.String("command", env.Command), zap.String("key", msg.Key))

	cmd, err := contracts.DecodeCatalogCommand(env)
	if err != nil {
		r.log.Warn("⚠️ Datos de comando inválidos", zap.String("command", env.Command), zap.Error(err))
		return sharedEvents.Terminal(err)
	}
	return cmd.Dispatch(ctx, r)
}

func (r *CommandRouter) CreateProduct(ctx context.Context, cmd contracts.CreateProduct) error {
	if _, err := r.service.CreateProduct(ctx, cmd); err != nil {
		return r.fail(contracts.CreateProductCommand, err)
	}
	return nil
}

// GetProduct solo consulta y registra: no hay canal de respuesta.
func (r *CommandRouter) GetProduct(ctx context.Context, cmd contracts.GetProduct) error {
	p, err := r.service.GetProduct(ctx, cmd.ProductID)
	if err != nil {
		return r.fail(contracts.GetProductCommand, err)
	}
	r.log.Info("Product found", zap.String("product_id", p.ID), zap.String("sku", p.SKU), zap.Int("stock", p.Stock))
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
