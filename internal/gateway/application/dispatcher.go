package application

import (
	"context"
	"fmt"

	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedBus "github.com/davicafu/latamtradex/internal/shared/infra/platform/bus"
	"go.uber.org/zap"
)

// Command es cualquier comando de los conjuntos cerrados de contracts.
type Command interface {
	CommandName() string
}

// Dispatcher traduce una petición en un comando publicado. No espera resultado: el
// servicio propietario lo procesa de forma asíncrona.
type Dispatcher struct {
	events sharedBus.EventPublisher
	log    *zap.Logger
}

func NewDispatcher(events sharedBus.EventPublisher, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{events: events, log: log}
}

// Dispatch publica cmd en topic con la clave dada.
func (d *Dispatcher) Dispatch(ctx context.Context, topic, key string, cmd Command) error {
	env, err := contracts.NewCommand(cmd.CommandName(), cmd)
	if err != nil {
		return err
	}
	if err := d.events.Publish(ctx, topic, key, env); err != nil {
		d.log.Error("❌ No se pudo publicar el comando",
			zap.String("topic", topic), zap.String("command", env.Command), zap.Error(err))
		return fmt.Errorf("dispatch %s: %w", env.Command, err)
	}
	d.log.Info("📤 Comando publicado", zap.String("topic", topic), zap.String("command", env.Command), zap.String("key", key))
	return nil
}
