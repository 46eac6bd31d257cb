package events

import (
	"context"

	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"go.uber.org/zap"
)

const stockReactorName = "catalog-stock-reactor"

type StockUseCases interface {
	DecreaseStockForOrder(ctx context.Context, orderID string, items []contracts.OrderItem) error
}

// StockReactor descuenta stock al ver order.created.
type StockReactor struct {
	service StockUseCases
	log     *zap.Logger
}

func NewStockReactor(service StockUseCases, log *zap.Logger) *StockReactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &StockReactor{service: service, log: log}
}

func (r *StockReactor) Register(reg *sharedEvents.Registry) error {
	return reg.RegisterHandler(contracts.OrderCreatedTopic, stockReactorName, sharedEvents.HandleFact(r.OnOrderCreated))
}

func (r *StockReactor) OnOrderCreated(ctx context.Context, fact sharedEvents.Fact[contracts.OrderCreated]) error {
	order := fact.Data
	r.log.Info("📨 Received order.created", zap.String("order_id", order.OrderID), zap.String("source", fact.Source))

	if err := r.service.DecreaseStockForOrder(ctx, order.OrderID, order.Items); err != nil {
		r.log.Error("❌ Error updating stock", zap.String("order_id", order.OrderID), zap.Error(err))
		return err
	}
	return nil
}
