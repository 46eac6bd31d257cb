package events

import (
	"context"
	"fmt"
	"time"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"go.uber.org/zap"
)

const reactorName = "analytics-trade-log"

type TradeLog interface {
	Add(ctx context.Context, evt domain.TradeEvent) error
}

// TradeLogReactor aplana los hechos de pedidos y stock en el log analítico.
type TradeLogReactor struct {
	trades TradeLog
	log    *zap.Logger
}

func NewTradeLogReactor(tradeLog TradeLog, log *zap.Logger) *TradeLogReactor {
	if log == nil {
		log = zap.NewNop()
	}
	return &TradeLogReactor{trades: tradeLog, log: log}
}

func (r *TradeLogReactor) Register(reg *sharedEvents.Registry) error {
	if err := reg.RegisterHandler(contracts.OrderCreatedTopic, reactorName, sharedEvents.HandleFact(r.OnOrderCreated)); err != nil {
		return err
	}
	if err := reg.RegisterHandler(contracts.OrderUpdatedTopic, reactorName, sharedEvents.HandleFact(r.OnOrderUpdated)); err != nil {
		return err
	}
	return reg.RegisterHandler(contracts.StockUpdatedTopic, reactorName, sharedEvents.HandleFact(r.OnStockUpdated))
}

func (r *TradeLogReactor) OnOrderCreated(ctx context.Context, fact sharedEvents.Fact[contracts.OrderCreated]) error {
	o := fact.Data
	units := 0
	for _, it := range o.Items {
		units += it.Quantity
	}
	return r.add(ctx, domain.TradeEvent{
		EventID:    eventID(fact.EventID, domain.KindOrderCreated, o.OrderID, fact.Timestamp),
		Kind:       domain.KindOrderCreated,
		Source:     fact.Source,
		EntityID:   o.OrderID,
		UserID:     o.UserID,
		Status:     o.Status,
		Quantity:   units,
		Amount:     o.TotalAmount,
		Lines:      len(o.Items),
		OccurredAt: occurredAt(o.CreatedAt, fact.Timestamp),
	})
}

func (r *TradeLogReactor) OnOrderUpdated(ctx context.Context, fact sharedEvents.Fact[contracts.OrderUpdated]) error {
	o := fact.Data
	return r.add(ctx, domain.TradeEvent{
		EventID:    eventID(fact.EventID, domain.KindOrderUpdated, o.OrderID, fact.Timestamp),
		Kind:       domain.KindOrderUpdated,
		Source:     fact.Source,
		EntityID:   o.OrderID,
		Status:     o.Status,
		OccurredAt: occurredAt(o.UpdatedAt, fact.Timestamp),
	})
}

func (r *TradeLogReactor) OnStockUpdated(ctx context.Context, fact sharedEvents.Fact[contracts.StockUpdated]) error {
	s := fact.Data
	return r.add(ctx, domain.TradeEvent{
		EventID:    eventID(fact.EventID, domain.KindStockUpdated, s.ProductID, fact.Timestamp),
		Kind:       domain.KindStockUpdated,
		Source:     fact.Source,
		EntityID:   s.ProductID,
		Operation:  string(s.Operation),
		Quantity:   s.Quantity,
		OccurredAt: occurredAt(s.UpdatedAt, fact.Timestamp),
	})
}

// add no propaga fallos de escritura: el evento queda en el lote pendiente.
func (r *TradeLogReactor) add(ctx context.Context, evt domain.TradeEvent) error {
	if err := r.trades.Add(ctx, evt); err != nil {
		r.log.Warn("⚠️ Lote analítico pendiente de escritura", zap.String("kind", evt.Kind), zap.Error(err))
	}
	return nil
}

// eventID usa la cabecera event-id; sin ella se deriva una clave estable del contenido.
func eventID(id, kind, entity string, at time.Time) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s:%s:%d", kind, entity, at.UnixNano())
}

// occurredAt prefiere la hora de negocio del hecho y cae a la de publicación.
func occurredAt(at, published time.Time) time.Time {
	if at.IsZero() {
		return published.UTC()
	}
	return at.UTC()
}
