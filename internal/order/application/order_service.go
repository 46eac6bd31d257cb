package application

import (
	"context"
	"fmt"
	"time"

	"github.com/davicafu/latamtradex/internal/order/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService define los casos de uso de pedidos.
type OrderService struct {
	repo   domain.OrderRepository
	events domain.EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

func NewOrderService(repo domain.OrderRepository, events domain.EventPublisher, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{repo: repo, events: events, log: log, now: time.Now}
}

// CreateOrder guarda el pedido en estado pending y publica order.created con clave orderId.
// Si la publicación falla el pedido ya quedó guardado y se devuelve junto al error.
func (s *OrderService) CreateOrder(ctx context.Context, cmd contracts.CreateOrder) (*domain.Order, error) {
	items := make([]domain.Item, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		items = append(items, domain.Item{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}

	order, err := domain.NewOrder(cmd.UserID, items, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}
	s.log.Info("✅ Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", order.UserID),
		zap.Float64("total", order.TotalAmount))

	evt := orderCreatedEvent(order)
	if err := s.events.Publish(ctx, contracts.OrderCreatedTopic, evt.OrderID, evt); err != nil {
		return order, fmt.Errorf("publish %s: %w", contracts.OrderCreatedTopic, err)
	}
	s.log.Info("📤 Published order.created", zap.String("order_id", evt.OrderID))
	return order, nil
}

// UpdateOrderStatus cambia el estado y publica order.updated.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, cmd contracts.UpdateOrderStatus) (*domain.Order, error) {
	id, err := uuid.Parse(cmd.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, cmd.OrderID)
	}
	status := domain.OrderStatus(cmd.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, cmd.Status)
	}

	order, err := s.repo.UpdateStatus(ctx, id, status, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info("Order status updated", zap.String("order_id", order.ID.String()), zap.String("status", string(order.Status)))

	evt := contracts.OrderUpdated{
		OrderID:   order.ID.String(),
		Status:    string(order.Status),
		UpdatedAt: order.UpdatedAt,
	}
	if err := s.events.Publish(ctx, contracts.OrderUpdatedTopic, evt.OrderID, evt); err != nil {
		return order, fmt.Errorf("publish %s: %w", contracts.OrderUpdatedTopic, err)
	}
	return order, nil
}

func orderCreatedEvent(o *domain.Order) contracts.OrderCreated {
	items := make([]contracts.OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, contracts.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	return contracts.OrderCreated{
		OrderID:     o.ID.String(),
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
	}
}
