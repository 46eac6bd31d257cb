package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/order/domain"
	"github.com/google/uuid"
)

// OrderRepoInMemory implementa OrderRepository con un mapa. Se usa en despliegue local.
type OrderRepoInMemory struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
}

var _ domain.OrderRepository = (*OrderRepoInMemory)(nil)

func NewOrderRepoInMemory() *OrderRepoInMemory {
	return &OrderRepoInMemory{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *OrderRepoInMemory) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already stored", o.ID)
	}
	r.orders[o.ID] = clone(o)
	return nil
}

func (r *OrderRepoInMemory) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (r *OrderRepoInMemory) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus, updatedAt time.Time) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if err := o.ChangeStatus(status, updatedAt); err != nil {
		return nil, err
	}
	return clone(o), nil
}

func clone(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.Item(nil), o.Items...)
	return &cp
}
