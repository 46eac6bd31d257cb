package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	sharedBus "github.com/davicafu/latamtradex/internal/shared/infra/platform/bus"
	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Item es una línea del pedido. Price es el precio unitario capturado al comprar.
type Item struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID          uuid.UUID   `json:"id"`
	UserID      string      `json:"userId"`
	Items       []Item      `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// NewOrder valida las líneas y calcula el total como la suma de price*quantity.
func NewOrder(userID string, items []Item, now time.Time) (*Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidOrder)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrInvalidOrder)
	}

	lines := make([]Item, 0, len(items))
	var total float64
	for i, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		switch {
		case it.ProductID == "":
			return nil, fmt.Errorf("%w: item %d: productId is required", ErrInvalidOrder, i)
		case it.Quantity < 1:
			return nil, fmt.Errorf("%w: item %d: quantity must be at least 1", ErrInvalidOrder, i)
		case it.Price < 0 || math.IsNaN(it.Price) || math.IsInf(it.Price, 0):
			return nil, fmt.Errorf("%w: item %d: invalid price", ErrInvalidOrder, i)
		}
		total += it.Price * float64(it.Quantity)
		lines = append(lines, it)
	}

	now = now.UTC()
	return &Order{
		ID:          uuid.New(),
		UserID:      userID,
		Items:       lines,
		TotalAmount: total,
		Status:      OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// --- Métodos de dominio ---

// ChangeStatus mueve el pedido a status. Cualquier estado válido es alcanzable.
func (o *Order) ChangeStatus(status OrderStatus, now time.Time) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	o.Status = status
	o.UpdatedAt = now.UTC()
	return nil
}

func (o *Order) PartitionKey() string {
	return o.ID.String()
}

// Verificación estática
var _ sharedBus.Keyer = (*Order)(nil)
