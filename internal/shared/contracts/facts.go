package contracts

import "time"

// UserRegistered se publica en user.registered con clave userId.
type UserRegistered struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e UserRegistered) PartitionKey() string { return e.UserID }

// OrderItem es una línea de pedido tal y como viaja en los hechos y comandos.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderCreated se publica en order.created con clave orderId.
type OrderCreated struct {
	OrderID     string      `json:"orderId"`
	UserID      string      `json:"userId"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"totalAmount"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (e OrderCreated) PartitionKey() string { return e.OrderID }

// OrderUpdated se publica en order.updated con clave orderId.
type OrderUpdated struct {
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (e OrderUpdated) PartitionKey() string { return e.OrderID }

// StockOperation indica el sentido de un movimiento de stock.
type StockOperation string

const (
	StockIncrease StockOperation = "increase"
	StockDecrease StockOperation = "decrease"
)

// StockUpdated se publica en stock.updated con clave productId.
// Quantity es la cantidad movida, no el stock resultante.
type StockUpdated struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Operation StockOperation `json:"operation"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (e StockUpdated) PartitionKey() string { return e.ProductID }
