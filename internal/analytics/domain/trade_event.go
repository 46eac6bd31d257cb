package domain

import (
	"context"
	"time"
)

// Tipos de registro del log de comercio. Coinciden con el topic de origen.
const (
	KindOrderCreated = "order.created"
	KindOrderUpdated = "order.updated"
	KindStockUpdated = "stock.updated"
)

// TradeEvent es una fila del log analítico: un hecho de negocio aplanado.
// EntityID es el orderId o el productId según Kind.
type TradeEvent struct {
	EventID    string
	Kind       string
	Source     string
	EntityID   string
	UserID     string
	Status     string
	Operation  string
	Quantity   int
	Amount     float64
	Lines      int
	OccurredAt time.Time
}

// DailySales agrega un día del log.
type DailySales struct {
	Day           time.Time
	Orders        int64
	Revenue       float64
	UnitsReserved int64
}

// TradeLogRepository es el almacén analítico. LogBatch debe escribir el lote completo o nada.
type TradeLogRepository interface {
	LogBatch(ctx context.Context, events []TradeEvent) error
	DailySales(ctx context.Context, start, end time.Time) ([]DailySales, error)
}
