package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
)

// TradeLogRepo guarda el log en memoria, deduplicado por EventID. Para despliegue local.
type TradeLogRepo struct {
	mu     sync.RWMutex
	events map[string]domain.TradeEvent
}

var _ domain.TradeLogRepository = (*TradeLogRepo)(nil)

func NewTradeLogRepo() *TradeLogRepo {
	return &TradeLogRepo{events: make(map[string]domain.TradeEvent)}
}

func (r *TradeLogRepo) LogBatch(_ context.Context, events []domain.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events[e.EventID] = e
	}
	return nil
}

func (r *TradeLogRepo) DailySales(_ context.Context, start, end time.Time) ([]domain.DailySales, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byDay := make(map[time.Time]*domain.DailySales)
	for _, e := range r.events {
		at := e.OccurredAt.UTC()
		if at.Before(start) || at.After(end) {
			continue
		}
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		d, ok := byDay[day]
		if !ok {
			d = &domain.DailySales{Day: day}
			byDay[day] = d
		}
		switch {
		case e.Kind == domain.KindOrderCreated:
			d.Orders++
			d.Revenue += e.Amount
		case e.Kind == domain.KindStockUpdated && e.Operation == "decrease":
			d.UnitsReserved += int64(e.Quantity)
		}
	}

	out := make([]domain.DailySales, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

// Len devuelve cuántos eventos distintos hay guardados.
func (r *TradeLogRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}
