package application

import (
	"context"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
	"go.uber.org/zap"
)

// Batcher agrupa TradeEvents y los escribe en lotes: al llegar a size o cada interval.
// Si una escritura falla el lote se conserva y se reintenta en el siguiente flush; por
// encima de maxPending se descartan los más antiguos.
type Batcher struct {
	repo       domain.TradeLogRepository
	size       int
	interval   time.Duration
	maxPending int
	log        *zap.Logger

	mu      sync.Mutex
	pending []domain.TradeEvent
}

func NewBatcher(repo domain.TradeLogRepository, size int, interval time.Duration, log *zap.Logger) *Batcher {
	if size <= 0 {
		size = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Batcher{
		repo:       repo,
		size:       size,
		interval:   interval,
		maxPending: size * 10,
		log:        log,
	}
}

// Add encola evt y escribe el lote si se alcanzó el tamaño. El error es el de esa escritura;
// los eventos siguen encolados.
func (b *Batcher) Add(ctx context.Context, evt domain.TradeEvent) error {
	b.mu.Lock()
	b.pending = append(b.pending, evt)
	if over := len(b.pending) - b.maxPending; over > 0 {
		b.log.Warn("⚠️ Demasiados eventos pendientes, se descartan los más antiguos", zap.Int("dropped", over))
		b.pending = append([]domain.TradeEvent(nil), b.pending[over:]...)
	}
	full := len(b.pending) >= b.size
	b.mu.Unlock()

	if full {
		return b.Flush(ctx)
	}
	return nil
}

// Flush escribe todo lo pendiente.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}
	batch := b.pending
	if err := b.repo.LogBatch(ctx, batch); err != nil {
		b.log.Error("❌ Error escribiendo lote analítico", zap.Int("events", len(batch)), zap.Error(err))
		return err
	}
	b.log.Debug("Lote analítico escrito", zap.Int("events", len(batch)))
	b.pending = nil
	return nil
}

// Pending devuelve cuántos eventos esperan escritura.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Run hace flush cada interval hasta que ctx se cancele, y un último flush al salir.
func (b *Batcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := b.Flush(context.WithoutCancel(ctx)); err != nil {
				b.log.Warn("⚠️ Último flush fallido", zap.Int("lost", b.Pending()), zap.Error(err))
			}
			return nil
		case <-ticker.C:
			_ = b.Flush(ctx)
		}
	}
}

// DailySales delega en el almacén.
func (b *Batcher) DailySales(ctx context.Context, start, end time.Time) ([]domain.DailySales, error) {
	return b.repo.DailySales(ctx, start, end)
}
