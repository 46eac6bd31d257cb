package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	mu      sync.Mutex
	batches [][]domain.TradeEvent
	err     error
}

func (r *fakeRepo) LogBatch(_ context.Context, events []domain.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, append([]domain.TradeEvent(nil), events...))
	return nil
}

func (r *fakeRepo) DailySales(context.Context, time.Time, time.Time) ([]domain.DailySales, error) {
	return nil, nil
}

func (r *fakeRepo) setErr(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b)
	}
	return n
}

func evt(id string) domain.TradeEvent {
	return domain.TradeEvent{EventID: id, Kind: domain.KindOrderCreated, EntityID: id}
}

func TestBatcher_FlushesWhenFull(t *testing.T) {
	repo := &fakeRepo{}
	b := NewBatcher(repo, 3, time.Hour, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, evt("1")))
	require.NoError(t, b.Add(ctx, evt("2")))
	assert.Equal(t, 0, repo.count())

	require.NoError(t, b.Add(ctx, evt("3")))
	require.Len(t, repo.batches, 1)
	assert.Equal(t, []string{"1", "2", "3"}, []string{repo.batches[0][0].EventID, repo.batches[0][1].EventID, repo.batches[0][2].EventID})
	assert.Equal(t, 0, b.Pending())
}

func TestBatcher_FailedFlushKeepsEvents(t *testing.T) {
	repo := &fakeRepo{err: errors.New("clickhouse down")}
	b := NewBatcher(repo, 2, time.Hour, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, evt("1")))
	assert.Error(t, b.Add(ctx, evt("2")))
	assert.Equal(t, 2, b.Pending())

	repo.setErr(nil)
	require.NoError(t, b.Flush(ctx))
	assert.Equal(t, 2, repo.count())
	assert.Equal(t, 0, b.Pending())
}

func TestBatcher_DropsOldestOverLimit(t *testing.T) {
	repo := &fakeRepo{err: errors.New("clickhouse down")}
	b := NewBatcher(repo, 1, time.Hour, zap.NewNop())

	for i := 0; i < 15; i++ {
		_ = b.Add(context.Background(), evt(string(rune('a'+i))))
	}
	assert.Equal(t, 10, b.Pending())
}

func TestBatcher_RunFlushesOnTickAndOnStop(t *testing.T) {
	repo := &fakeRepo{}
	b := NewBatcher(repo, 100, 20*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.NoError(t, b.Add(ctx, evt("1")))
	assert.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, b.Add(ctx, evt("2")))
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, repo.count())
}
