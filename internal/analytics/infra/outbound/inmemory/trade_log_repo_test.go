package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/davicafu/latamtradex/internal/analytics/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeLogRepo_DailySales(t *testing.T) {
	repo := NewTradeLogRepo()
	day1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	require.NoError(t, repo.LogBatch(context.Background(), []domain.TradeEvent{
		{EventID: "1", Kind: domain.KindOrderCreated, Amount: 20, OccurredAt: day1},
		{EventID: "2", Kind: domain.KindOrderCreated, Amount: 5, OccurredAt: day1.Add(time.Hour)},
		{EventID: "3", Kind: domain.KindStockUpdated, Operation: "decrease", Quantity: 4, OccurredAt: day1},
		{EventID: "4", Kind: domain.KindOrderCreated, Amount: 7, OccurredAt: day2},
		{EventID: "5", Kind: domain.KindOrderUpdated, Status: "shipped", OccurredAt: day2},
	}))
	// re-entrega del mismo evento
	require.NoError(t, repo.LogBatch(context.Background(), []domain.TradeEvent{
		{EventID: "1", Kind: domain.KindOrderCreated, Amount: 20, OccurredAt: day1},
	}))
	assert.Equal(t, 5, repo.Len())

	sales, err := repo.DailySales(context.Background(), day1.Add(-time.Hour), day2.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, int64(2), sales[0].Orders)
	assert.InDelta(t, 25.0, sales[0].Revenue, 1e-9)
	assert.Equal(t, int64(4), sales[0].UnitsReserved)
	assert.Equal(t, int64(1), sales[1].Orders)

	sales, err = repo.DailySales(context.Background(), day2, day2.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}
