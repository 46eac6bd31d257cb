package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
	"github.com/davicafu/latamtradex/internal/catalog/infra/outbound/db/inmemory"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/platform/idempotency"
	"github.com/davicafu/latamtradex/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	svc    *CatalogService
	repo   *inmemory.ProductRepoInMemory
	cache  *mocks.DummyCache
	pub    *mocks.RecordingPublisher
	claims *idempotency.InMemoryStore
}

func newFixture(t *testing.T, opts ...idempotency.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:   inmemory.NewProductRepoInMemory(),
		cache:  mocks.NewDummyCache(),
		pub:    &mocks.RecordingPublisher{},
		claims: idempotency.NewInMemoryStore(time.Hour, opts...),
	}
	f.svc = NewCatalogService(f.repo, f.cache, f.claims, f.pub, time.Minute, zap.NewNop())
	return f
}

func (f *fixture) seed(t *testing.T, id string, stock int) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &domain.Product{ID: id, SKU: "SKU-" + id, Stock: stock}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	cmd := contracts.CreateProduct{Name: "Café", Description: "Huila", SKU: "CAF-1", Price: 10, Stock: 3}

	p, err := f.svc.CreateProduct(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, p.ID))

	assert.Eventually(t, func() bool { return f.cache.Has(domain.CacheKeyByID(p.ID)) }, time.Second, 5*time.Millisecond)

	_, err = f.svc.CreateProduct(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrProductAlreadyExists)

	cmd.Price = -1
	_, err = f.svc.CreateProduct(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", 4)

	p, err := f.svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, p.Stock)

	_, err = f.svc.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_CacheDownFallsBackToRepo(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "p1", 4)
	f.cache.Down = true

	p, err := f.svc.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}

func TestDecreaseStockForOrder_PartialFulfilment(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)
	f.seed(t, "B", 1)

	err := f.svc.DecreaseStockForOrder(context.Background(), "o-1", []contracts.OrderItem{
		{ProductID: "A", Quantity: 2, Price: 10},
		{ProductID: "B", Quantity: 3, Price: 5},
		{ProductID: "ghost", Quantity: 1, Price: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Equal(t, 1, f.stock(t, "B"), "una línea sin stock no toca el producto")

	published := f.pub.OnTopic(contracts.StockUpdatedTopic)
	require.Len(t, published, 1)
	assert.Equal(t, "A", published[0].Key)
	evt := published[0].Value.(contracts.StockUpdated)
	assert.Equal(t, "A", evt.ProductID)
	assert.Equal(t, 2, evt.Quantity)
	assert.Equal(t, contracts.StockDecrease, evt.Operation)
}

func TestDecreaseStockForOrder_RedeliveryDoesNotDoubleDecrement(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)
	items := []contracts.OrderItem{{ProductID: "A", Quantity: 2}}

	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-1", items))
	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-1", items))

	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Len(t, f.pub.OnTopic(contracts.StockUpdatedTopic), 1)

	// otro pedido con el mismo producto sí se aplica
	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-2", items))
	assert.Equal(t, 1, f.stock(t, "A"))
}

func TestDecreaseStockForOrder_SkippedLinesReleaseTheirClaim(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 1)

	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-1", []contracts.OrderItem{
		{ProductID: "A", Quantity: 2},
		{ProductID: "ghost", Quantity: 1},
	}))
	assert.Equal(t, 1, f.stock(t, "A"))
	assert.Empty(t, f.pub.Published())

	for _, key := range []string{domain.StockClaimKey("o-1", "A"), domain.StockClaimKey("o-1", "ghost")} {
		stage, err := f.claims.Claim(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, idempotency.StageNone, stage, "la línea omitida no debe quedar reclamada: %s", key)
	}
}

func TestDecreaseStockForOrder_InvalidatesCache(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)
	require.NoError(t, f.cache.Set(context.Background(), domain.CacheKeyByID("A"), domain.Product{ID: "A", Stock: 5}, 0))

	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-1", []contracts.OrderItem{{ProductID: "A", Quantity: 1}}))
	assert.False(t, f.cache.Has(domain.CacheKeyByID("A")))
}

func TestDecreaseStockForOrder_PublishFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)
	f.pub.Err = errors.New("broker down")

	err := f.svc.DecreaseStockForOrder(context.Background(), "o-1", []contracts.OrderItem{{ProductID: "A", Quantity: 1}})
	require.Error(t, err)
	assert.False(t, domain.IsDomainError(err))
	assert.Equal(t, 4, f.stock(t, "A"), "el stock ya se descontó")
}

func TestDecreaseStockForOrder_SkipsNonPositiveQuantities(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)

	require.NoError(t, f.svc.DecreaseStockForOrder(context.Background(), "o-1", []contracts.OrderItem{{ProductID: "A", Quantity: 0}}))
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Empty(t, f.pub.Published())
}

func TestDecreaseStockForOrder_RedeliveryRepublishesAfterPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "A", 5)
	items := []contracts.OrderItem{{ProductID: "A", Quantity: 1}}
	ctx := context.Background()

	f.pub.Err = errors.New("broker down")
	require.Error(t, f.svc.DecreaseStockForOrder(ctx, "o-1", items))
	assert.Equal(t, 4, f.stock(t, "A"))

	f.pub.Err = nil
	require.NoError(t, f.svc.DecreaseStockForOrder(ctx, "o-1", items))
	assert.Equal(t, 4, f.stock(t, "A"), "la re-entrega no vuelve a descontar")

	published := f.pub.OnTopic(contracts.StockUpdatedTopic)
	require.Len(t, published, 1)
	evt := published[0].Value.(contracts.StockUpdated)
	assert.Equal(t, "A", evt.ProductID)
	assert.Equal(t, 1, evt.Quantity)

	// una vez publicada, la línea ya no se toca
	require.NoError(t, f.svc.DecreaseStockForOrder(ctx, "o-1", items))
	assert.Len(t, f.pub.OnTopic(contracts.StockUpdatedTopic), 1)
	assert.Equal(t, 4, f.stock(t, "A"))
}

func TestDecreaseStockForOrder_AbandonedClaimExpires(t *testing.T) {
	f := newFixture(t, idempotency.WithLease(30*time.Millisecond))
	f.seed(t, "A", 5)
	items := []contracts.OrderItem{{ProductID: "A", Quantity: 2}}
	ctx := context.Background()

	// un intento anterior reclamó la línea y se cayó antes de descontar
	stage, err := f.claims.Claim(ctx, domain.StockClaimKey("o-1", "A"))
	require.NoError(t, err)
	require.Equal(t, idempotency.StageNone, stage)

	err = f.svc.DecreaseStockForOrder(ctx, "o-1", items)
	require.Error(t, err)
	assert.ErrorIs(t, err, errLineInProgress)
	assert.False(t, domain.IsDomainError(err))
	assert.Equal(t, 5, f.stock(t, "A"))
	assert.Empty(t, f.pub.Published())

	require.Eventually(t, func() bool {
		return f.svc.DecreaseStockForOrder(ctx, "o-1", items) == nil
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 3, f.stock(t, "A"))
	assert.Len(t, f.pub.OnTopic(contracts.StockUpdatedTopic), 1)
}
