package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davicafu/latamtradex/internal/order/domain"
	"github.com/davicafu/latamtradex/internal/order/infra/outbound/db/inmemory"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/tests/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService() (*OrderService, *inmemory.OrderRepoInMemory, *mocks.RecordingPublisher) {
	repo := inmemory.NewOrderRepoInMemory()
	pub := &mocks.RecordingPublisher{}
	svc := NewOrderService(repo, pub, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, pub
}

func TestCreateOrder(t *testing.T) {
	svc, repo, pub := newTestService()
	cmd := contracts.CreateOrder{
		UserID: "u-1",
		Items:  []contracts.OrderItem{{ProductID: "A", Quantity: 2, Price: 10}, {ProductID: "B", Quantity: 1, Price: 5}},
	}

	order, err := svc.CreateOrder(context.Background(), cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.InDelta(t, 25.0, order.TotalAmount, 1e-9)

	stored, err := repo.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	published := pub.OnTopic(contracts.OrderCreatedTopic)
	require.Len(t, published, 1)
	assert.Equal(t, order.ID.String(), published[0].Key)
	evt := published[0].Value.(contracts.OrderCreated)
	assert.Equal(t, cmd.Items, evt.Items)
	assert.Equal(t, "pending", evt.Status)
	assert.Equal(t, fixedNow, evt.CreatedAt)
}

func TestCreateOrder_Invalid(t *testing.T) {
	svc, _, pub := newTestService()

	_, err := svc.CreateOrder(context.Background(), contracts.CreateOrder{UserID: "u-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)
	assert.Empty(t, pub.Published())
}

func TestCreateOrder_PublishFailureKeepsOrder(t *testing.T) {
	svc, repo, pub := newTestService()
	pub.Err = errors.New("broker down")

	order, err := svc.CreateOrder(context.Background(), contracts.CreateOrder{
		UserID: "u-1",
		Items:  []contracts.OrderItem{{ProductID: "A", Quantity: 1, Price: 1}},
	})
	require.Error(t, err)
	require.NotNil(t, order)
	assert.False(t, domain.IsDomainError(err))

	_, err = repo.GetByID(context.Background(), order.ID)
	assert.NoError(t, err)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, _, pub := newTestService()
	order, err := svc.CreateOrder(context.Background(), contracts.CreateOrder{
		UserID: "u-1",
		Items:  []contracts.OrderItem{{ProductID: "A", Quantity: 1, Price: 1}},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		cmd     contracts.UpdateOrderStatus
		wantErr error
	}{
		{name: "estado válido", cmd: contracts.UpdateOrderStatus{OrderID: order.ID.String(), Status: "shipped"}},
		{name: "estado desconocido", cmd: contracts.UpdateOrderStatus{OrderID: order.ID.String(), Status: "lost"}, wantErr: domain.ErrInvalidStatus},
		{name: "pedido inexistente", cmd: contracts.UpdateOrderStatus{OrderID: uuid.NewString(), Status: "shipped"}, wantErr: domain.ErrOrderNotFound},
		{name: "id mal formado", cmd: contracts.UpdateOrderStatus{OrderID: "xyz", Status: "shipped"}, wantErr: domain.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(pub.OnTopic(contracts.OrderUpdatedTopic))
			updated, err := svc.UpdateOrderStatus(context.Background(), tt.cmd)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Len(t, pub.OnTopic(contracts.OrderUpdatedTopic), before)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.OrderShipped, updated.Status)

			events := pub.OnTopic(contracts.OrderUpdatedTopic)
			require.Len(t, events, before+1)
			evt := events[len(events)-1].Value.(contracts.OrderUpdated)
			assert.Equal(t, contracts.OrderUpdated{OrderID: order.ID.String(), Status: "shipped", UpdatedAt: fixedNow}, evt)
			assert.Equal(t, order.ID.String(), events[len(events)-1].Key)
		})
	}
}
