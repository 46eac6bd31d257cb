package events

import (
	"context"
	"errors"
	"testing"

	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func orderCreatedMessage(t *testing.T, evt contracts.OrderCreated) sharedEvents.Message {
	t.Helper()
	raw, err := codec.Marshal(evt)
	require.NoError(t, err)
	return sharedEvents.Message{
		Topic:   contracts.OrderCreatedTopic,
		Key:     evt.OrderID,
		Value:   raw,
		Headers: map[string]string{sharedEvents.HeaderEventType: contracts.OrderCreatedTopic, sharedEvents.HeaderSource: "order-service"},
	}
}

func TestStockReactor_OnOrderCreated(t *testing.T) {
	items := []contracts.OrderItem{{ProductID: "A", Quantity: 2, Price: 10}, {ProductID: "B", Quantity: 1, Price: 5}}
	evt := contracts.OrderCreated{OrderID: "o-1", UserID: "u-1", Items: items, TotalAmount: 25, Status: "pending"}

	t.Run("descuenta las líneas del pedido", func(t *testing.T) {
		svc := &mockCatalog{}
		svc.On("DecreaseStockForOrder", mock.Anything, "o-1", items).Return(nil)

		reg := sharedEvents.NewRegistry()
		require.NoError(t, NewStockReactor(svc, zap.NewNop()).Register(reg))
		handlers := reg.Handlers(contracts.OrderCreatedTopic)
		require.Len(t, handlers, 1)
		assert.Equal(t, stockReactorName, handlers[0].Name)

		assert.NoError(t, handlers[0].Handler(context.Background(), orderCreatedMessage(t, evt)))
		svc.AssertExpectations(t)
	})

	t.Run("error de infraestructura se propaga como reintentable", func(t *testing.T) {
		svc := &mockCatalog{}
		svc.On("DecreaseStockForOrder", mock.Anything, "o-1", items).Return(errors.New("mongo down"))

		handler := sharedEvents.HandleFact(NewStockReactor(svc, nil).OnOrderCreated)
		err := handler(context.Background(), orderCreatedMessage(t, evt))
		require.Error(t, err)
		assert.False(t, sharedEvents.IsTerminal(err))
	})

	t.Run("cuerpo ilegible es terminal y no toca el stock", func(t *testing.T) {
		svc := &mockCatalog{}
		handler := sharedEvents.HandleFact(NewStockReactor(svc, nil).OnOrderCreated)

		err := handler(context.Background(), sharedEvents.Message{Topic: contracts.OrderCreatedTopic, Value: []byte("no-json")})
		require.Error(t, err)
		assert.True(t, sharedEvents.IsTerminal(err))
		assert.ErrorIs(t, err, sharedEvents.ErrDecode)
		svc.AssertNotCalled(t, "DecreaseStockForOrder", mock.Anything, mock.Anything, mock.Anything)
	})
}
