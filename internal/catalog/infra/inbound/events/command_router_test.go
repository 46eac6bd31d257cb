package events

import (
	"context"
	"errors"
	"testing"

	"github.com/davicafu/latamtradex/internal/catalog/domain"
	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) CreateProduct(ctx context.Context, cmd contracts.CreateProduct) (*domain.Product, error) {
	args := m.Called(ctx, cmd)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *mockCatalog) DecreaseStockForOrder(ctx context.Context, orderID string, items []contracts.OrderItem) error {
	return m.Called(ctx, orderID, items).Error(0)
}

func commandMessage(t *testing.T, name string, data interface{}) sharedEvents.Message {
	t.Helper()
	env, err := contracts.NewCommand(name, data)
	require.NoError(t, err)
	raw, err := codec.Marshal(env)
	require.NoError(t, err)
	return sharedEvents.Message{Topic: contracts.CatalogCommandsTopic, Value: raw}
}

func TestCommandRouter_Handle(t *testing.T) {
	create := contracts.CreateProduct{Name: "Café", Description: "Huila", SKU: "CAF-1", Price: 12.5, Stock: 10}
	get := contracts.GetProduct{ProductID: "p-1"}

	tests := []struct {
		name         string
		msg          func(t *testing.T) sharedEvents.Message
		setup        func(m *mockCatalog)
		wantErr      bool
		wantTerminal bool
	}{
		{
			name:  "alta correcta",
			msg:   func(t *testing.T) sharedEvents.Message { return commandMessage(t, contracts.CreateProductCommand, create) },
			setup: func(m *mockCatalog) { m.On("CreateProduct", mock.Anything, create).Return(&domain.Product{ID: "p-1"}, nil) },
		},
		{
			name: "SKU duplicado es terminal",
			msg:  func(t *testing.T) sharedEvents.Message { return commandMessage(t, contracts.CreateProductCommand, create) },
			setup: func(m *mockCatalog) {
				m.On("CreateProduct", mock.Anything, create).Return(nil, domain.ErrProductAlreadyExists)
			},
			wantErr:      true,
			wantTerminal: true,
		},
		{
			name: "fallo de mongo es reintentable",
			msg:  func(t *testing.T) sharedEvents.Message { return commandMessage(t, contracts.CreateProductCommand, create) },
			setup: func(m *mockCatalog) {
				m.On("CreateProduct", mock.Anything, create).Return(nil, errors.New("server selection timeout"))
			},
			wantErr: true,
		},
		{
			name:  "consulta de producto",
			msg:   func(t *testing.T) sharedEvents.Message { return commandMessage(t, contracts.GetProductCommand, get) },
			setup: func(m *mockCatalog) { m.On("GetProduct", mock.Anything, "p-1").Return(&domain.Product{ID: "p-1"}, nil) },
		},
		{
			name:         "producto inexistente es terminal",
			msg:          func(t *testing.T) sharedEvents.Message { return commandMessage(t, contracts.GetProductCommand, get) },
			setup:        func(m *mockCatalog) { m.On("GetProduct", mock.Anything, "p-1").Return(nil, domain.ErrProductNotFound) },
			wantErr:      true,
			wantTerminal: true,
		},
		{
			name:         "comando desconocido",
			msg:          func(t *testing.T) sharedEvents.Message { return commandMessage(t, "DELETE_PRODUCT", get) },
			setup:        func(m *mockCatalog) {},
			wantErr:      true,
			wantTerminal: true,
		},
		{
			name: "datos con tipos incorrectos",
			msg: func(t *testing.T) sharedEvents.Message {
				return commandMessage(t, contracts.CreateProductCommand, map[string]string{"price": "caro"})
			},
			setup:        func(m *mockCatalog) {},
			wantErr:      true,
			wantTerminal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalog{}
			tt.setup(svc)
			router := NewCommandRouter(svc, zap.NewNop())

			err := router.Handle(context.Background(), tt.msg(t))
			if !tt.wantErr {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantTerminal, sharedEvents.IsTerminal(err))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCommandRouter_Register(t *testing.T) {
	reg := sharedEvents.NewRegistry()
	require.NoError(t, NewCommandRouter(&mockCatalog{}, nil).Register(reg))

	handlers := reg.Handlers(contracts.CatalogCommandsTopic)
	require.Len(t, handlers, 1)
	assert.Equal(t, routerName, handlers[0].Name)
}
