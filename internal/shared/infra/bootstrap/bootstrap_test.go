package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		KafkaClientID:         "test-service",
		KafkaGroupID:          "test-group",
		KafkaConnectBackoff:   time.Millisecond,
		KafkaConnectMaxWait:   5 * time.Millisecond,
		KafkaConnectRetries:   3,
		MemoryPartitionsCount: 2,
	}
}

func TestNewTransport(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, &broker.MemoryTransport{}, NewTransport(cfg, zap.NewNop()))

	cfg.UseKafka = true
	cfg.KafkaBrokers = []string{"localhost:9092"}
	assert.IsType(t, &broker.KafkaTransport{}, NewTransport(cfg, zap.NewNop()))
}

func TestConnect_RetriesThenFails(t *testing.T) {
	transport := broker.NewMemoryTransport(1)
	transport.FailPings(10, errors.New("broker down"))

	_, err := Connect(context.Background(), testConfig(), transport, zap.NewNop())
	assert.ErrorContains(t, err, "connect broker")
}

func TestMessaging_PublishAndConsume(t *testing.T) {
	cfg := testConfig()
	cfg.DeadLetterEnabled = true
	transport := broker.NewMemoryTransport(cfg.MemoryPartitionsCount)

	m, err := Connect(context.Background(), cfg, transport, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	got := make(chan string, 2)
	require.NoError(t, m.Registry.RegisterHandler("orders", "ok", func(_ context.Context, msg sharedEvents.Message) error {
		got <- msg.Key
		return nil
	}))
	require.NoError(t, m.Registry.RegisterHandler("orders", "roto", func(context.Context, sharedEvents.Message) error {
		return sharedEvents.Terminal(errors.New("bad payload"))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, zap.NewNop(), ConsumeTask(m.Subscriber(), []string{"orders"}, true)) }()

	require.NoError(t, m.Publisher.Publish(context.Background(), "orders", "o-1", map[string]string{"id": "o-1"}))

	select {
	case key := <-got:
		assert.Equal(t, "o-1", key)
	case <-time.After(2 * time.Second):
		t.Fatal("el handler no recibió el mensaje")
	}
	assert.Eventually(t, func() bool { return len(transport.Messages("orders.dlq")) == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run no terminó tras cancelar")
	}
}

func TestRun_FirstErrorCancelsTheRest(t *testing.T) {
	boom := errors.New("boom")
	stopped := make(chan struct{})

	err := Run(context.Background(), zap.NewNop(),
		func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		},
		func(context.Context) error { return boom },
	)

	assert.ErrorIs(t, err, boom)
	select {
	case <-stopped:
	default:
		t.Fatal("la otra tarea no se canceló")
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := Redis(context.Background(), mr.Addr(), zap.NewNop())
	require.NotNil(t, rdb)
	defer rdb.Close()

	assert.Nil(t, Redis(context.Background(), "127.0.0.1:1", zap.NewNop()))
}
