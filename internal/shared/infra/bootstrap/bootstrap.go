// Package bootstrap arma las piezas comunes de los procesos: transporte, cliente del broker,
// publisher, subscriber y el grupo de tareas que vive hasta la señal de parada.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/davicafu/latamtradex/internal/config"
	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	sharedEvents "github.com/davicafu/latamtradex/internal/shared/infra/events"
	"github.com/davicafu/latamtradex/internal/shared/infra/utils"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewTransport elige Kafka o el bus en memoria según USE_KAFKA.
func NewTransport(cfg *config.Config, log *zap.Logger) broker.Transport {
	if !cfg.UseKafka {
		log.Info("⚡️ Usando broker en memoria", zap.Int("partitions", cfg.MemoryPartitionsCount))
		return broker.NewMemoryTransport(cfg.MemoryPartitionsCount)
	}
	log.Info("🚀 Usando Kafka como broker", zap.Strings("brokers", cfg.KafkaBrokers))
	return broker.NewKafkaTransport(broker.KafkaConfig{
		Brokers:      cfg.KafkaBrokers,
		ClientID:     cfg.KafkaClientID,
		RequiredAcks: kafka.RequiredAcks(cfg.KafkaRequiredAcks),
		WriteTimeout: cfg.KafkaWriteTimeout,
	})
}

// Messaging es la mensajería de un proceso ya conectada.
type Messaging struct {
	Client    *broker.Client
	Publisher *sharedEvents.Publisher
	Registry  *sharedEvents.Registry
	Metrics   *sharedEvents.Metrics
	// Prometheus es el registro que expone /metrics.
	Prometheus *prometheus.Registry

	cfg *config.Config
	log *zap.Logger
}

// Connect crea el cliente sobre transport y lo conecta con la política de reintentos
// configurada. Un error aquí significa que el proceso no debe arrancar.
func Connect(ctx context.Context, cfg *config.Config, transport broker.Transport, log *zap.Logger) (*Messaging, error) {
	client := broker.NewClient(transport, broker.Config{
		ClientID: cfg.KafkaClientID,
		Retry: utils.RetryPolicy{
			InitialInterval: cfg.KafkaConnectBackoff,
			MaxInterval:     cfg.KafkaConnectMaxWait,
			Multiplier:      2,
			MaxRetries:      cfg.KafkaConnectRetries,
			Jitter:          0.2,
		},
	}, log)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := sharedEvents.NewMetrics(reg)

	return &Messaging{
		Client:     client,
		Publisher:  sharedEvents.NewPublisher(client, log, sharedEvents.WithPublisherMetrics(metrics)),
		Registry:   sharedEvents.NewRegistry(),
		Metrics:    metrics,
		Prometheus: reg,
		cfg:        cfg,
		log:        log,
	}, nil
}

// Subscriber crea el subscriber del consumer group configurado sobre el Registry. Los
// resultados van a log y métricas, y al dead-letter si DLQ_ENABLED.
func (m *Messaging) Subscriber() *sharedEvents.Subscriber {
	sink := sharedEvents.MultiSink{
		sharedEvents.NewLogSink(m.log),
		sharedEvents.NewMetricsSink(m.Metrics),
	}
	if m.cfg.DeadLetterEnabled {
		sink = append(sink, sharedEvents.NewDeadLetterSink(m.Client, m.log))
	}
	return sharedEvents.NewSubscriber(m.Client, m.cfg.KafkaGroupID, m.Registry, sink, m.log)
}

// Close libera el cliente del broker y con él el writer y los readers.
func (m *Messaging) Close() {
	if err := m.Client.Close(); err != nil {
		m.log.Warn("⚠️ Error al cerrar el cliente del broker", zap.Error(err))
	}
}

// Task es una parte del proceso que corre hasta que ctx se cancele.
type Task func(ctx context.Context) error

// ConsumeTask suscribe sub a topics y consume hasta la parada.
func ConsumeTask(sub *sharedEvents.Subscriber, topics []string, fromBeginning bool) Task {
	return func(ctx context.Context) error {
		if err := sub.Subscribe(topics, fromBeginning); err != nil {
			return err
		}
		err := sub.Consume(ctx)
		if stopErr := sub.Stop(); err == nil {
			err = stopErr
		}
		return err
	}
}

// Run ejecuta las tareas en paralelo. Si una falla se cancelan las demás y se devuelve su error.
func Run(ctx context.Context, log *zap.Logger, tasks ...Task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error { return task(gctx) })
	}
	err := g.Wait()
	if err != nil {
		log.Error("❌ El proceso terminó con error", zap.Error(err))
		return err
	}
	log.Info("👋 Proceso detenido")
	return nil
}

// Redis devuelve un cliente si el servidor responde; nil si no, para usar los stores en memoria.
func Redis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, se usan stores en memoria", zap.String("addr", addr), zap.Error(err))
		_ = rdb.Close()
		return nil
	}
	log.Info("✅ Redis conectado", zap.String("addr", addr))
	return rdb
}
