package broker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig es la configuración del transporte Kafka.
type KafkaConfig struct {
	Brokers      []string
	ClientID     string
	RequiredAcks kafka.RequiredAcks
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// KafkaTransport implementa Transport con segmentio/kafka-go.
type KafkaTransport struct {
	cfg    KafkaConfig
	dialer *kafka.Dialer
}

var _ Transport = (*KafkaTransport)(nil)

func NewKafkaTransport(cfg KafkaConfig) *KafkaTransport {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &KafkaTransport{
		cfg: cfg,
		dialer: &kafka.Dialer{
			ClientID:  cfg.ClientID,
			Timeout:   cfg.DialTimeout,
			DualStack: true,
		},
	}
}

// Ping abre una conexión contra cada broker hasta que uno responda con los metadatos del cluster.
func (t *KafkaTransport) Ping(ctx context.Context) error {
	if len(t.cfg.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}

	var errs []error
	for _, addr := range t.cfg.Brokers {
		conn, err := t.dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			errs = append(errs, fmt.Errorf("dial %s: %w", addr, err))
			continue
		}
		_, err = conn.Brokers()
		conn.Close()
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("metadata %s: %w", addr, err))
	}
	return errors.Join(errs...)
}

// NewWriter crea un writer genérico: el topic viaja en cada mensaje.
// WriteMessages es síncrono y no vuelve hasta el ack del nivel RequiredAcks.
func (t *KafkaTransport) NewWriter() Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(t.cfg.Brokers...),
		Balancer:               &kafka.Hash{}, // misma clave => misma partición
		RequiredAcks:           t.cfg.RequiredAcks,
		WriteTimeout:           t.cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			ClientID:    t.cfg.ClientID,
			DialTimeout: t.cfg.DialTimeout,
		},
	}
}

func (t *KafkaTransport) NewReader(cfg ReaderConfig) Reader {
	start := kafka.LastOffset
	if cfg.FromBeginning {
		start = kafka.FirstOffset
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:           t.cfg.Brokers,
		GroupID:           cfg.GroupID,
		GroupTopics:       cfg.Topics,
		StartOffset:       start, // solo aplica si el grupo no tiene offset confirmado
		Dialer:            t.dialer,
		MinBytes:          1,
		MaxBytes:          10e6, // 10MB
		MaxWait:           500 * time.Millisecond,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
		CommitInterval:    0, // commits síncronos
	})
}
