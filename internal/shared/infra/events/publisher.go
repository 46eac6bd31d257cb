package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
	sharedBus "github.com/davicafu/latamtradex/internal/shared/infra/platform/bus"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// RawSender es lo que el Publisher necesita del cliente del broker.
type RawSender interface {
	SendRaw(ctx context.Context, topic, key string, value []byte, headers map[string]string) error
	ClientID() string
}

type PublisherOption func(*Publisher)

// WithPublisherMetrics cuenta los mensajes publicados por topic.
func WithPublisherMetrics(m *Metrics) PublisherOption {
	return func(p *Publisher) { p.metrics = m }
}

// WithClock fija el reloj usado para la cabecera timestamp y la clave por defecto.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) { p.now = now }
}

// Publisher serializa valores y los envía con las cabeceras estándar. Una escritura por llamada.
type Publisher struct {
	sender  RawSender
	log     *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

func NewPublisher(sender RawSender, log *zap.Logger, opts ...PublisherOption) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{sender: sender, log: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish envía value a topic. Con key vacía se usa la PartitionKey del valor y, si no la
// tiene, el timestamp actual en milisegundos.
func (p *Publisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	payload, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode message for %s: %w", topic, err)
	}

	now := p.now().UTC()
	if key == "" {
		if keyer, ok := value.(sharedBus.Keyer); ok {
			key = keyer.PartitionKey()
		}
	}
	if key == "" {
		key = strconv.FormatInt(now.UnixMilli(), 10)
	}

	headers := map[string]string{
		HeaderEventType: topic,
		HeaderSource:    p.sender.ClientID(),
		HeaderTimestamp: now.Format(time.RFC3339Nano),
		HeaderEventID:   ulid.Make().String(),
	}

	ctx, span := startPublishSpan(ctx, topic, key, headers)
	err = p.sender.SendRaw(ctx, topic, key, payload, headers)
	endSpan(span, err)
	p.metrics.observePublish(topic, err)

	if err != nil {
		p.log.Error("❌ Error publicando mensaje",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		return err
	}

	p.log.Debug("📤 Mensaje publicado",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.String("event_id", headers[HeaderEventID]))
	return nil
}

// Verificación estática
var _ sharedBus.EventPublisher = (*Publisher)(nil)
