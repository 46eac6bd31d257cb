package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	"github.com/davicafu/latamtradex/internal/shared/infra/codec"
	"github.com/segmentio/kafka-go"
)

// Cabeceras que acompañan a cada mensaje publicado.
const (
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
	HeaderEventID   = "event-id"
)

var ErrDecode = errors.New("decode message")

// Message es un registro recibido del broker, ya independiente del transporte.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Headers   map[string]string
	Time      time.Time
}

func fromKafka(msg kafka.Message) Message {
	return Message{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       string(msg.Key),
		Value:     msg.Value,
		Headers:   broker.Headers(msg),
		Time:      msg.Time,
	}
}

// Timestamp devuelve la hora de publicación de la cabecera timestamp, o la del broker si falta.
func (m Message) Timestamp() time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, m.Headers[HeaderTimestamp]); err == nil {
		return ts
	}
	return m.Time
}

// Fact es un hecho decodificado junto con su sobre.
type Fact[T any] struct {
	EventType string
	Source    string
	EventID   string
	Timestamp time.Time
	Data      T
}

// DecodeFact decodifica el cuerpo de m como T. Los errores envuelven ErrDecode.
func DecodeFact[T any](m Message) (Fact[T], error) {
	var data T
	if err := codec.Unmarshal(m.Value, &data); err != nil {
		return Fact[T]{}, fmt.Errorf("%w: %s@%d/%d: %v", ErrDecode, m.Topic, m.Partition, m.Offset, err)
	}

	eventType := m.Headers[HeaderEventType]
	if eventType == "" {
		eventType = m.Topic
	}
	return Fact[T]{
		EventType: eventType,
		Source:    m.Headers[HeaderSource],
		EventID:   m.Headers[HeaderEventID],
		Timestamp: m.Timestamp(),
		Data:      data,
	}, nil
}

// HandleFact adapta una función tipada a Handler. Un cuerpo que no decodifica es un fallo
// terminal: reintentarlo no lo arreglaría.
func HandleFact[T any](fn func(ctx context.Context, fact Fact[T]) error) Handler {
	return func(ctx context.Context, m Message) error {
		fact, err := DecodeFact[T](m)
		if err != nil {
			return Terminal(err)
		}
		return fn(ctx, fact)
	}
}
