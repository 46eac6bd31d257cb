// Package broker es el cliente del broker pub/sub: ciclo de vida de la conexión, política
// de reintentos al conectar y primitivas crudas de envío y lectura.
//
// Los registros viajan como kafka.Message en todos los transportes, así el resto del código
// no distingue entre Kafka y el bus en memoria.
package broker

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Writer es la primitiva de envío. *kafka.Writer la cumple.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reader es la primitiva de lectura de un consumer group. *kafka.Reader la cumple.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReaderConfig describe una suscripción de un consumer group a varios topics.
type ReaderConfig struct {
	Topics        []string
	GroupID       string
	FromBeginning bool
}

// Transport abstrae el broker concreto.
type Transport interface {
	// Ping comprueba que hay al menos un broker alcanzable.
	Ping(ctx context.Context) error
	NewWriter() Writer
	NewReader(cfg ReaderConfig) Reader
}

// Verificación estática
var (
	_ Writer = (*kafka.Writer)(nil)
	_ Reader = (*kafka.Reader)(nil)
)
