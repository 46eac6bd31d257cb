package bus

import "context"

// Keyer lo implementan los valores que saben cuál es su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventPublisher es el puerto de salida de todos los servicios: publicar un comando o un
// hecho en un topic con una clave de partición. key vacía delega en Keyer.
//
// Si Publish devuelve nil el broker ya aceptó el mensaje; si devuelve error hay que asumir
// que NO se entregó.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}
