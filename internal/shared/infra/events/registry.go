package events

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrRegistryClosed = errors.New("handler registry closed: consumption already started")
	ErrEmptyTopic     = errors.New("topic is required")
	ErrNilHandler     = errors.New("handler is nil")
)

// Handler procesa un mensaje. Un error devuelto se convierte en un Result; nunca detiene el
// bucle de consumo. Envolver con Terminal los fallos que no se arreglan reintentando.
type Handler func(ctx context.Context, msg Message) error

// Registration asocia un handler con nombre a un topic.
type Registration struct {
	Topic   string
	Name    string
	Handler Handler
}

// Registry guarda los handlers de cada topic en orden de registro. Se construye al arrancar
// el servicio y queda cerrado en cuanto empieza el consumo.
type Registry struct {
	mu      sync.RWMutex
	byTopic map[string][]Registration
	closed  bool
}

func NewRegistry() *Registry {
	return &Registry{byTopic: make(map[string][]Registration)}
}

// RegisterHandler añade handler al final de la lista de topic.
func (r *Registry) RegisterHandler(topic, name string, handler Handler) error {
	if topic == "" {
		return ErrEmptyTopic
	}
	if handler == nil {
		return ErrNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	r.byTopic[topic] = append(r.byTopic[topic], Registration{Topic: topic, Name: name, Handler: handler})
	return nil
}

// Handlers devuelve una copia de los handlers de topic en orden de invocación.
func (r *Registry) Handlers(topic string) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Registration(nil), r.byTopic[topic]...)
}

func (r *Registry) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
