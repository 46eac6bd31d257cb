package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// Published es una llamada registrada a Publish.
type Published struct {
	Topic string
	Key   string
	Value interface{}
}

// RecordingPublisher guarda cada publicación. Err, si no es nil, se devuelve sin registrar nada.
type RecordingPublisher struct {
	mu        sync.Mutex
	published []Published
	Err       error
}

func (p *RecordingPublisher) Publish(_ context.Context, topic, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.published = append(p.published, Published{Topic: topic, Key: key, Value: value})
	return nil
}

func (p *RecordingPublisher) Published() []Published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Published(nil), p.published...)
}

// OnTopic devuelve las publicaciones de topic en orden.
func (p *RecordingPublisher) OnTopic(topic string) []Published {
	var out []Published
	for _, m := range p.Published() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// MockPublisher simula un publisher con expectativas de testify.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
