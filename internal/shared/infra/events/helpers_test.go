package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	"github.com/davicafu/latamtradex/internal/shared/infra/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSink struct {
	mu      sync.Mutex
	results []Result
}

func (s *recordingSink) Report(_ context.Context, r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

func (s *recordingSink) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Result(nil), s.results...)
}

func newConnectedClient(t *testing.T, tr *broker.MemoryTransport) *broker.Client {
	t.Helper()
	c := broker.NewClient(tr, broker.Config{
		ClientID: "test-service",
		Retry:    utils.RetryPolicy{InitialInterval: time.Millisecond, MaxRetries: 1},
	}, zap.NewNop())
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// startConsuming arranca Consume en segundo plano y registra la parada en Cleanup.
func startConsuming(t *testing.T, s *Subscriber) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Consume(context.Background()) }()
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
		require.NoError(t, <-errCh)
	})
}
