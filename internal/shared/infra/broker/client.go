package broker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/utils"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	ErrNotConnected  = errors.New("broker client not connected")
	ErrClosed        = errors.New("broker client closed")
	ErrNoTopics      = errors.New("at least one topic is required")
	ErrGroupRequired = errors.New("consumer group id is required")
)

// DefaultConnectPolicy: 300ms inicial, hasta 10 reintentos.
var DefaultConnectPolicy = utils.RetryPolicy{
	InitialInterval: 300 * time.Millisecond,
	MaxInterval:     30 * time.Second,
	Multiplier:      2,
	MaxRetries:      10,
	Jitter:          0.2,
}

type Config struct {
	ClientID string
	Retry    utils.RetryPolicy
}

// Client es la sesión de un servicio contra el broker. Un único writer compartido por todos
// los publishers del proceso y los readers que se hayan pedido, que se cierran con él.
type Client struct {
	transport Transport
	cfg       Config
	log       *zap.Logger

	mu      sync.Mutex
	writer  Writer
	readers []*trackedReader
	closed  bool
}

func NewClient(transport Transport, cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry = DefaultConnectPolicy
	}
	return &Client{transport: transport, cfg: cfg, log: log}
}

// ClientID identifica al servicio en las cabeceras de los mensajes.
func (c *Client) ClientID() string { return c.cfg.ClientID }

// Connect comprueba la conexión con el broker reintentando con backoff exponencial.
// Agotados los reintentos devuelve error: el proceso no debe arrancar.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.writer != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	attempts := 0
	err := utils.Retry(ctx, c.cfg.Retry, func() error {
		attempts++
		return c.transport.Ping(ctx)
	}, func(err error, wait time.Duration) {
		c.log.Warn("⚠️ Broker no disponible, reintentando",
			zap.Int("attempt", attempts),
			zap.Duration("backoff", wait),
			zap.Error(err))
	})
	if err != nil {
		return fmt.Errorf("connect to broker after %d attempts: %w", attempts, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.writer == nil {
		c.writer = c.transport.NewWriter()
	}
	c.log.Info("✅ Conectado al broker", zap.String("client_id", c.cfg.ClientID), zap.Int("attempts", attempts))
	return nil
}

// SendRaw escribe un registro y espera al ack del broker. Un error significa que el mensaje
// debe darse por no entregado.
func (c *Client) SendRaw(ctx context.Context, topic, key string, value []byte, headers map[string]string) error {
	c.mu.Lock()
	w, closed := c.writer, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if w == nil {
		return ErrNotConnected
	}

	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: toKafkaHeaders(headers),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	return nil
}

// NewReader abre un reader de consumer group sobre topics. fromBeginning solo aplica cuando
// el grupo no tiene offsets confirmados.
func (c *Client) NewReader(topics []string, groupID string, fromBeginning bool) (Reader, error) {
	if len(topics) == 0 {
		return nil, ErrNoTopics
	}
	if groupID == "" {
		return nil, ErrGroupRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.writer == nil {
		return nil, ErrNotConnected
	}

	r := &trackedReader{Reader: c.transport.NewReader(ReaderConfig{
		Topics:        append([]string(nil), topics...),
		GroupID:       groupID,
		FromBeginning: fromBeginning,
	})}
	c.readers = append(c.readers, r)
	return r, nil
}

// Close cierra el writer y todos los readers. Es idempotente.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	w, readers := c.writer, c.readers
	c.writer, c.readers = nil, nil
	c.mu.Unlock()

	var errs []error
	for _, r := range readers {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w != nil {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.log.Info("🔌 Desconectado del broker", zap.String("client_id", c.cfg.ClientID))
	return errors.Join(errs...)
}

type trackedReader struct {
	Reader
	once sync.Once
	err  error
}

func (r *trackedReader) Close() error {
	r.once.Do(func() { r.err = r.Reader.Close() })
	return r.err
}

func toKafkaHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		out = append(out, kafka.Header{Key: k, Value: []byte(headers[k])})
	}
	return out
}

// Headers convierte las cabeceras de un mensaje en un mapa. Si una clave se repite gana la última.
func Headers(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}
