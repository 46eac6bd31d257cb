package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/davicafu/latamtradex/internal/shared/infra/broker"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	ErrAlreadySubscribed = errors.New("subscriber already subscribed")
	ErrNotSubscribed     = errors.New("subscriber is not subscribed")
	ErrAlreadyConsuming  = errors.New("subscriber already consuming")
	ErrStopping          = errors.New("subscriber is stopping")
)

// ReaderFactory abre readers de consumer group. *broker.Client la cumple.
type ReaderFactory interface {
	NewReader(topics []string, groupID string, fromBeginning bool) (broker.Reader, error)
}

type subscriberState int

const (
	stateUnsubscribed subscriberState = iota
	stateSubscribed
	stateConsuming
	stateStopping
	stateStopped
)

const (
	workerBuffer   = 16
	fetchErrorWait = time.Second
)

type partitionKey struct {
	topic     string
	partition int
}

// Subscriber consume los topics suscritos con un consumer group e invoca los handlers del
// Registry. Cada partición tiene su propio worker: dentro de una partición los mensajes se
// procesan y confirman en orden, entre particiones en paralelo.
type Subscriber struct {
	readers  ReaderFactory
	groupID  string
	registry *Registry
	sink     ResultSink
	log      *zap.Logger

	mu     sync.Mutex
	state  subscriberState
	reader broker.Reader
	topics []string
	cancel context.CancelFunc
	done   chan struct{}
	// stopped se cierra cuando termina el Stop en curso
	stopped chan struct{}
}

func NewSubscriber(readers ReaderFactory, groupID string, registry *Registry, sink ResultSink, log *zap.Logger) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if sink == nil {
		sink = NewLogSink(log)
	}
	return &Subscriber{
		readers:  readers,
		groupID:  groupID,
		registry: registry,
		sink:     sink,
		log:      log,
	}
}

// Subscribe abre el reader del grupo sobre topics. fromBeginning solo aplica a un grupo sin
// offsets confirmados.
func (s *Subscriber) Subscribe(topics []string, fromBeginning bool) error {
	if len(topics) == 0 {
		return broker.ErrNoTopics
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case stateSubscribed, stateConsuming:
		return ErrAlreadySubscribed
	case stateStopping:
		return ErrStopping
	}

	reader, err := s.readers.NewReader(topics, s.groupID, fromBeginning)
	if err != nil {
		return fmt.Errorf("subscribe %v: %w", topics, err)
	}
	s.reader = reader
	s.topics = append([]string(nil), topics...)
	s.state = stateSubscribed

	s.log.Info("🎧 Suscrito a topics",
		zap.Strings("topics", topics),
		zap.String("group_id", s.groupID),
		zap.Bool("from_beginning", fromBeginning))
	return nil
}

// RegisterHandler añade un handler al Registry. Falla con ErrRegistryClosed una vez iniciado Consume.
func (s *Subscriber) RegisterHandler(topic, name string, handler Handler) error {
	return s.registry.RegisterHandler(topic, name, handler)
}

// Consume bloquea procesando mensajes hasta que se cancele ctx o se llame a Stop.
// Los fallos de los handlers van al ResultSink; el mensaje se confirma igualmente.
func (s *Subscriber) Consume(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case stateSubscribed:
	case stateConsuming:
		s.mu.Unlock()
		return ErrAlreadyConsuming
	case stateStopping:
		s.mu.Unlock()
		return ErrStopping
	default:
		s.mu.Unlock()
		return ErrNotSubscribed
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	reader, topics := s.reader, s.topics
	s.cancel, s.done = cancel, done
	s.state = stateConsuming
	s.mu.Unlock()

	defer close(done)
	defer cancel()

	s.registry.close()
	for _, topic := range topics {
		if len(s.registry.Handlers(topic)) == 0 {
			s.log.Warn("⚠️ Topic suscrito sin handlers", zap.String("topic", topic))
		}
	}

	s.log.Info("▶️ Consumo iniciado", zap.Strings("topics", topics), zap.String("group_id", s.groupID))

	workers := make(map[partitionKey]chan kafka.Message)
	var wg sync.WaitGroup

loop:
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				break
			}
			s.log.Error("Error al leer mensaje del broker", zap.Error(err))
			select {
			case <-ctx.Done():
				break loop
			case <-time.After(fetchErrorWait):
			}
			continue
		}

		pk := partitionKey{topic: msg.Topic, partition: msg.Partition}
		ch, ok := workers[pk]
		if !ok {
			ch = make(chan kafka.Message, workerBuffer)
			workers[pk] = ch
			wg.Add(1)
			go s.work(ctx, reader, ch, &wg)
		}

		select {
		case ch <- msg:
		case <-ctx.Done():
			break loop
		}
	}

	for _, ch := range workers {
		close(ch)
	}
	wg.Wait()

	s.log.Info("⏹️ Consumo detenido", zap.Strings("topics", topics), zap.String("group_id", s.groupID))
	return nil
}

// work procesa los mensajes de una partición. Tras cancelar ctx termina el mensaje en curso
// y deja los pendientes sin confirmar.
func (s *Subscriber) work(ctx context.Context, reader broker.Reader, ch <-chan kafka.Message, wg *sync.WaitGroup) {
	defer wg.Done()

	runCtx := context.WithoutCancel(ctx)
	for msg := range ch {
		if ctx.Err() != nil {
			return
		}
		s.process(runCtx, msg)
		if err := reader.CommitMessages(runCtx, msg); err != nil {
			s.log.Error("Error al confirmar offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

func (s *Subscriber) process(ctx context.Context, kmsg kafka.Message) {
	m := fromKafka(kmsg)

	regs := s.registry.Handlers(m.Topic)
	if len(regs) == 0 {
		s.log.Debug("Mensaje sin handlers", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset))
		return
	}

	for _, reg := range regs {
		start := time.Now()
		hctx, span := startProcessSpan(ctx, m, reg.Name)
		err := invoke(hctx, reg.Handler, m)
		endSpan(span, err)

		s.sink.Report(ctx, Result{
			Topic:    m.Topic,
			Handler:  reg.Name,
			Message:  m,
			Outcome:  classify(err),
			Err:      err,
			Duration: time.Since(start),
		})
	}
}

// invoke convierte un panic del handler en un fallo terminal.
func invoke(ctx context.Context, h Handler, m Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Terminal(fmt.Errorf("handler panic: %v", r))
		}
	}()
	return h(ctx, m)
}

// Stop detiene el consumo, espera a que cada worker termine su mensaje en curso y libera el
// reader. Después se puede volver a llamar a Subscribe. Mientras dura, Subscribe y Consume
// devuelven ErrStopping y otro Stop espera a que termine.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	switch s.state {
	case stateSubscribed, stateConsuming:
	case stateStopping:
		stopped := s.stopped
		s.mu.Unlock()
		<-stopped
		return nil
	default:
		s.mu.Unlock()
		return nil
	}
	cancel, done, reader := s.cancel, s.done, s.reader
	stopped := make(chan struct{})
	s.state, s.stopped = stateStopping, stopped
	s.mu.Unlock()
	defer close(stopped)

	if cancel != nil {
		cancel()
		<-done
	}

	err := reader.Close()

	s.mu.Lock()
	s.state = stateStopped
	s.reader, s.cancel, s.done, s.stopped = nil, nil, nil, nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	return nil
}
