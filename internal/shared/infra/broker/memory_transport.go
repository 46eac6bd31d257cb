package broker

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrTransportClosed = errors.New("memory transport closed")

type topicPartition struct {
	topic     string
	partition int
}

// MemoryTransport implementa un broker en memoria con topics particionados, offsets por
// consumer group y el mismo balanceo por clave que el writer de Kafka.
// Sirve para ejecutar los servicios sin Kafka y para los tests.
//
// A diferencia de Kafka, cada reader de un grupo recibe todas las particiones.
type MemoryTransport struct {
	mu         sync.Mutex
	partitions int
	logs       map[string][][]kafka.Message
	committed  map[string]map[topicPartition]int64 // group -> siguiente offset a leer
	notify     chan struct{}                       // se cierra en cada escritura
	balancer   *kafka.Hash

	pingFailures  int
	pingErr       error
	writeFailures int
	writeErr      error
	topicFailures map[string]*injectedFailure
}

type injectedFailure struct {
	n   int
	err error
}

var _ Transport = (*MemoryTransport)(nil)

// NewMemoryTransport crea un bus en memoria con partitions particiones por topic.
func NewMemoryTransport(partitions int) *MemoryTransport {
	if partitions <= 0 {
		partitions = 1
	}
	return &MemoryTransport{
		partitions: partitions,
		logs:       make(map[string][][]kafka.Message),
		committed:  make(map[string]map[topicPartition]int64),
		notify:     make(chan struct{}),
		balancer:   &kafka.Hash{},
	}
}

// FailPings hace que los próximos n Ping devuelvan err.
func (t *MemoryTransport) FailPings(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pingFailures, t.pingErr = n, err
}

// FailWrites hace que las próximas n escrituras devuelvan err sin guardar nada.
func (t *MemoryTransport) FailWrites(n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writeFailures, t.writeErr = n, err
}

// FailWritesTo hace que las próximas n escrituras que incluyan topic devuelvan err sin
// guardar nada. El resto de topics no se ve afectado.
func (t *MemoryTransport) FailWritesTo(topic string, n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.topicFailures == nil {
		t.topicFailures = make(map[string]*injectedFailure)
	}
	t.topicFailures[topic] = &injectedFailure{n: n, err: err}
}

// Committed devuelve cuántos mensajes de topic tiene confirmados group, sumando particiones.
func (t *MemoryTransport) Committed(group, topic string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for tp, off := range t.committed[group] {
		if tp.topic == topic {
			n += off
		}
	}
	return n
}

func (t *MemoryTransport) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pingFailures > 0 {
		t.pingFailures--
		return t.pingErr
	}
	return nil
}

// Messages devuelve una copia del log de topic, todas las particiones, en orden de offset
// dentro de cada partición.
func (t *MemoryTransport) Messages(topic string) []kafka.Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []kafka.Message
	for _, log := range t.logs[topic] {
		out = append(out, log...)
	}
	return out
}

func (t *MemoryTransport) NewWriter() Writer {
	return &memoryWriter{t: t}
}

func (t *MemoryTransport) NewReader(cfg ReaderConfig) Reader {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := &memoryReader{
		t:         t,
		cfg:       cfg,
		positions: make(map[topicPartition]int64),
		closed:    make(chan struct{}),
	}

	group := t.committed[cfg.GroupID]
	for _, topic := range cfg.Topics {
		logs := t.ensureTopic(topic)
		for p := range logs {
			tp := topicPartition{topic: topic, partition: p}
			if off, ok := group[tp]; ok {
				r.positions[tp] = off
			} else if cfg.FromBeginning {
				r.positions[tp] = 0
			} else {
				r.positions[tp] = int64(len(logs[p]))
			}
			r.order = append(r.order, tp)
		}
	}
	return r
}

// ensureTopic requiere t.mu tomado.
func (t *MemoryTransport) ensureTopic(topic string) [][]kafka.Message {
	logs, ok := t.logs[topic]
	if !ok {
		logs = make([][]kafka.Message, t.partitions)
		t.logs[topic] = logs
	}
	return logs
}

func (t *MemoryTransport) write(ctx context.Context, msgs []kafka.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writeFailures > 0 {
		t.writeFailures--
		return t.writeErr
	}
	for _, msg := range msgs {
		if f, ok := t.topicFailures[msg.Topic]; ok && f.n > 0 {
			f.n--
			return f.err
		}
	}

	partitions := make([]int, t.partitions)
	for i := range partitions {
		partitions[i] = i
	}

	for _, msg := range msgs {
		logs := t.ensureTopic(msg.Topic)
		p := t.balancer.Balance(msg, partitions...)
		msg.Partition = p
		msg.Offset = int64(len(logs[p]))
		if msg.Time.IsZero() {
			msg.Time = time.Now().UTC()
		}
		logs[p] = append(logs[p], msg)
	}

	// despertamos a todos los readers bloqueados
	close(t.notify)
	t.notify = make(chan struct{})
	return nil
}

func (t *MemoryTransport) commit(group string, msgs []kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	offsets, ok := t.committed[group]
	if !ok {
		offsets = make(map[topicPartition]int64)
		t.committed[group] = offsets
	}
	for _, msg := range msgs {
		tp := topicPartition{topic: msg.Topic, partition: msg.Partition}
		if next := msg.Offset + 1; next > offsets[tp] {
			offsets[tp] = next
		}
	}
}

type memoryWriter struct {
	t *MemoryTransport
}

func (w *memoryWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return w.t.write(ctx, msgs)
}

func (w *memoryWriter) Close() error { return nil }

type memoryReader struct {
	t         *MemoryTransport
	cfg       ReaderConfig
	positions map[topicPartition]int64
	order     []topicPartition
	next      int // rotación para no dejar particiones sin leer
	closed    chan struct{}
	closeOnce sync.Once
}

// FetchMessage bloquea hasta que haya un mensaje, se cancele ctx o se cierre el reader.
// Igual que kafka-go, devuelve io.EOF tras Close.
func (r *memoryReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	for {
		r.t.mu.Lock()
		for i := 0; i < len(r.order); i++ {
			tp := r.order[(r.next+i)%len(r.order)]
			log := r.t.logs[tp.topic][tp.partition]
			pos := r.positions[tp]
			if pos < int64(len(log)) {
				r.positions[tp] = pos + 1
				r.next = (r.next + i + 1) % len(r.order)
				msg := log[pos]
				r.t.mu.Unlock()
				return msg, nil
			}
		}
		wait := r.t.notify
		r.t.mu.Unlock()

		select {
		case <-ctx.Done():
			return kafka.Message{}, ctx.Err()
		case <-r.closed:
			return kafka.Message{}, io.EOF
		case <-wait:
		}
	}
}

func (r *memoryReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	select {
	case <-r.closed:
		return io.ErrClosedPipe
	default:
	}
	r.t.commit(r.cfg.GroupID, msgs)
	return nil
}

func (r *memoryReader) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}
