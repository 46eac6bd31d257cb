package events

import (
	"context"
	"strconv"
	"strings"

	"github.com/davicafu/latamtradex/internal/shared/contracts"
	"go.uber.org/zap"
)

// LogSink registra los fallos: retryable en error, terminal en warn. Los éxitos en debug.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Report(_ context.Context, r Result) {
	fields := []zap.Field{
		zap.String("topic", r.Topic),
		zap.String("handler", r.Handler),
		zap.Int("partition", r.Message.Partition),
		zap.Int64("offset", r.Message.Offset),
		zap.String("key", r.Message.Key),
		zap.Duration("duration", r.Duration),
	}

	switch r.Outcome {
	case OutcomeSuccess:
		s.log.Debug("Mensaje procesado", fields...)
	case OutcomeTerminal:
		s.log.Warn("⚠️ Mensaje descartado: fallo terminal", append(fields, zap.Error(r.Err))...)
	default:
		s.log.Error("❌ Fallo del handler, el mensaje no se reintentará", append(fields, zap.Error(r.Err))...)
	}
}

// MetricsSink cuenta resultados y mide la duración de los handlers.
type MetricsSink struct {
	m *Metrics
}

func NewMetricsSink(m *Metrics) *MetricsSink {
	return &MetricsSink{m: m}
}

func (s *MetricsSink) Report(_ context.Context, r Result) {
	s.m.handlerResults.WithLabelValues(r.Topic, r.Handler, string(r.Outcome)).Inc()
	s.m.handlerDuration.WithLabelValues(r.Topic, r.Handler).Observe(r.Duration.Seconds())
}

// Cabeceras que DeadLetterSink añade al reenviar un mensaje.
const (
	HeaderDLQError     = "dlq-error"
	HeaderDLQHandler   = "dlq-handler"
	HeaderDLQOutcome   = "dlq-outcome"
	HeaderDLQPartition = "dlq-original-partition"
	HeaderDLQOffset    = "dlq-original-offset"
)

// DeadLetterSink reenvía los mensajes fallidos a <topic>.dlq con el valor y la clave
// originales. No reenvía mensajes que ya vienen de un dead-letter.
type DeadLetterSink struct {
	sender RawSender
	log    *zap.Logger
}

func NewDeadLetterSink(sender RawSender, log *zap.Logger) *DeadLetterSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeadLetterSink{sender: sender, log: log}
}

func (s *DeadLetterSink) Report(ctx context.Context, r Result) {
	if r.Outcome == OutcomeSuccess || strings.HasSuffix(r.Topic, contracts.DeadLetterSuffix) {
		return
	}

	headers := make(map[string]string, len(r.Message.Headers)+5)
	for k, v := range r.Message.Headers {
		headers[k] = v
	}
	if r.Err != nil {
		headers[HeaderDLQError] = r.Err.Error()
	}
	headers[HeaderDLQHandler] = r.Handler
	headers[HeaderDLQOutcome] = string(r.Outcome)
	headers[HeaderDLQPartition] = strconv.Itoa(r.Message.Partition)
	headers[HeaderDLQOffset] = strconv.FormatInt(r.Message.Offset, 10)

	topic := contracts.DeadLetterTopic(r.Topic)
	if err := s.sender.SendRaw(ctx, topic, r.Message.Key, r.Message.Value, headers); err != nil {
		s.log.Error("❌ No se pudo enviar el mensaje al dead-letter",
			zap.String("topic", topic),
			zap.Int64("offset", r.Message.Offset),
			zap.Error(err))
	}
}

// MultiSink reparte cada Result entre varios sinks en orden.
type MultiSink []ResultSink

func (m MultiSink) Report(ctx context.Context, r Result) {
	for _, s := range m {
		s.Report(ctx, r)
	}
}
