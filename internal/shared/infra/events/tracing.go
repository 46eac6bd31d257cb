package events

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/davicafu/latamtradex/internal/shared/infra/events"

// El contexto de traza viaja en las cabeceras del mensaje en formato W3C.
var propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func startPublishSpan(ctx context.Context, topic, key string, headers map[string]string) (context.Context, trace.Span) {
	ctx, span := tracer().Start(ctx, topic+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
			attribute.String("messaging.kafka.message.key", key),
		))
	propagator.Inject(ctx, propagation.MapCarrier(headers))
	return ctx, span
}

func startProcessSpan(ctx context.Context, m Message, handler string) (context.Context, trace.Span) {
	ctx = propagator.Extract(ctx, propagation.MapCarrier(m.Headers))
	return tracer().Start(ctx, m.Topic+" process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", m.Topic),
			attribute.Int("messaging.kafka.destination.partition", m.Partition),
			attribute.Int64("messaging.kafka.message.offset", m.Offset),
			attribute.String("messaging.handler", handler),
		))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
