package events

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics agrupa los colectores de mensajería: mensajes publicados y resultados de handlers.
type Metrics struct {
	published       *prometheus.CounterVec
	handlerResults  *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
}

// NewMetrics registra los colectores en reg. Si ya estaban registrados (varios componentes
// del mismo proceso) reutiliza los existentes.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		published: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latamtradex",
			Subsystem: "messaging",
			Name:      "published_total",
			Help:      "Mensajes publicados por topic y resultado.",
		}, []string{"topic", "result"})),
		handlerResults: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latamtradex",
			Subsystem: "messaging",
			Name:      "handler_results_total",
			Help:      "Resultados de handlers por topic, handler y outcome.",
		}, []string{"topic", "handler", "outcome"})),
		handlerDuration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "latamtradex",
			Subsystem: "messaging",
			Name:      "handler_duration_seconds",
			Help:      "Duración de cada invocación de handler.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"topic", "handler"})),
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observePublish(topic string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(topic, result).Inc()
}
