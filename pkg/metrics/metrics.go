package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics métricas del servicio. Cada instancia usa su propio registro
// para que varias puedan convivir (tests, múltiples apps en un proceso).
type ServerMetrics struct {
	Requests      *prometheus.CounterVec
	LatencyMS     *prometheus.HistogramVec
	Transactions  *prometheus.CounterVec
	EventsEmitted *prometheus.CounterVec
	OutboxPending prometheus.Gauge
	registry      *prometheus.Registry
}

// NewServerMetrics registra las métricas bajo el namespace marketplace y el subsistema del servicio.
func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total de peticiones HTTP.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "Latencia de peticiones HTTP en milisegundos.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	txs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: service,
		Name:      "db_transactions_total",
		Help:      "Transacciones de BD por resultado (commit, rollback, error).",
	}, []string{"outcome"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: service,
		Name:      "events_emitted_total",
		Help:      "Eventos de dominio emitidos por tipo y resultado.",
	}, []string{"type", "status"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "marketplace",
		Subsystem: service,
		Name:      "outbox_pending",
		Help:      "Registros del outbox leídos en el último ciclo del relay.",
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests, latency, txs, events, pending,
	)
	return &ServerMetrics{
		Requests:      requests,
		LatencyMS:     latency,
		Transactions:  txs,
		EventsEmitted: events,
		OutboxPending: pending,
		registry:      reg,
	}
}

// ObserveTx cuenta el resultado de una transacción. Un nil receiver no hace nada.
func (m *ServerMetrics) ObserveTx(outcome string) {
	if m == nil {
		return
	}
	m.Transactions.WithLabelValues(outcome).Inc()
}

// ObserveEvent cuenta un evento emitido.
func (m *ServerMetrics) ObserveEvent(eventType, status string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(eventType, status).Inc()
}

// Handler expone el registro en formato Prometheus.
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer registro subyacente (para tests).
func (m *ServerMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
