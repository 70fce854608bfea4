package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/pkg/kafka"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
	"github.com/jhoicas/marketplace-api/pkg/outbox"
)

var _ ports.EventSink = (*OutboxSink)(nil)

// OutboxSink persiste los eventos en el outbox; el Relay los publica después.
// Los eventos sobreviven a una caída del broker.
type OutboxSink struct {
	store   outbox.Store
	client  *kafka.Client
	metrics *metrics.ServerMetrics
}

// NewOutboxSink construye el sink.
func NewOutboxSink(store outbox.Store, client *kafka.Client, m *metrics.ServerMetrics) *OutboxSink {
	return &OutboxSink{store: store, client: client, metrics: m}
}

// Emit encola todos los eventos en una sola escritura.
func (s *OutboxSink) Emit(ctx context.Context, events ...entity.DomainEvent) error {
	records := make([]outbox.Record, 0, len(events))
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", ev.ID, err)
		}
		records = append(records, outbox.Record{
			EventID:   ev.ID,
			Topic:     s.client.Topic(ev.Type),
			Key:       ev.AggregateID,
			Payload:   payload,
			CreatedAt: ev.OccurredAt,
		})
	}
	if err := s.store.Insert(ctx, records...); err != nil {
		return err
	}
	for _, ev := range events {
		s.metrics.ObserveEvent(ev.Type, "queued")
	}
	return nil
}

// RelayConfig parámetros del ciclo de publicación.
type RelayConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Relay publica en Kafka los registros pendientes del outbox y los marca como enviados.
// Entrega al menos una vez: si MarkSent falla, el lote se reenvía en el siguiente ciclo.
type Relay struct {
	store   outbox.Store
	writer  MessageWriter
	cfg     RelayConfig
	metrics *metrics.ServerMetrics
	log     zerolog.Logger
}

// NewRelay construye el relay con valores por defecto para intervalos o lotes no positivos.
func NewRelay(store outbox.Store, writer MessageWriter, cfg RelayConfig, m *metrics.ServerMetrics, log zerolog.Logger) *Relay {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{store: store, writer: writer, cfg: cfg, metrics: m, log: log}
}

// Run itera hasta que ctx se cancela.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	r.log.Info().Dur("interval", r.cfg.Interval).Int("batch", r.cfg.BatchSize).Msg("relay de outbox iniciado")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("relay de outbox detenido")
			return
		case <-ticker.C:
			if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
				r.log.Error().Err(err).Msg("ciclo de relay fallido")
			}
		}
	}
}

// Flush publica un lote y devuelve cuántos registros se enviaron.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	pending, err := r.store.FetchPending(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if r.metrics != nil {
		r.metrics.OutboxPending.Set(float64(len(pending)))
	}
	if len(pending) == 0 {
		return 0, nil
	}
	msgs := make([]kafkago.Message, 0, len(pending))
	ids := make([]int64, 0, len(pending))
	for _, rec := range pending {
		msgs = append(msgs, kafkago.Message{Topic: rec.Topic, Key: []byte(rec.Key), Value: rec.Payload, Time: rec.CreatedAt})
		ids = append(ids, rec.ID)
	}
	if err := r.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publicar lote del outbox: %w", err)
	}
	if err := r.store.MarkSent(ctx, ids...); err != nil {
		return 0, fmt.Errorf("marcar outbox enviado: %w", err)
	}
	r.log.Debug().Int("count", len(ids)).Msg("lote de outbox publicado")
	return len(ids), nil
}
