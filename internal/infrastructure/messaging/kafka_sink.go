package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/pkg/kafka"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

var (
	_ ports.EventSink = (*KafkaSink)(nil)
	_ ports.EventSink = (*LogSink)(nil)
)

// MessageWriter lo que el sink necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// KafkaSink publica los eventos directamente en Kafka (un topic por agregado, clave = id del agregado).
type KafkaSink struct {
	client  *kafka.Client
	writer  MessageWriter
	metrics *metrics.ServerMetrics
	log     zerolog.Logger
}

// NewKafkaSink construye el sink. metrics puede ser nil.
func NewKafkaSink(client *kafka.Client, writer MessageWriter, m *metrics.ServerMetrics, log zerolog.Logger) *KafkaSink {
	return &KafkaSink{client: client, writer: writer, metrics: m, log: log}
}

// Emit publica todos los eventos en una sola escritura.
func (s *KafkaSink) Emit(ctx context.Context, events ...entity.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, ev := range events {
		msg, err := kafka.Message(s.client.Topic(ev.Type), ev.AggregateID, ev)
		if err != nil {
			return fmt.Errorf("serializar evento %s: %w", ev.ID, err)
		}
		msgs = append(msgs, msg)
	}
	if err := s.writer.WriteMessages(ctx, msgs...); err != nil {
		for _, ev := range events {
			s.metrics.ObserveEvent(ev.Type, "error")
		}
		return fmt.Errorf("publicar eventos: %w", err)
	}
	for _, ev := range events {
		s.metrics.ObserveEvent(ev.Type, "ok")
		s.log.Debug().Str("event_id", ev.ID).Str("event_type", ev.Type).Msg("evento publicado")
	}
	return nil
}

// LogSink registra los eventos en el log estructurado (sin broker configurado).
type LogSink struct {
	metrics *metrics.ServerMetrics
	log     zerolog.Logger
}

// NewLogSink construye el sink de log.
func NewLogSink(m *metrics.ServerMetrics, log zerolog.Logger) *LogSink {
	return &LogSink{metrics: m, log: log}
}

// Emit nunca falla.
func (s *LogSink) Emit(_ context.Context, events ...entity.DomainEvent) error {
	for _, ev := range events {
		s.metrics.ObserveEvent(ev.Type, "logged")
		s.log.Info().
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			Str("aggregate_id", ev.AggregateID).
			Str("actor_id", ev.Actor.ID).
			Interface("payload", ev.Payload).
			Msg("evento de dominio")
	}
	return nil
}
