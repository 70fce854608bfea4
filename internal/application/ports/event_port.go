package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// EventSink puerto de salida para eventos de negocio. Solo se invoca después del commit;
// los consumidores (notificaciones, auditoría) viven fuera del núcleo.
type EventSink interface {
	Emit(ctx context.Context, events ...entity.DomainEvent) error
}

// NewEvent construye un evento con ID y marca de tiempo.
func NewEvent(eventType, aggregateID string, actor entity.Actor, at time.Time, payload map[string]any) entity.DomainEvent {
	return entity.DomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Actor:       actor,
		OccurredAt:  at.UTC(),
		Payload:     payload,
	}
}

// EmitAfterCommit emite sin propagar el error: la transacción ya está confirmada.
func EmitAfterCommit(ctx context.Context, sink EventSink, log zerolog.Logger, events ...entity.DomainEvent) {
	if sink == nil || len(events) == 0 {
		return
	}
	if err := sink.Emit(ctx, events...); err != nil {
		for _, ev := range events {
			log.Error().Err(err).
				Str("event_id", ev.ID).
				Str("event_type", ev.Type).
				Str("aggregate_id", ev.AggregateID).
				Msg("emisión de evento fallida")
		}
	}
}
