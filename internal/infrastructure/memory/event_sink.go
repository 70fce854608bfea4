package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

var _ ports.EventSink = (*EventRecorder)(nil)

// EventRecorder sink en memoria: guarda los eventos emitidos (tests y modo DB_DRIVER=memory).
type EventRecorder struct {
	mu     sync.Mutex
	events []entity.DomainEvent
	Err    error
}

// Emit registra los eventos; si Err está definido lo devuelve sin registrar.
func (r *EventRecorder) Emit(_ context.Context, events ...entity.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, events...)
	return nil
}

// Events copia de los eventos emitidos.
func (r *EventRecorder) Events() []entity.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.DomainEvent(nil), r.events...)
}

// Types tipos de los eventos emitidos, en orden.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
