package shift

import (
	"fmt"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// transitions tabla de aristas permitidas (origen -> destino -> evento).
// OPEN -> CLOSED queda reservada al cierre forzado.
var transitions = map[entity.ShiftStatus]map[entity.ShiftStatus]entity.ShiftEventType{
	entity.ShiftStatusOpen: {
		entity.ShiftStatusPaused:  entity.ShiftEventPause,
		entity.ShiftStatusClosing: entity.ShiftEventStartClosing,
		entity.ShiftStatusClosed:  entity.ShiftEventForceClose,
	},
	entity.ShiftStatusPaused: {
		entity.ShiftStatusOpen:    entity.ShiftEventResume,
		entity.ShiftStatusClosing: entity.ShiftEventStartClosing,
	},
	entity.ShiftStatusClosing: {
		entity.ShiftStatusClosed: entity.ShiftEventClose,
	},
}

// forceCloseSources estados desde los que el cierre forzado puede aplicar, en orden de intento.
var forceCloseSources = []entity.ShiftStatus{entity.ShiftStatusOpen, entity.ShiftStatusPaused}

// EventFor devuelve el tipo de evento de la arista from -> to o ErrInvalidTransition.
func EventFor(from, to entity.ShiftStatus) (entity.ShiftEventType, error) {
	if targets, ok := transitions[from]; ok {
		if ev, ok := targets[to]; ok {
			return ev, nil
		}
	}
	return "", fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// ForceCloseEventFor valida una arista del camino privilegiado de cierre forzado.
func ForceCloseEventFor(from entity.ShiftStatus) (entity.ShiftEventType, error) {
	for _, s := range forceCloseSources {
		if s == from {
			return entity.ShiftEventForceClose, nil
		}
	}
	return "", fmt.Errorf("%w: cierre forzado desde %s", domain.ErrInvalidTransition, from)
}

// ForceCloseSources estados de origen del cierre forzado (primario y respaldo).
func ForceCloseSources() []entity.ShiftStatus {
	return append([]entity.ShiftStatus(nil), forceCloseSources...)
}

// CanTransition indica si la arista existe en la tabla.
func CanTransition(from, to entity.ShiftStatus) bool {
	_, err := EventFor(from, to)
	return err == nil
}
