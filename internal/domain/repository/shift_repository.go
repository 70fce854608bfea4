package repository

import (
	"context"
	"time"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// ShiftFilter filtro para listados de turnos.
type ShiftFilter struct {
	ShopID string
	Status entity.ShiftStatus
}

// ShiftStatusUpdate actualización condicional de estado: aplica solo si el estado actual es Expected.
type ShiftStatusUpdate struct {
	ShiftID   string
	Expected  entity.ShiftStatus
	Target    entity.ShiftStatus
	Event     entity.ShiftEvent
	MaxEvents int
	ClosedBy  *entity.Actor
	ClosedAt  *time.Time
}

// ShiftRepository puerto de persistencia para turnos.
type ShiftRepository interface {
	Create(ctx context.Context, shift *entity.Shift) error
	GetByID(ctx context.Context, id string) (*entity.Shift, error)
	List(ctx context.Context, filter ShiftFilter, page Page) ([]*entity.Shift, error)
	// CompareAndSetStatus cambia el estado y agrega el evento en una sola escritura condicional.
	// Devuelve false si ninguna fila coincidió (no existe o el estado no era Expected).
	CompareAndSetStatus(ctx context.Context, upd ShiftStatusUpdate) (bool, error)
	IncrementStatistics(ctx context.Context, shiftID string, delta entity.ShiftStatisticsDelta) error
}
