package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/internal/domain/shift"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// Config parámetros del ciclo de vida del turno.
type Config struct {
	// MaxEvents tope del log de eventos por turno (0 = entity.DefaultMaxShiftEvents).
	MaxEvents int
	// Now reloj inyectable; nil = time.Now.
	Now func() time.Time
}

// SideEffect se ejecuta dentro de la misma transacción tras una transición exitosa.
type SideEffect func(ctx context.Context, s repository.Stores, sh *entity.Shift) error

// UseCase máquina de estados del turno de una tienda.
// Toda transición es una escritura condicional (status = expected); si pierde la carrera devuelve ErrConflict.
type UseCase struct {
	tx        ports.TxRunner
	events    ports.EventSink
	log       zerolog.Logger
	maxEvents int
	now       func() time.Time
}

// NewUseCase construye el caso de uso de turnos.
func NewUseCase(tx ports.TxRunner, events ports.EventSink, log zerolog.Logger, cfg Config) *UseCase {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = entity.DefaultMaxShiftEvents
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &UseCase{
		tx:        tx,
		events:    events,
		log:       log.With().Str("component", "shift").Logger(),
		maxEvents: cfg.MaxEvents,
		now:       cfg.Now,
	}
}

// OpenShiftInput entrada para abrir un turno.
type OpenShiftInput struct {
	ShopID  string
	Actor   entity.Actor
	Comment string
}

// ShiftCommand entrada común de las transiciones con destino fijo (pause, resume, close...).
type ShiftCommand struct {
	ShiftID string
	Actor   entity.Actor
	Comment string
}

// TransitionInput entrada de una transición genérica expected -> target.
type TransitionInput struct {
	ShiftID  string
	Expected entity.ShiftStatus
	Target   entity.ShiftStatus
	Actor    entity.Actor
	Comment  string
}

// OpenShift crea el turno en OPEN con su evento semilla y lo asigna como turno actual de la tienda.
func (uc *UseCase) OpenShift(ctx context.Context, in OpenShiftInput) (*entity.Shift, error) {
	if in.ShopID == "" {
		return nil, fmt.Errorf("%w: shop_id requerido", domain.ErrValidation)
	}
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	comment := textnorm.Comment(in.Comment)
	sh := &entity.Shift{
		ID:       uuid.New().String(),
		ShopID:   in.ShopID,
		Status:   entity.ShiftStatusOpen,
		OpenedBy: in.Actor,
		OpenedAt: now,
		Events: []entity.ShiftEvent{{
			Type:    entity.ShiftEventOpen,
			At:      now,
			Actor:   in.Actor,
			Comment: comment,
		}},
		UpdatedAt: now,
	}

	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		shop, err := s.Shops.GetByID(ctx, in.ShopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, in.ShopID)
		}
		if shop.Status == entity.ShopStatusBlocked {
			return fmt.Errorf("%w: la tienda %s está bloqueada", domain.ErrInvariant, shop.ID)
		}
		if shop.CurrentShiftID != "" {
			current, err := s.Shifts.GetByID(ctx, shop.CurrentShiftID)
			if err != nil {
				return err
			}
			if current != nil && !current.Status.IsTerminal() {
				return fmt.Errorf("%w: la tienda ya tiene el turno %s en %s", domain.ErrInvariant, current.ID, current.Status)
			}
		}
		if err := s.Shifts.Create(ctx, sh); err != nil {
			return err
		}
		return s.Shops.SetCurrentShift(ctx, shop.ID, sh.ID, entity.ShopStatusOpened)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("shift_id", sh.ID).Str("shop_id", sh.ShopID).Str("actor_id", in.Actor.ID).Msg("turno abierto")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventShiftOpened, sh.ID, in.Actor, now, map[string]any{
		"shop_id": sh.ShopID,
		"comment": comment,
	}))
	return sh, nil
}

// Transition aplica una arista de la tabla (excepto el cierre forzado) y ejecuta sideEffect en la misma transacción.
func (uc *UseCase) Transition(ctx context.Context, in TransitionInput, sideEffect SideEffect) (*entity.Shift, error) {
	evType, err := shift.EventFor(in.Expected, in.Target)
	if err != nil {
		return nil, err
	}
	if evType == entity.ShiftEventForceClose {
		return nil, fmt.Errorf("%w: %s -> %s reservada al cierre forzado", domain.ErrInvalidTransition, in.Expected, in.Target)
	}
	if in.Target == entity.ShiftStatusClosed {
		sideEffect = chain(sideEffect, detachFromShop)
	}
	return uc.run(ctx, in, []entity.ShiftStatus{in.Expected}, evType, sideEffect)
}

// Pause OPEN -> PAUSED.
func (uc *UseCase) Pause(ctx context.Context, cmd ShiftCommand) (*entity.Shift, error) {
	return uc.Transition(ctx, cmd.to(entity.ShiftStatusOpen, entity.ShiftStatusPaused), nil)
}

// Resume PAUSED -> OPEN.
func (uc *UseCase) Resume(ctx context.Context, cmd ShiftCommand) (*entity.Shift, error) {
	return uc.Transition(ctx, cmd.to(entity.ShiftStatusPaused, entity.ShiftStatusOpen), nil)
}

// StartClosing OPEN|PAUSED -> CLOSING. El estado de origen es el leído en la propia transacción.
func (uc *UseCase) StartClosing(ctx context.Context, cmd ShiftCommand) (*entity.Shift, error) {
	var from entity.ShiftStatus
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		sh, err := s.Shifts.GetByID(ctx, cmd.ShiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return fmt.Errorf("%w: turno %s", domain.ErrNotFound, cmd.ShiftID)
		}
		from = sh.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.Transition(ctx, cmd.to(from, entity.ShiftStatusClosing), nil)
}

// Close CLOSING -> CLOSED; desvincula el turno de la tienda.
func (uc *UseCase) Close(ctx context.Context, cmd ShiftCommand) (*entity.Shift, error) {
	return uc.Transition(ctx, cmd.to(entity.ShiftStatusClosing, entity.ShiftStatusClosed), nil)
}

// ForceClose intenta OPEN -> CLOSED y, si esa guarda pierde por estado, reintenta una vez PAUSED -> CLOSED.
func (uc *UseCase) ForceClose(ctx context.Context, cmd ShiftCommand) (*entity.Shift, error) {
	in := cmd.to("", entity.ShiftStatusClosed)
	return uc.run(ctx, in, shift.ForceCloseSources(), entity.ShiftEventForceClose, detachFromShop)
}

// Get devuelve el turno o ErrNotFound.
func (uc *UseCase) Get(ctx context.Context, shiftID string) (*entity.Shift, error) {
	var out *entity.Shift
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		sh, err := s.Shifts.GetByID(ctx, shiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return fmt.Errorf("%w: turno %s", domain.ErrNotFound, shiftID)
		}
		out = sh
		return nil
	})
	return out, err
}

// ShopSeller devuelve el vendedor dueño de la tienda o ErrNotFound.
func (uc *UseCase) ShopSeller(ctx context.Context, shopID string) (string, error) {
	var sellerID string
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		shop, err := s.Shops.GetByID(ctx, shopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, shopID)
		}
		sellerID = shop.SellerID
		return nil
	})
	return sellerID, err
}

// List turnos filtrados y paginados.
func (uc *UseCase) List(ctx context.Context, filter repository.ShiftFilter, page repository.Page) ([]*entity.Shift, error) {
	var out []*entity.Shift
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Shifts.List(ctx, filter, page)
		return err
	})
	return out, err
}

// run ejecuta la escritura condicional probando cada estado de origen en orden.
// Solo un ErrConflict pasa al siguiente origen; NOT_FOUND y cualquier otro error se devuelven tal cual.
func (uc *UseCase) run(ctx context.Context, in TransitionInput, sources []entity.ShiftStatus, evType entity.ShiftEventType, sideEffect SideEffect) (*entity.Shift, error) {
	if in.ShiftID == "" {
		return nil, fmt.Errorf("%w: shift_id requerido", domain.ErrValidation)
	}
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	event := entity.ShiftEvent{Type: evType, At: now, Actor: in.Actor, Comment: textnorm.Comment(in.Comment)}

	var (
		updated *entity.Shift
		from    entity.ShiftStatus
	)
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var lastErr error
		for _, expected := range sources {
			upd := repository.ShiftStatusUpdate{
				ShiftID:   in.ShiftID,
				Expected:  expected,
				Target:    in.Target,
				Event:     event,
				MaxEvents: uc.maxEvents,
			}
			if in.Target == entity.ShiftStatusClosed {
				actor := in.Actor
				upd.ClosedBy = &actor
				upd.ClosedAt = &now
			}
			lastErr = uc.compareAndSet(ctx, s, upd)
			if lastErr == nil {
				from = expected
				break
			}
			if !errors.Is(lastErr, domain.ErrConflict) {
				return lastErr
			}
		}
		if lastErr != nil {
			return lastErr
		}
		sh, err := s.Shifts.GetByID(ctx, in.ShiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return fmt.Errorf("%w: turno %s", domain.ErrNotFound, in.ShiftID)
		}
		if sideEffect != nil {
			if err := sideEffect(ctx, s, sh); err != nil {
				return err
			}
		}
		updated = sh
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("shift_id", updated.ID).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Str("event", string(evType)).
		Str("actor_id", in.Actor.ID).
		Msg("transición de turno aplicada")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(eventName(evType), updated.ID, in.Actor, now, map[string]any{
		"shop_id": updated.ShopID,
		"from":    string(from),
		"to":      string(updated.Status),
		"comment": event.Comment,
	}))
	return updated, nil
}

// compareAndSet traduce "ninguna fila coincidió" en NOT_FOUND o CONFLICT según exista el turno.
func (uc *UseCase) compareAndSet(ctx context.Context, s repository.Stores, upd repository.ShiftStatusUpdate) error {
	ok, err := s.Shifts.CompareAndSetStatus(ctx, upd)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	cur, err := s.Shifts.GetByID(ctx, upd.ShiftID)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("%w: turno %s", domain.ErrNotFound, upd.ShiftID)
	}
	return fmt.Errorf("%w: turno %s en %s, se esperaba %s", domain.ErrConflict, cur.ID, cur.Status, upd.Expected)
}

// detachFromShop limpia currentShift de la tienda y la marca CLOSED si el turno cerrado era el actual.
func detachFromShop(ctx context.Context, s repository.Stores, sh *entity.Shift) error {
	shop, err := s.Shops.GetByID(ctx, sh.ShopID)
	if err != nil {
		return err
	}
	if shop == nil {
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, sh.ShopID)
	}
	if shop.CurrentShiftID != sh.ID {
		return nil
	}
	status := entity.ShopStatusClosed
	if shop.Status == entity.ShopStatusBlocked {
		status = shop.Status
	}
	return s.Shops.SetCurrentShift(ctx, shop.ID, "", status)
}

func chain(effects ...SideEffect) SideEffect {
	return func(ctx context.Context, s repository.Stores, sh *entity.Shift) error {
		for _, fx := range effects {
			if fx == nil {
				continue
			}
			if err := fx(ctx, s, sh); err != nil {
				return err
			}
		}
		return nil
	}
}

func (c ShiftCommand) to(from, target entity.ShiftStatus) TransitionInput {
	return TransitionInput{ShiftID: c.ShiftID, Expected: from, Target: target, Actor: c.Actor, Comment: c.Comment}
}

func eventName(t entity.ShiftEventType) string {
	switch t {
	case entity.ShiftEventPause:
		return entity.EventShiftPaused
	case entity.ShiftEventResume:
		return entity.EventShiftResumed
	case entity.ShiftEventStartClosing:
		return entity.EventShiftClosingStart
	case entity.ShiftEventClose:
		return entity.EventShiftClosed
	case entity.ShiftEventForceClose:
		return entity.EventShiftForceClosed
	default:
		return entity.EventShiftOpened
	}
}
