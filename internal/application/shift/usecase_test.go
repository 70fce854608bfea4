package shift_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/application/shift"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	employee = entity.Actor{ID: "emp-1", Role: entity.RoleEmployee, Name: "Ana"}
	admin    = entity.Actor{ID: "adm-1", Role: entity.RoleAdmin}
)

type fixture struct {
	store  *memory.Store
	events *memory.EventRecorder
	uc     *shift.UseCase
}

func newFixture(t *testing.T, cfg shift.Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Run(context.Background(), func(s repository.Stores) error {
		return s.Shops.Create(context.Background(), &entity.Shop{ID: "shop-1", SellerID: "seller-1", Name: "Frutería", Status: entity.ShopStatusClosed})
	}))
	events := &memory.EventRecorder{}
	return &fixture{store: store, events: events, uc: shift.NewUseCase(store, events, zerolog.Nop(), cfg)}
}

func (f *fixture) open(t *testing.T) *entity.Shift {
	t.Helper()
	sh, err := f.uc.OpenShift(context.Background(), shift.OpenShiftInput{ShopID: "shop-1", Actor: employee})
	require.NoError(t, err)
	return sh
}

func (f *fixture) shop(t *testing.T) *entity.Shop {
	t.Helper()
	var out *entity.Shop
	require.NoError(t, f.store.View(func(s repository.Stores) error {
		var err error
		out, err = s.Shops.GetByID(context.Background(), "shop-1")
		return err
	}))
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Apertura
// ──────────────────────────────────────────────────────────────────────────────

func TestOpenShift_AsignaTurnoActualALaTienda(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)

	assert.Equal(t, entity.ShiftStatusOpen, sh.Status)
	require.Len(t, sh.Events, 1)
	assert.Equal(t, entity.ShiftEventOpen, sh.Events[0].Type)

	shop := f.shop(t)
	assert.Equal(t, sh.ID, shop.CurrentShiftID)
	assert.Equal(t, entity.ShopStatusOpened, shop.Status)
	assert.Equal(t, []string{entity.EventShiftOpened}, f.events.Types())
}

func TestOpenShift_RechazaSegundoTurnoActivo(t *testing.T) {
	f := newFixture(t, shift.Config{})
	f.open(t)

	_, err := f.uc.OpenShift(context.Background(), shift.OpenShiftInput{ShopID: "shop-1", Actor: employee})
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

func TestOpenShift_TiendaInexistente(t *testing.T) {
	f := newFixture(t, shift.Config{})
	_, err := f.uc.OpenShift(context.Background(), shift.OpenShiftInput{ShopID: "nope", Actor: employee})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestPause_ConcurrenteSoloUnoGana(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Pause(context.Background(), shift.ShiftCommand{ShiftID: sh.ID, Actor: employee})
		}(i)
	}
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case domain.Kind(err) == domain.KindConflict:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	got, err := f.uc.Get(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftStatusPaused, got.Status)
	assert.Equal(t, 1, got.CountEvents(entity.ShiftEventPause))
}

func TestTransition_AristaInvalida(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)

	_, err := f.uc.Transition(context.Background(), shift.TransitionInput{
		ShiftID: sh.ID, Expected: entity.ShiftStatusOpen, Target: entity.ShiftStatusOpen, Actor: employee,
	}, nil)
	assert.Equal(t, domain.KindInvalidTransition, domain.Kind(err))
}

func TestTransition_OpenACerradoReservadaAlCierreForzado(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)

	_, err := f.uc.Transition(context.Background(), shift.TransitionInput{
		ShiftID: sh.ID, Expected: entity.ShiftStatusOpen, Target: entity.ShiftStatusClosed, Actor: employee,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_TurnoInexistente(t *testing.T) {
	f := newFixture(t, shift.Config{})
	_, err := f.uc.Pause(context.Background(), shift.ShiftCommand{ShiftID: "missing", Actor: employee})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransition_SideEffectFallidoRevierteTodo(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)

	boom := func(context.Context, repository.Stores, *entity.Shift) error { return assert.AnError }
	_, err := f.uc.Transition(context.Background(), shift.TransitionInput{
		ShiftID: sh.ID, Expected: entity.ShiftStatusOpen, Target: entity.ShiftStatusPaused, Actor: employee,
	}, boom)
	require.ErrorIs(t, err, assert.AnError)

	got, err := f.uc.Get(context.Background(), sh.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftStatusOpen, got.Status)
	assert.Equal(t, 0, got.CountEvents(entity.ShiftEventPause))
}

func TestCicloCompleto_CierreDesvinculaTienda(t *testing.T) {
	f := newFixture(t, shift.Config{})
	ctx := context.Background()
	sh := f.open(t)
	cmd := shift.ShiftCommand{ShiftID: sh.ID, Actor: employee}

	_, err := f.uc.Pause(ctx, cmd)
	require.NoError(t, err)
	_, err = f.uc.Resume(ctx, cmd)
	require.NoError(t, err)
	_, err = f.uc.StartClosing(ctx, cmd)
	require.NoError(t, err)
	closed, err := f.uc.Close(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, entity.ShiftStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, employee.ID, closed.ClosedBy.ID)
	assert.NotNil(t, closed.ClosedAt)

	shop := f.shop(t)
	assert.Empty(t, shop.CurrentShiftID)
	assert.Equal(t, entity.ShopStatusClosed, shop.Status)

	_, err = f.uc.Resume(ctx, cmd)
	assert.Equal(t, domain.KindConflict, domain.Kind(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Cierre forzado
// ──────────────────────────────────────────────────────────────────────────────

func TestForceClose_DesdePausadoUsaGuardaDeRespaldo(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)
	_, err := f.uc.Pause(context.Background(), shift.ShiftCommand{ShiftID: sh.ID, Actor: employee})
	require.NoError(t, err)

	closed, err := f.uc.ForceClose(context.Background(), shift.ShiftCommand{ShiftID: sh.ID, Actor: admin, Comment: "emergencia"})
	require.NoError(t, err)
	assert.Equal(t, entity.ShiftStatusClosed, closed.Status)
	assert.Equal(t, entity.ShiftEventForceClose, closed.LastEvent().Type)
	assert.Empty(t, f.shop(t).CurrentShiftID)
	assert.Contains(t, f.events.Types(), entity.EventShiftForceClosed)
}

func TestForceClose_DesdeCerrandoEsConflicto(t *testing.T) {
	f := newFixture(t, shift.Config{})
	sh := f.open(t)
	_, err := f.uc.StartClosing(context.Background(), shift.ShiftCommand{ShiftID: sh.ID, Actor: employee})
	require.NoError(t, err)

	_, err = f.uc.ForceClose(context.Background(), shift.ShiftCommand{ShiftID: sh.ID, Actor: admin})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ──────────────────────────────────────────────────────────────────────────────
// Log de eventos
// ──────────────────────────────────────────────────────────────────────────────

func TestEventos_SeRecortanAlTope(t *testing.T) {
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f := newFixture(t, shift.Config{MaxEvents: 5, Now: func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}})
	ctx := context.Background()
	sh := f.open(t)
	cmd := shift.ShiftCommand{ShiftID: sh.ID, Actor: employee}
	for i := 0; i < 4; i++ {
		_, err := f.uc.Pause(ctx, cmd)
		require.NoError(t, err)
		_, err = f.uc.Resume(ctx, cmd)
		require.NoError(t, err)
	}

	got, err := f.uc.Get(ctx, sh.ID)
	require.NoError(t, err)
	require.Len(t, got.Events, 5)
	assert.Equal(t, 0, got.CountEvents(entity.ShiftEventOpen), "el evento semilla es el primero en podarse")
	assert.Equal(t, entity.ShiftEventResume, got.LastEvent().Type)
}

func TestShopSeller_DevuelveDuenoONotFound(t *testing.T) {
	f := newFixture(t, shift.Config{})

	seller, err := f.uc.ShopSeller(context.Background(), "shop-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", seller)

	_, err = f.uc.ShopSeller(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
