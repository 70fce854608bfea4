package inventory_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	clerk = entity.Actor{ID: "emp-1", Role: entity.RoleEmployee}
	day   = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	store  *memory.Store
	events *memory.EventRecorder
	uc     *inventory.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Run(ctx, func(s repository.Stores) error {
		for _, shop := range []*entity.Shop{
			{ID: "shop-1", Name: "Centro", Status: entity.ShopStatusOpened},
			{ID: "shop-2", Name: "Norte", Status: entity.ShopStatusOpened},
		} {
			if err := s.Shops.Create(ctx, shop); err != nil {
				return err
			}
		}
		for _, p := range []*entity.ShopProduct{
			{ID: "sp-apple", ShopID: "shop-1", ProductID: "apple", Name: "Manzana", Price: d("30"), StockQuantity: d("10"), Status: entity.ShopProductActive},
			{ID: "sp-pear", ShopID: "shop-1", ProductID: "pear", Name: "Pera", Price: d("40"), StockQuantity: d("5"), Status: entity.ShopProductActive},
			{ID: "sp-other", ShopID: "shop-2", ProductID: "pear", Name: "Pera", Price: d("40"), StockQuantity: d("1"), Status: entity.ShopProductActive},
		} {
			if err := s.ShopProducts.Create(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))
	events := &memory.EventRecorder{}
	uc := inventory.NewUseCase(store, events, inventory.NewStockLedger(), zerolog.Nop(), inventory.Config{Now: func() time.Time { return day }})
	return &fixture{store: store, events: events, uc: uc}
}

func (f *fixture) stock(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	var out decimal.Decimal
	require.NoError(t, f.store.View(func(s repository.Stores) error {
		p, err := s.ShopProducts.GetByID(context.Background(), id)
		if err != nil {
			return err
		}
		require.NotNil(t, p, id)
		out = p.StockQuantity
		return nil
	}))
	return out
}

func (f *fixture) movements(t *testing.T, docID string) []*entity.StockMovement {
	t.Helper()
	out, err := f.uc.MovementHistory(context.Background(), repository.StockMovementFilter{DocumentID: docID}, repository.Page{})
	require.NoError(t, err)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Bajas
// ──────────────────────────────────────────────────────────────────────────────

func TestWriteOff_ConfirmarDescuentaYRegistraSaldo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo, err := f.uc.CreateWriteOff(ctx, inventory.CreateWriteOffInput{
		ShopID: "shop-1", Reason: "merma", Actor: clerk,
		Items: []entity.WriteOffItem{{ShopProductID: "sp-apple", Quantity: d("3")}, {ShopProductID: "sp-pear", Quantity: d("1.5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "WO-20260302-0001", wo.Number)
	assert.True(t, d("10").Equal(f.stock(t, "sp-apple")), "el borrador no toca stock")

	confirmed, err := f.uc.ConfirmWriteOff(ctx, inventory.DocumentCommand{DocumentID: wo.ID, Actor: clerk})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusConfirmed, confirmed.Status)

	assert.True(t, d("7").Equal(f.stock(t, "sp-apple")))
	assert.True(t, d("3.5").Equal(f.stock(t, "sp-pear")))

	movs := f.movements(t, wo.ID)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, entity.MovementWriteOff, m.Type)
		assert.True(t, m.IsBalanced())
		assert.True(t, m.BalanceAfter.Equal(f.stock(t, m.ShopProductID)))
		require.NoError(t, f.uc.VerifyBalance(ctx, m.ShopProductID))
	}
	assert.Equal(t, []string{entity.EventWriteOffConfirmed}, f.events.Types())
}

func TestWriteOff_FaltanteNoAplicaNada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo, err := f.uc.CreateWriteOff(ctx, inventory.CreateWriteOffInput{
		ShopID: "shop-1", Actor: clerk,
		Items: []entity.WriteOffItem{{ShopProductID: "sp-apple", Quantity: d("2")}, {ShopProductID: "sp-pear", Quantity: d("6")}},
	})
	require.NoError(t, err)

	_, err = f.uc.ConfirmWriteOff(ctx, inventory.DocumentCommand{DocumentID: wo.ID, Actor: clerk})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.Kind(err))
	var shortfall *domain.ShortfallError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, "sp-pear", shortfall.ProductID)
	assert.True(t, d("1").Equal(shortfall.Shortfall()))

	assert.True(t, d("10").Equal(f.stock(t, "sp-apple")))
	assert.Empty(t, f.movements(t, wo.ID))
	got, err := f.uc.GetWriteOff(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, got.Status, "el rollback deja el acta en borrador")
	assert.Empty(t, f.events.Types())
}

func TestWriteOff_ProductoDeOtraTienda(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateWriteOff(context.Background(), inventory.CreateWriteOffInput{
		ShopID: "shop-1", Actor: clerk,
		Items: []entity.WriteOffItem{{ShopProductID: "sp-other", Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestWriteOff_SegundaConfirmacionEsTransicionInvalida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo, err := f.uc.CreateWriteOff(ctx, inventory.CreateWriteOffInput{
		ShopID: "shop-1", Actor: clerk, Items: []entity.WriteOffItem{{ShopProductID: "sp-apple", Quantity: d("1")}},
	})
	require.NoError(t, err)
	_, err = f.uc.ConfirmWriteOff(ctx, inventory.DocumentCommand{DocumentID: wo.ID, Actor: clerk})
	require.NoError(t, err)

	_, err = f.uc.ConfirmWriteOff(ctx, inventory.DocumentCommand{DocumentID: wo.ID, Actor: clerk})
	assert.Equal(t, domain.KindInvalidTransition, domain.Kind(err))
	_, err = f.uc.CancelWriteOff(ctx, inventory.DocumentCommand{DocumentID: wo.ID, Actor: clerk})
	assert.ErrorIs(t, err, domain.ErrInvariant)
	assert.True(t, d("9").Equal(f.stock(t, "sp-apple")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepciones
// ──────────────────────────────────────────────────────────────────────────────

func TestReceiving_SumaActualYOmiteLineasEnCero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rc, err := f.uc.CreateReceiving(ctx, inventory.CreateReceivingInput{
		ShopID: "shop-1", Supplier: "Huerta S.A.", Actor: clerk,
		Items: []entity.ReceivingItem{
			{ShopProductID: "sp-apple", ExpectedQuantity: d("20"), ActualQuantity: d("20")},
			{ShopProductID: "sp-pear", ExpectedQuantity: d("4"), ActualQuantity: d("4")},
		},
	})
	require.NoError(t, err)

	confirmed, err := f.uc.ConfirmReceiving(ctx, inventory.ConfirmReceivingInput{
		DocumentCommand:  inventory.DocumentCommand{DocumentID: rc.ID, Actor: clerk},
		ActualQuantities: map[string]decimal.Decimal{"sp-apple": d("18"), "sp-pear": d("0")},
	})
	require.NoError(t, err)
	assert.True(t, d("18").Equal(confirmed.TotalActual()))

	assert.True(t, d("28").Equal(f.stock(t, "sp-apple")))
	assert.True(t, d("5").Equal(f.stock(t, "sp-pear")))

	movs := f.movements(t, rc.ID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementReceiving, movs[0].Type)
	assert.True(t, d("10").Equal(movs[0].BalanceBefore))
	assert.True(t, d("28").Equal(movs[0].BalanceAfter))
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_EnviarYRecibir(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.uc.CreateTransfer(ctx, inventory.CreateTransferInput{
		SourceShopID: "shop-1", TargetShopID: "shop-2", Actor: clerk,
		Items: []inventory.TransferLine{{ProductID: "apple", Quantity: d("4")}, {ProductID: "pear", Quantity: d("2")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "TR-20260302-0001", tr.Number)

	_, err = f.uc.SendTransfer(ctx, inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk})
	require.NoError(t, err)
	assert.True(t, d("6").Equal(f.stock(t, "sp-apple")))
	assert.True(t, d("3").Equal(f.stock(t, "sp-pear")))

	received, err := f.uc.ReceiveTransfer(ctx, inventory.ReceiveTransferInput{
		DocumentCommand:    inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk},
		ReceivedQuantities: map[string]decimal.Decimal{"pear": d("1")},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusReceived, received.Status)

	assert.True(t, d("2").Equal(f.stock(t, "sp-other")), "la pera existente en destino suma lo recibido")
	var appleTarget string
	for _, it := range received.Items {
		if it.ProductID == "apple" {
			appleTarget = it.TargetShopProductID
		}
	}
	require.NotEmpty(t, appleTarget)
	assert.True(t, d("4").Equal(f.stock(t, appleTarget)), "la manzana se crea en destino")

	movs := f.movements(t, tr.ID)
	assert.Len(t, movs, 4)
	assert.Equal(t, []string{entity.EventTransferSent, entity.EventTransferReceived, entity.EventTransferLoss}, f.events.Types())
}

func TestTransfer_FaltanteEnTransitoQuedaRegistrado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.uc.CreateTransfer(ctx, inventory.CreateTransferInput{
		SourceShopID: "shop-1", TargetShopID: "shop-2", Actor: clerk,
		Items: []inventory.TransferLine{{ProductID: "apple", Quantity: d("4")}, {ProductID: "pear", Quantity: d("2.5")}},
	})
	require.NoError(t, err)
	_, err = f.uc.SendTransfer(ctx, inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk})
	require.NoError(t, err)

	received, err := f.uc.ReceiveTransfer(ctx, inventory.ReceiveTransferInput{
		DocumentCommand:    inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk},
		ReceivedQuantities: map[string]decimal.Decimal{"pear": d("1")},
	})
	require.NoError(t, err)

	lost := map[string]decimal.Decimal{}
	for _, it := range received.Items {
		lost[it.ProductID] = it.LostQuantity
	}
	assert.True(t, lost["apple"].IsZero())
	assert.True(t, d("1.5").Equal(lost["pear"]), "pera perdida %s", lost["pear"])

	// El documento guardado conserva el faltante.
	stored, err := f.uc.GetTransfer(ctx, tr.ID)
	require.NoError(t, err)
	for _, it := range stored.Items {
		if it.ProductID == "pear" {
			assert.True(t, d("1.5").Equal(it.LostQuantity))
		}
	}

	var loss *entity.DomainEvent
	events := f.events.Events()
	for i := range events {
		if events[i].Type == entity.EventTransferLoss {
			loss = &events[i]
		}
	}
	require.NotNil(t, loss, "evento de faltante emitido")
	assert.Equal(t, tr.ID, loss.AggregateID)
	lines, ok := loss.Payload["lines"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, lines, 1)
	assert.Equal(t, "pear", lines[0]["product_id"])
	assert.Equal(t, "1.5", lines[0]["lost"])
	assert.Equal(t, "sp-pear", lines[0]["source_shop_product_id"])
}

func TestTransfer_RecepcionCompletaSinEventoDeFaltante(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.uc.CreateTransfer(ctx, inventory.CreateTransferInput{
		SourceShopID: "shop-1", TargetShopID: "shop-2", Actor: clerk,
		Items: []inventory.TransferLine{{ProductID: "apple", Quantity: d("3")}},
	})
	require.NoError(t, err)
	_, err = f.uc.SendTransfer(ctx, inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk})
	require.NoError(t, err)
	_, err = f.uc.ReceiveTransfer(ctx, inventory.ReceiveTransferInput{DocumentCommand: inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk}})
	require.NoError(t, err)
	assert.NotContains(t, f.events.Types(), entity.EventTransferLoss)
}

func TestTransfer_RecibirSinEnviar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.uc.CreateTransfer(ctx, inventory.CreateTransferInput{
		SourceShopID: "shop-1", TargetShopID: "shop-2", Actor: clerk,
		Items: []inventory.TransferLine{{ProductID: "apple", Quantity: d("1")}},
	})
	require.NoError(t, err)
	_, err = f.uc.ReceiveTransfer(ctx, inventory.ReceiveTransferInput{DocumentCommand: inventory.DocumentCommand{DocumentID: tr.ID, Actor: clerk}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransfer_MismaTienda(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.CreateTransfer(context.Background(), inventory.CreateTransferInput{
		SourceShopID: "shop-1", TargetShopID: "shop-1", Actor: clerk,
		Items: []inventory.TransferLine{{ProductID: "apple", Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario físico
// ──────────────────────────────────────────────────────────────────────────────

func TestAudit_AplicarResultados(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	au, err := f.uc.CreateAudit(ctx, inventory.CreateAuditInput{ShopID: "shop-1", Actor: clerk})
	require.NoError(t, err)
	require.Len(t, au.Items, 2)

	_, err = f.uc.CompleteAudit(ctx, inventory.CompleteAuditInput{DocumentCommand: inventory.DocumentCommand{DocumentID: au.ID, Actor: clerk}, ApplyResults: true})
	assert.ErrorIs(t, err, domain.ErrValidation, "no se completa sin todos los conteos")

	_, err = f.uc.UpdateAuditCounts(ctx, inventory.UpdateAuditCountsInput{
		DocumentID: au.ID, Actor: clerk,
		Counts: map[string]decimal.Decimal{"sp-apple": d("12"), "sp-pear": d("4")},
	})
	require.NoError(t, err)

	done, err := f.uc.CompleteAudit(ctx, inventory.CompleteAuditInput{DocumentCommand: inventory.DocumentCommand{DocumentID: au.ID, Actor: clerk}, ApplyResults: true})
	require.NoError(t, err)
	assert.True(t, done.ResultsApplied)
	assert.Len(t, done.Discrepancies(), 2)

	assert.True(t, d("12").Equal(f.stock(t, "sp-apple")))
	assert.True(t, d("4").Equal(f.stock(t, "sp-pear")))

	types := map[string]entity.MovementType{}
	for _, m := range f.movements(t, au.ID) {
		types[m.ShopProductID] = m.Type
	}
	assert.Equal(t, entity.MovementReceiving, types["sp-apple"])
	assert.Equal(t, entity.MovementWriteOff, types["sp-pear"])
}

func TestAudit_SinListaIncluyeTodoElCatalogo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Run(ctx, func(s repository.Stores) error {
		for i := 0; i < 450; i++ {
			if err := s.ShopProducts.Create(ctx, &entity.ShopProduct{
				ID: fmt.Sprintf("sp-bulk-%03d", i), ShopID: "shop-1", ProductID: fmt.Sprintf("bulk-%03d", i),
				Name: "Granel", Price: d("1"), StockQuantity: d("1"), Status: entity.ShopProductActive,
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	au, err := f.uc.CreateAudit(ctx, inventory.CreateAuditInput{ShopID: "shop-1", Actor: clerk})
	require.NoError(t, err)
	assert.Len(t, au.Items, 452, "2 productos base + 450 a granel, sin tope de página")
}

func TestAudit_SoloInformativoNoTocaStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	au, err := f.uc.CreateAudit(ctx, inventory.CreateAuditInput{ShopID: "shop-1", ShopProductIDs: []string{"sp-apple"}, Actor: clerk})
	require.NoError(t, err)
	_, err = f.uc.UpdateAuditCounts(ctx, inventory.UpdateAuditCountsInput{DocumentID: au.ID, Actor: clerk, Counts: map[string]decimal.Decimal{"sp-apple": d("8")}})
	require.NoError(t, err)

	done, err := f.uc.CompleteAudit(ctx, inventory.CompleteAuditInput{DocumentCommand: inventory.DocumentCommand{DocumentID: au.ID, Actor: clerk}})
	require.NoError(t, err)
	require.Len(t, done.Items, 1)
	assert.True(t, d("-2").Equal(done.Items[0].Difference))
	assert.False(t, done.ResultsApplied)
	assert.True(t, d("10").Equal(f.stock(t, "sp-apple")))
	assert.Empty(t, f.movements(t, au.ID))
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro
// ──────────────────────────────────────────────────────────────────────────────

func TestStockLedger_RechazaFilaDescuadrada(t *testing.T) {
	f := newFixture(t)
	ledger := inventory.NewStockLedger()
	err := f.store.Run(context.Background(), func(s repository.Stores) error {
		return ledger.RecordMovements(context.Background(), s, []*entity.StockMovement{{
			ShopProductID: "sp-apple", Quantity: d("1"), BalanceBefore: d("10"), BalanceAfter: d("12"),
		}})
	})
	assert.ErrorIs(t, err, domain.ErrInvariant)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reposición
// ──────────────────────────────────────────────────────────────────────────────

// post aplica un movimiento del libro en la fecha indicada (días antes de day).
func (f *fixture) post(t *testing.T, shopProductID string, typ entity.MovementType, delta string, daysAgo int) {
	t.Helper()
	ledger := inventory.NewStockLedger()
	require.NoError(t, f.store.Run(context.Background(), func(s repository.Stores) error {
		_, err := ledger.Apply(context.Background(), s, inventory.StockChange{
			ShopID:       "shop-1",
			Actor:        clerk,
			DocumentType: entity.DocumentOrder,
			DocumentID:   "doc-" + shopProductID,
			At:           day.AddDate(0, 0, -daysAgo),
			Lines:        []inventory.StockLine{{ShopProductID: shopProductID, Delta: d(delta), Type: typ}},
		})
		return err
	}))
}

func TestReplenishment_VentasNetasEnLaVentana(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Run(context.Background(), func(s repository.Stores) error {
		return s.ShopProducts.Create(context.Background(), &entity.ShopProduct{
			ID: "sp-plum", ShopID: "shop-1", ProductID: "plum", Name: "Ciruela", Price: d("20"), StockQuantity: d("50"), Status: entity.ShopProductActive,
		})
	}))

	// Manzana: 10 -> 110 -> 70 (fuera de ventana) -> 40 -> 45 -> 10; vendido en ventana 30 - 5 + 35 = 60.
	f.post(t, "sp-apple", entity.MovementReceiving, "100", 25)
	f.post(t, "sp-apple", entity.MovementOrderReservation, "-40", 15)
	f.post(t, "sp-apple", entity.MovementOrderReservation, "-30", 5)
	f.post(t, "sp-apple", entity.MovementOrderReturn, "5", 4)
	f.post(t, "sp-apple", entity.MovementOrderReservation, "-35", 2)
	// Pera pesada: 5 -> 1.3; vendido 3.7.
	f.post(t, "sp-pear", entity.MovementOrderReservation, "-3.7", 1)
	// Ciruela con stock de sobra: no se sugiere.
	f.post(t, "sp-plum", entity.MovementOrderReservation, "-3", 1)

	list, err := f.uc.Replenishment(context.Background(), inventory.ReplenishmentInput{ShopID: "shop-1", WindowDays: 10, CoverageDays: 5})
	require.NoError(t, err)

	want := []struct {
		id, stock, sold, rate, reorder, ideal, suggested string
		priority                                        int
	}{
		// 60 / 10 = 6 diario; 6 x 5 = 30; 30 x 1.5 = 45; déficit 20.
		{"sp-apple", "10", "60", "6", "30", "45", "35", 1},
		// 3.7 / 10 = 0.37; 1.85 -> 2; 3 -> 3; déficit 0.7.
		{"sp-pear", "1.3", "3.7", "0.37", "2", "3", "1.7", 2},
	}
	require.Len(t, list, len(want))
	for i, w := range want {
		got := list[i]
		assert.Equal(t, w.id, got.ShopProductID)
		assert.True(t, d(w.stock).Equal(got.CurrentStock), "%s stock %s", w.id, got.CurrentStock)
		assert.True(t, d(w.sold).Equal(got.UnitsSold), "%s vendido %s", w.id, got.UnitsSold)
		assert.True(t, d(w.rate).Equal(got.DailyRate), "%s consumo %s", w.id, got.DailyRate)
		assert.True(t, d(w.reorder).Equal(got.ReorderPoint), "%s reorden %s", w.id, got.ReorderPoint)
		assert.True(t, d(w.ideal).Equal(got.IdealStock), "%s ideal %s", w.id, got.IdealStock)
		assert.True(t, d(w.suggested).Equal(got.SuggestedOrderQty), "%s sugerido %s", w.id, got.SuggestedOrderQty)
		assert.Equal(t, w.priority, got.Priority)
	}
}

func TestReplenishment_TiendaInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Replenishment(context.Background(), inventory.ReplenishmentInput{ShopID: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
