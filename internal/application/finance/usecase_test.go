package finance_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	adminActor  = entity.Actor{ID: "adm-1", Role: entity.RoleAdmin}
	sellerActor = entity.Actor{ID: "seller-1", Role: entity.RoleSeller}
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	store   *memory.Store
	events  *memory.EventRecorder
	uc      *finance.UseCase
	account *entity.ShopAccount
}

func newFixture(t *testing.T, commission string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Run(ctx, func(s repository.Stores) error {
		return s.Sellers.Create(ctx, &entity.SellerAccount{ID: "sa-1", SellerID: "seller-1"})
	}))
	events := &memory.EventRecorder{}
	uc := finance.NewUseCase(store, events, zerolog.Nop(), finance.Config{})
	account, err := uc.OpenShopAccount(ctx, finance.OpenShopAccountInput{ShopID: "shop-1", SellerAccountID: "sa-1", CommissionPercent: d(commission)})
	require.NoError(t, err)
	return &fixture{store: store, events: events, uc: uc, account: account}
}

func (f *fixture) periodTotals(t *testing.T, periodID string) (income, commission decimal.Decimal) {
	t.Helper()
	txs, err := f.uc.ListPeriodTransactions(context.Background(), periodID, repository.Page{Limit: 200})
	require.NoError(t, err)
	income, commission = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case entity.SettlementOrderIncome:
			income = income.Add(tx.Amount)
		case entity.SettlementCommission:
			commission = commission.Add(tx.Amount)
		}
	}
	return income, commission
}

func (f *fixture) platformSum(t *testing.T, kind entity.PlatformTransactionType) decimal.Decimal {
	t.Helper()
	txs, err := f.uc.ListPlatformTransactions(context.Background(), repository.Page{Limit: 200})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, tx := range txs {
		if tx.Type == kind {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum
}

// ──────────────────────────────────────────────────────────────────────────────
// Ingresos por pedido
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordOrderIncome_PartidaDoble(t *testing.T) {
	cases := []struct {
		name       string
		commission string
		amount     string
		explicit   *decimal.Decimal
		wantComm   string
	}{
		{name: "porcentaje", commission: "12", amount: "1250", wantComm: "150"},
		{name: "porcentaje con redondeo", commission: "7.5", amount: "333", wantComm: "25"},
		{name: "comisión explícita", commission: "12", amount: "1000", explicit: ptr(d("40")), wantComm: "40"},
		{name: "sin comisión", commission: "0", amount: "500", wantComm: "0"},
		{name: "monto fraccionario con comisión explícita", commission: "12", amount: "100.5", explicit: ptr(d("10")), wantComm: "10"},
		{name: "monto fraccionario por porcentaje", commission: "10", amount: "1234.567", wantComm: "123"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.commission)
			res, err := f.uc.RecordOrderIncome(context.Background(), finance.RecordOrderIncomeInput{
				ShopAccountID: f.account.ID, OrderID: "order-1", OrderAmount: d(tc.amount), CommissionAmount: tc.explicit,
			})
			require.NoError(t, err)
			assert.True(t, d(tc.wantComm).Equal(res.Split.Commission), "comisión %s", res.Split.Commission)

			income, commission := f.periodTotals(t, res.PeriodID)
			assert.True(t, income.Add(commission).Equal(d(tc.amount)), "ORDER_INCOME + COMMISSION = monto")
			assert.True(t, f.platformSum(t, entity.PlatformCommissionIncome).Equal(commission), "COMMISSION_INCOME = COMMISSION")

			period, err := f.uc.GetPeriod(context.Background(), res.PeriodID)
			require.NoError(t, err)
			assert.True(t, period.Totals.OrderIncome.Equal(income))
			assert.True(t, period.Totals.Commission.Equal(commission))
		})
	}
}

func TestRecordOrderIncome_MontoInvalido(t *testing.T) {
	f := newFixture(t, "10")
	_, err := f.uc.RecordOrderIncome(context.Background(), finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o", OrderAmount: d("0")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.RecordOrderIncome(context.Background(), finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o", OrderAmount: d("100"), CommissionAmount: ptr(d("101"))})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.RecordOrderIncome(context.Background(), finance.RecordOrderIncomeInput{ShopAccountID: "nope", OrderID: "o", OrderAmount: d("100")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodos de liquidación
// ──────────────────────────────────────────────────────────────────────────────

func TestPeriodos_CerrarAbreSucesorYAprobarAcredita(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	first := f.account.CurrentPeriodID

	_, err := f.uc.RecordOrderIncome(ctx, finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o-1", OrderAmount: d("1000")})
	require.NoError(t, err)
	_, err = f.uc.ProcessRefund(ctx, finance.AdjustmentInput{ShopAccountID: f.account.ID, OrderID: "o-1", Amount: d("100"), Reason: "producto dañado", Actor: adminActor})
	require.NoError(t, err)
	_, err = f.uc.ApplyPenalty(ctx, finance.AdjustmentInput{ShopAccountID: f.account.ID, Amount: d("50"), Reason: "demora", Actor: adminActor})
	require.NoError(t, err)

	tr, err := f.uc.CloseSettlementPeriod(ctx, finance.PeriodCommand{PeriodID: first, Actor: adminActor})
	require.NoError(t, err)
	assert.Equal(t, entity.PeriodStatusPendingApproval, tr.Closed.Status)
	assert.True(t, d("750").Equal(tr.Closed.ReleasedAmount), "900 neto - 100 reembolso - 50 penalización")
	assert.Equal(t, entity.PeriodStatusActive, tr.Next.Status)
	assert.Equal(t, 2, tr.Next.Number)

	// El siguiente ingreso cae en el periodo nuevo.
	res, err := f.uc.RecordOrderIncome(ctx, finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o-2", OrderAmount: d("200")})
	require.NoError(t, err)
	assert.Equal(t, tr.Next.ID, res.PeriodID)

	_, err = f.uc.CloseSettlementPeriod(ctx, finance.PeriodCommand{PeriodID: first, Actor: adminActor})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	released, err := f.uc.ApproveSettlementPeriod(ctx, finance.PeriodCommand{PeriodID: first, Actor: adminActor, Comment: "ok"})
	require.NoError(t, err)
	assert.Equal(t, entity.PeriodStatusReleased, released.Status)
	require.NotNil(t, released.ApprovedBy)

	seller, err := f.uc.GetSellerAccount(ctx, "sa-1")
	require.NoError(t, err)
	assert.True(t, d("750").Equal(seller.Balance))
	assert.True(t, d("750").Equal(f.platformSum(t, entity.PlatformSellerPayout)))

	platform, err := f.uc.GetPlatformAccount(ctx)
	require.NoError(t, err)
	// 100 + 20 comisión + 50 penalización - 100 reembolso - 750 pago
	assert.True(t, d("-680").Equal(platform.Balance), "saldo %s", platform.Balance)

	assert.Contains(t, f.events.Types(), entity.EventPeriodApproved)
}

// stalePeriods simula una lectura sin bloqueo que no ve un ingreso confirmado por otra tx.
type stalePeriods struct {
	repository.SettlementPeriodRepository
	stale *entity.SettlementPeriod
}

func (p stalePeriods) GetByID(ctx context.Context, id string) (*entity.SettlementPeriod, error) {
	if id == p.stale.ID {
		cp := *p.stale
		return &cp, nil
	}
	return p.SettlementPeriodRepository.GetByID(ctx, id)
}

type staleReadTx struct {
	store *memory.Store
	stale *entity.SettlementPeriod
}

func (r staleReadTx) Run(ctx context.Context, fn func(s repository.Stores) error) error {
	return r.store.Run(ctx, func(s repository.Stores) error {
		s.Periods = stalePeriods{SettlementPeriodRepository: s.Periods, stale: r.stale}
		return fn(s)
	})
}

func TestCerrarPeriodo_LiberaLosTotalesLeidosConBloqueo(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	periodID := f.account.CurrentPeriodID

	_, err := f.uc.RecordOrderIncome(ctx, finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o-1", OrderAmount: d("100")})
	require.NoError(t, err)
	snapshot, err := f.uc.GetPeriod(ctx, periodID)
	require.NoError(t, err)
	// Ingreso que llega mientras otra tx cierra el periodo.
	_, err = f.uc.RecordOrderIncome(ctx, finance.RecordOrderIncomeInput{ShopAccountID: f.account.ID, OrderID: "o-2", OrderAmount: d("200")})
	require.NoError(t, err)

	uc := finance.NewUseCase(staleReadTx{store: f.store, stale: snapshot}, f.events, zerolog.Nop(), finance.Config{})
	tr, err := uc.CloseSettlementPeriod(ctx, finance.PeriodCommand{PeriodID: periodID, Actor: adminActor})
	require.NoError(t, err)
	assert.True(t, d("270").Equal(tr.Closed.ReleasedAmount), "90 + 180 neto, liberado %s", tr.Closed.ReleasedAmount)

	released, err := uc.ApproveSettlementPeriod(ctx, finance.PeriodCommand{PeriodID: periodID, Actor: adminActor})
	require.NoError(t, err)
	assert.True(t, d("270").Equal(released.ReleasedAmount))
}

func TestAprobarPeriodoActivoEsTransicionInvalida(t *testing.T) {
	f := newFixture(t, "10")
	_, err := f.uc.ApproveSettlementPeriod(context.Background(), finance.PeriodCommand{PeriodID: f.account.CurrentPeriodID, Actor: adminActor})
	assert.Equal(t, domain.KindInvalidTransition, domain.Kind(err))
}

// ──────────────────────────────────────────────────────────────────────────────
// Retiros
// ──────────────────────────────────────────────────────────────────────────────

func fund(t *testing.T, f *fixture, amount string) {
	t.Helper()
	require.NoError(t, f.store.Run(context.Background(), func(s repository.Stores) error {
		return s.Sellers.AdjustBalance(context.Background(), "sa-1", d(amount))
	}))
}

func TestRetiro_AprobarDebitaYRegistraPago(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	fund(t, f, "500")

	w, err := f.uc.CreateWithdrawalRequest(ctx, finance.CreateWithdrawalInput{SellerAccountID: "sa-1", Amount: d("300"), Actor: sellerActor})
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalPending, w.Status)

	seller, err := f.uc.GetSellerAccount(ctx, "sa-1")
	require.NoError(t, err)
	assert.True(t, d("500").Equal(seller.Balance), "la solicitud no mueve dinero")

	approved, err := f.uc.ApproveWithdrawal(ctx, finance.WithdrawalCommand{WithdrawalID: w.ID, Actor: adminActor})
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalApproved, approved.Status)

	seller, err = f.uc.GetSellerAccount(ctx, "sa-1")
	require.NoError(t, err)
	assert.True(t, d("200").Equal(seller.Balance))
	assert.True(t, d("300").Equal(seller.TotalWithdrawn))
	assert.True(t, d("300").Equal(f.platformSum(t, entity.PlatformSellerPayout)))

	_, err = f.uc.RejectWithdrawal(ctx, finance.WithdrawalCommand{WithdrawalID: w.ID, Actor: adminActor})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRetiro_SaldoInsuficiente(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	fund(t, f, "100")
	_, err := f.uc.CreateWithdrawalRequest(ctx, finance.CreateWithdrawalInput{SellerAccountID: "sa-1", Amount: d("150"), Actor: sellerActor})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestRetiro_AprobacionSinFondosRevierteTodo(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	fund(t, f, "100")
	w1, err := f.uc.CreateWithdrawalRequest(ctx, finance.CreateWithdrawalInput{SellerAccountID: "sa-1", Amount: d("80"), Actor: sellerActor})
	require.NoError(t, err)
	w2, err := f.uc.CreateWithdrawalRequest(ctx, finance.CreateWithdrawalInput{SellerAccountID: "sa-1", Amount: d("80"), Actor: sellerActor})
	require.NoError(t, err)

	_, err = f.uc.ApproveWithdrawal(ctx, finance.WithdrawalCommand{WithdrawalID: w1.ID, Actor: adminActor})
	require.NoError(t, err)
	_, err = f.uc.ApproveWithdrawal(ctx, finance.WithdrawalCommand{WithdrawalID: w2.ID, Actor: adminActor})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	pending, err := f.uc.ListWithdrawals(ctx, repository.WithdrawalFilter{SellerAccountID: "sa-1", Status: entity.WithdrawalPending}, repository.Page{})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, w2.ID, pending[0].ID)
	assert.True(t, d("80").Equal(f.platformSum(t, entity.PlatformSellerPayout)))
}

func TestRetiro_Rechazar(t *testing.T) {
	f := newFixture(t, "10")
	ctx := context.Background()
	fund(t, f, "100")
	w, err := f.uc.CreateWithdrawalRequest(ctx, finance.CreateWithdrawalInput{SellerAccountID: "sa-1", Amount: d("50"), Actor: sellerActor})
	require.NoError(t, err)

	rejected, err := f.uc.RejectWithdrawal(ctx, finance.WithdrawalCommand{WithdrawalID: w.ID, Actor: adminActor, Comment: "datos bancarios inválidos"})
	require.NoError(t, err)
	assert.Equal(t, entity.WithdrawalRejected, rejected.Status)

	seller, err := f.uc.GetSellerAccount(ctx, "sa-1")
	require.NoError(t, err)
	assert.True(t, d("100").Equal(seller.Balance))
}

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }
