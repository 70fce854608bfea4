package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// ShopAccountRepository puerto del libro de la tienda.
type ShopAccountRepository interface {
	Create(ctx context.Context, account *entity.ShopAccount) error
	GetByID(ctx context.Context, id string) (*entity.ShopAccount, error)
	GetByShopID(ctx context.Context, shopID string) (*entity.ShopAccount, error)
	SetCurrentPeriod(ctx context.Context, accountID, periodID string) error
}

// PeriodStatusUpdate transición condicional del periodo.
type PeriodStatusUpdate struct {
	PeriodID       string
	Expected       entity.PeriodStatus
	Target         entity.PeriodStatus
	ReleasedAmount *decimal.Decimal
	ClosedAt       *time.Time
	ReleasedAt     *time.Time
	ApprovedBy     *entity.Actor
	ApproveComment string
}

// SettlementPeriodFilter filtro de periodos.
type SettlementPeriodFilter struct {
	ShopAccountID string
	Status        entity.PeriodStatus
}

// SettlementPeriodRepository puerto de periodos de liquidación y sus asientos.
type SettlementPeriodRepository interface {
	Create(ctx context.Context, period *entity.SettlementPeriod) error
	GetByID(ctx context.Context, id string) (*entity.SettlementPeriod, error)
	// GetByIDForUpdate bloquea el periodo hasta el fin de la tx: los totales leídos no cambian antes del cambio de estado.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.SettlementPeriod, error)
	GetActiveByShopAccount(ctx context.Context, shopAccountID string) (*entity.SettlementPeriod, error)
	List(ctx context.Context, filter SettlementPeriodFilter, page Page) ([]*entity.SettlementPeriod, error)
	CompareAndSetStatus(ctx context.Context, upd PeriodStatusUpdate) (bool, error)
	// AddTransaction inserta el asiento y acumula su importe en los totales del periodo.
	AddTransaction(ctx context.Context, tx *entity.SettlementTransaction) error
	ListTransactions(ctx context.Context, periodID string, page Page) ([]*entity.SettlementTransaction, error)
}

// SellerAccountRepository puerto de cuentas de vendedor.
type SellerAccountRepository interface {
	Create(ctx context.Context, account *entity.SellerAccount) error
	GetByID(ctx context.Context, id string) (*entity.SellerAccount, error)
	// AdjustBalance suma delta al saldo (y a TotalEarned/TotalWithdrawn según el signo);
	// falla con ErrInsufficientFunds si el saldo quedaría negativo.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
}

// PlatformAccountRepository puerto del libro de la plataforma.
type PlatformAccountRepository interface {
	Get(ctx context.Context) (*entity.PlatformAccount, error)
	// CreateTransaction inserta el asiento y actualiza saldo y acumulados.
	CreateTransaction(ctx context.Context, tx *entity.PlatformTransaction) error
	ListTransactions(ctx context.Context, page Page) ([]*entity.PlatformTransaction, error)
}

// WithdrawalFilter filtro de retiros.
type WithdrawalFilter struct {
	SellerAccountID string
	Status          entity.WithdrawalStatus
}

// WithdrawalRepository puerto de solicitudes de retiro.
type WithdrawalRepository interface {
	Create(ctx context.Context, w *entity.Withdrawal) error
	GetByID(ctx context.Context, id string) (*entity.Withdrawal, error)
	List(ctx context.Context, filter WithdrawalFilter, page Page) ([]*entity.Withdrawal, error)
	// UpdateIfStatus persiste la solicitud solo si su estado almacenado es expected.
	UpdateIfStatus(ctx context.Context, w *entity.Withdrawal, expected entity.WithdrawalStatus) (bool, error)
}
