package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopAccount cuenta de liquidación de una tienda (libro de la tienda).
type ShopAccount struct {
	ID                string
	ShopID            string
	SellerAccountID   string
	CommissionPercent decimal.Decimal
	CurrentPeriodID   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PeriodStatus estado del periodo de liquidación; las transiciones son en un solo sentido.
type PeriodStatus string

const (
	PeriodStatusActive          PeriodStatus = "ACTIVE"
	PeriodStatusPendingApproval PeriodStatus = "PENDING_APPROVAL"
	PeriodStatusReleased        PeriodStatus = "RELEASED"
)

// SettlementTransactionType tipos de asiento del libro de la tienda.
type SettlementTransactionType string

const (
	SettlementOrderIncome SettlementTransactionType = "ORDER_INCOME"
	SettlementCommission  SettlementTransactionType = "COMMISSION"
	SettlementOrderRefund SettlementTransactionType = "ORDER_REFUND"
	SettlementPenalty     SettlementTransactionType = "PENALTY"
)

// PeriodTotals acumulados del periodo (importes positivos; el tipo define el sentido).
type PeriodTotals struct {
	OrderIncome decimal.Decimal
	Commission  decimal.Decimal
	Refunds     decimal.Decimal
	Penalties   decimal.Decimal
}

// Add acumula un asiento en los totales.
func (t PeriodTotals) Add(kind SettlementTransactionType, amount decimal.Decimal) PeriodTotals {
	switch kind {
	case SettlementOrderIncome:
		t.OrderIncome = t.OrderIncome.Add(amount)
	case SettlementCommission:
		t.Commission = t.Commission.Add(amount)
	case SettlementOrderRefund:
		t.Refunds = t.Refunds.Add(amount)
	case SettlementPenalty:
		t.Penalties = t.Penalties.Add(amount)
	}
	return t
}

// Releasable importe a liberar al vendedor: ingresos netos menos reembolsos y penalizaciones.
func (t PeriodTotals) Releasable() decimal.Decimal {
	return t.OrderIncome.Sub(t.Refunds).Sub(t.Penalties)
}

// SettlementPeriod ventana contable de una ShopAccount.
type SettlementPeriod struct {
	ID             string
	ShopAccountID  string
	Number         int
	Status         PeriodStatus
	Totals         PeriodTotals
	ReleasedAmount decimal.Decimal
	StartedAt      time.Time
	ClosedAt       *time.Time
	ReleasedAt     *time.Time
	ApprovedBy     *Actor
	ApproveComment string
	UpdatedAt      time.Time
}

// SettlementTransaction asiento del libro de la tienda dentro de un periodo.
type SettlementTransaction struct {
	ID            string
	PeriodID      string
	ShopAccountID string
	Type          SettlementTransactionType
	Amount        decimal.Decimal
	OrderID       string
	Description   string
	CreatedAt     time.Time
}

// SellerAccount cuenta del vendedor; Balance nunca es negativo.
type SellerAccount struct {
	ID             string
	SellerID       string
	Balance        decimal.Decimal
	TotalEarned    decimal.Decimal
	TotalWithdrawn decimal.Decimal
	UpdatedAt      time.Time
}

// PlatformTransactionType tipos de asiento del libro de la plataforma.
type PlatformTransactionType string

const (
	PlatformCommissionIncome PlatformTransactionType = "COMMISSION_INCOME"
	PlatformSellerPayout     PlatformTransactionType = "SELLER_PAYOUT"
	PlatformRefundToCustomer PlatformTransactionType = "REFUND_TO_CUSTOMER"
	PlatformPenaltyIncome    PlatformTransactionType = "PENALTY_INCOME"
)

// IsCredit los ingresos suman al saldo de la plataforma, el resto resta.
func (t PlatformTransactionType) IsCredit() bool {
	return t == PlatformCommissionIncome || t == PlatformPenaltyIncome
}

// PlatformAccount libro de la plataforma (único).
type PlatformAccount struct {
	ID              string
	Balance         decimal.Decimal
	TotalCommission decimal.Decimal
	TotalPayouts    decimal.Decimal
	TotalRefunds    decimal.Decimal
	TotalPenalties  decimal.Decimal
	UpdatedAt       time.Time
}

// Apply aplica un asiento a los acumulados de la plataforma.
func (a PlatformAccount) Apply(kind PlatformTransactionType, amount decimal.Decimal) PlatformAccount {
	switch kind {
	case PlatformCommissionIncome:
		a.TotalCommission = a.TotalCommission.Add(amount)
	case PlatformSellerPayout:
		a.TotalPayouts = a.TotalPayouts.Add(amount)
	case PlatformRefundToCustomer:
		a.TotalRefunds = a.TotalRefunds.Add(amount)
	case PlatformPenaltyIncome:
		a.TotalPenalties = a.TotalPenalties.Add(amount)
	}
	if kind.IsCredit() {
		a.Balance = a.Balance.Add(amount)
	} else {
		a.Balance = a.Balance.Sub(amount)
	}
	return a
}

// PlatformTransaction asiento del libro de la plataforma.
type PlatformTransaction struct {
	ID            string
	Type          PlatformTransactionType
	Amount        decimal.Decimal
	ShopAccountID string
	OrderID       string
	ReferenceID   string
	Description   string
	CreatedAt     time.Time
}

// WithdrawalStatus estado de una solicitud de retiro.
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "PENDING"
	WithdrawalApproved WithdrawalStatus = "APPROVED"
	WithdrawalRejected WithdrawalStatus = "REJECTED"
)

// Withdrawal solicitud de retiro del vendedor.
type Withdrawal struct {
	ID              string
	SellerAccountID string
	Amount          decimal.Decimal
	Status          WithdrawalStatus
	RequestedBy     Actor
	ProcessedBy     *Actor
	Comment         string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}
