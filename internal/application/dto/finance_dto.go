package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// OpenShopAccountRequest body para POST /api/finance/shop-accounts.
type OpenShopAccountRequest struct {
	ShopID            string          `json:"shop_id" validate:"required"`
	SellerAccountID   string          `json:"seller_account_id" validate:"required"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
}

// PeriodCommandRequest comentario del cierre o la aprobación.
type PeriodCommandRequest struct {
	Comment string `json:"comment"`
}

// AdjustmentRequest reembolso o penalización.
type AdjustmentRequest struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Reason  string          `json:"reason"`
}

// CreateWithdrawalRequest body para POST /api/finance/withdrawals.
type CreateWithdrawalRequest struct {
	SellerAccountID string          `json:"seller_account_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Comment         string          `json:"comment"`
}

// WithdrawalCommandRequest comentario de aprobación o rechazo.
type WithdrawalCommandRequest struct {
	Comment string `json:"comment"`
}

// ShopAccountResponse cuenta de liquidación de una tienda.
type ShopAccountResponse struct {
	ID                string          `json:"id"`
	ShopID            string          `json:"shop_id"`
	SellerAccountID   string          `json:"seller_account_id"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	CurrentPeriodID   string          `json:"current_period_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ShopAccountFromEntity convierte la cuenta del dominio.
func ShopAccountFromEntity(a *entity.ShopAccount) ShopAccountResponse {
	return ShopAccountResponse{
		ID: a.ID, ShopID: a.ShopID, SellerAccountID: a.SellerAccountID,
		CommissionPercent: a.CommissionPercent, CurrentPeriodID: a.CurrentPeriodID, CreatedAt: a.CreatedAt.UTC(),
	}
}

// PeriodResponse periodo de liquidación.
type PeriodResponse struct {
	ID             string          `json:"id"`
	ShopAccountID  string          `json:"shop_account_id"`
	Number         int             `json:"number"`
	Status         string          `json:"status"`
	OrderIncome    decimal.Decimal `json:"order_income"`
	Commission     decimal.Decimal `json:"commission"`
	Refunds        decimal.Decimal `json:"refunds"`
	Penalties      decimal.Decimal `json:"penalties"`
	ReleasedAmount decimal.Decimal `json:"released_amount"`
	StartedAt      time.Time       `json:"started_at"`
	ClosedAt       *time.Time      `json:"closed_at,omitempty"`
	ReleasedAt     *time.Time      `json:"released_at,omitempty"`
	ApprovedBy     *ActorResponse  `json:"approved_by,omitempty"`
	ApproveComment string          `json:"approve_comment,omitempty"`
}

// PeriodFromEntity convierte el periodo del dominio.
func PeriodFromEntity(p *entity.SettlementPeriod) PeriodResponse {
	return PeriodResponse{
		ID: p.ID, ShopAccountID: p.ShopAccountID, Number: p.Number, Status: string(p.Status),
		OrderIncome: p.Totals.OrderIncome, Commission: p.Totals.Commission,
		Refunds: p.Totals.Refunds, Penalties: p.Totals.Penalties,
		ReleasedAmount: p.ReleasedAmount, StartedAt: p.StartedAt.UTC(),
		ClosedAt: timePtr(p.ClosedAt), ReleasedAt: timePtr(p.ReleasedAt),
		ApprovedBy: actorPtr(p.ApprovedBy), ApproveComment: p.ApproveComment,
	}
}

// PeriodTransitionResponse periodo cerrado y su sucesor.
type PeriodTransitionResponse struct {
	Closed PeriodResponse `json:"closed"`
	Next   PeriodResponse `json:"next"`
}

// SettlementTransactionResponse asiento del libro de la tienda.
type SettlementTransactionResponse struct {
	ID          string          `json:"id"`
	PeriodID    string          `json:"period_id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	OrderID     string          `json:"order_id,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SettlementTransactionFromEntity convierte el asiento del dominio.
func SettlementTransactionFromEntity(t *entity.SettlementTransaction) SettlementTransactionResponse {
	return SettlementTransactionResponse{
		ID: t.ID, PeriodID: t.PeriodID, Type: string(t.Type), Amount: t.Amount,
		OrderID: t.OrderID, Description: t.Description, CreatedAt: t.CreatedAt.UTC(),
	}
}

// SellerAccountResponse cuenta del vendedor.
type SellerAccountResponse struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	Balance        decimal.Decimal `json:"balance"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
}

// SellerAccountFromEntity convierte la cuenta del vendedor.
func SellerAccountFromEntity(a *entity.SellerAccount) SellerAccountResponse {
	return SellerAccountResponse{ID: a.ID, SellerID: a.SellerID, Balance: a.Balance, TotalEarned: a.TotalEarned, TotalWithdrawn: a.TotalWithdrawn}
}

// PlatformAccountResponse libro de la plataforma.
type PlatformAccountResponse struct {
	Balance         decimal.Decimal `json:"balance"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	TotalPayouts    decimal.Decimal `json:"total_payouts"`
	TotalRefunds    decimal.Decimal `json:"total_refunds"`
	TotalPenalties  decimal.Decimal `json:"total_penalties"`
}

// PlatformAccountFromEntity convierte el libro de la plataforma.
func PlatformAccountFromEntity(a *entity.PlatformAccount) PlatformAccountResponse {
	return PlatformAccountResponse{
		Balance: a.Balance, TotalCommission: a.TotalCommission, TotalPayouts: a.TotalPayouts,
		TotalRefunds: a.TotalRefunds, TotalPenalties: a.TotalPenalties,
	}
}

// PlatformTransactionResponse asiento del libro de la plataforma.
type PlatformTransactionResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	ShopAccountID string          `json:"shop_account_id,omitempty"`
	OrderID       string          `json:"order_id,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PlatformTransactionFromEntity convierte el asiento de la plataforma.
func PlatformTransactionFromEntity(t *entity.PlatformTransaction) PlatformTransactionResponse {
	return PlatformTransactionResponse{
		ID: t.ID, Type: string(t.Type), Amount: t.Amount, ShopAccountID: t.ShopAccountID,
		OrderID: t.OrderID, ReferenceID: t.ReferenceID, Description: t.Description, CreatedAt: t.CreatedAt.UTC(),
	}
}

// WithdrawalResponse solicitud de retiro.
type WithdrawalResponse struct {
	ID              string          `json:"id"`
	SellerAccountID string          `json:"seller_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	RequestedBy     ActorResponse   `json:"requested_by"`
	ProcessedBy     *ActorResponse  `json:"processed_by,omitempty"`
	Comment         string          `json:"comment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
}

// WithdrawalFromEntity convierte la solicitud del dominio.
func WithdrawalFromEntity(w *entity.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID: w.ID, SellerAccountID: w.SellerAccountID, Amount: w.Amount, Status: string(w.Status),
		RequestedBy: actorResponse(w.RequestedBy), ProcessedBy: actorPtr(w.ProcessedBy),
		Comment: w.Comment, CreatedAt: w.CreatedAt.UTC(), ProcessedAt: timePtr(w.ProcessedAt),
	}
}
