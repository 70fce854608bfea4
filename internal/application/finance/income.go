package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/finance"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// RecordOrderIncomeInput ingreso de un pedido entregado. CommissionAmount nil = porcentaje de la cuenta.
type RecordOrderIncomeInput struct {
	ShopAccountID    string
	OrderID          string
	OrderAmount      decimal.Decimal
	CommissionAmount *decimal.Decimal
}

// IncomeResult reparto registrado y periodo donde quedó.
type IncomeResult struct {
	PeriodID string
	Split    finance.CommissionSplit
}

// RecordOrderIncome registra en una transacción ORDER_INCOME (neto) y COMMISSION en el libro de la tienda
// y COMMISSION_INCOME en la plataforma: ORDER_INCOME + COMMISSION = monto y COMMISSION_INCOME = COMMISSION.
func (uc *UseCase) RecordOrderIncome(ctx context.Context, in RecordOrderIncomeInput) (*IncomeResult, error) {
	if in.OrderID == "" {
		return nil, fmt.Errorf("%w: order_id requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	var out IncomeResult
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		account, err := requireShopAccount(ctx, s, in.ShopAccountID)
		if err != nil {
			return err
		}
		split, err := finance.SplitCommission(in.OrderAmount, account.CommissionPercent, in.CommissionAmount)
		if err != nil {
			return err
		}
		period, err := activePeriod(ctx, s, account)
		if err != nil {
			return err
		}
		if err := s.Periods.AddTransaction(ctx, &entity.SettlementTransaction{
			ID:            uuid.New().String(),
			PeriodID:      period.ID,
			ShopAccountID: account.ID,
			Type:          entity.SettlementOrderIncome,
			Amount:        split.NetIncome,
			OrderID:       in.OrderID,
			Description:   "ingreso del pedido " + in.OrderID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		if err := postPair(ctx, s, period, entity.SettlementCommission, entity.PlatformCommissionIncome,
			split.Commission, in.OrderID, "comisión del pedido "+in.OrderID, now); err != nil {
			return err
		}
		out = IncomeResult{PeriodID: period.ID, Split: split}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", in.OrderID).Str("period_id", out.PeriodID).
		Str("net_income", out.Split.NetIncome.String()).Str("commission", out.Split.Commission.String()).
		Msg("ingreso de pedido registrado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderIncome, in.OrderID, entity.SystemActor, now, map[string]any{
		"shop_account_id": in.ShopAccountID,
		"period_id":       out.PeriodID,
		"order_amount":    out.Split.OrderAmount.String(),
		"commission":      out.Split.Commission.String(),
		"net_income":      out.Split.NetIncome.String(),
	}))
	return &out, nil
}

// AdjustmentInput reembolso o penalización sobre la cuenta de una tienda.
type AdjustmentInput struct {
	ShopAccountID string
	OrderID       string
	Amount        decimal.Decimal
	Reason        string
	Actor         entity.Actor
}

// ProcessRefund registra ORDER_REFUND en la tienda y REFUND_TO_CUSTOMER en la plataforma.
func (uc *UseCase) ProcessRefund(ctx context.Context, in AdjustmentInput) (*entity.SettlementPeriod, error) {
	return uc.adjust(ctx, in, entity.SettlementOrderRefund, entity.PlatformRefundToCustomer, entity.EventRefundProcessed, "reembolso")
}

// ApplyPenalty registra PENALTY en la tienda y PENALTY_INCOME en la plataforma.
func (uc *UseCase) ApplyPenalty(ctx context.Context, in AdjustmentInput) (*entity.SettlementPeriod, error) {
	return uc.adjust(ctx, in, entity.SettlementPenalty, entity.PlatformPenaltyIncome, entity.EventPenaltyApplied, "penalización")
}

func (uc *UseCase) adjust(ctx context.Context, in AdjustmentInput, shopType entity.SettlementTransactionType,
	platformType entity.PlatformTransactionType, eventType, label string) (*entity.SettlementPeriod, error) {
	amount, err := positiveAmount(in.Amount, "el importe de "+label)
	if err != nil {
		return nil, err
	}
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	reason := comment(in.Reason)
	var period *entity.SettlementPeriod
	err = uc.tx.Run(ctx, func(s repository.Stores) error {
		account, err := requireShopAccount(ctx, s, in.ShopAccountID)
		if err != nil {
			return err
		}
		p, err := activePeriod(ctx, s, account)
		if err != nil {
			return err
		}
		if err := postPair(ctx, s, p, shopType, platformType, amount, in.OrderID, reason, now); err != nil {
			return err
		}
		period, err = s.Periods.GetByID(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("shop_account_id", in.ShopAccountID).Str("order_id", in.OrderID).
		Str("amount", amount.String()).Str("kind", string(shopType)).Msg(label + " registrado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(eventType, in.ShopAccountID, in.Actor, now, map[string]any{
		"period_id": period.ID,
		"order_id":  in.OrderID,
		"amount":    amount.String(),
		"reason":    reason,
	}))
	return period, nil
}
