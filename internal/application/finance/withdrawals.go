package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// CreateWithdrawalInput solicitud de retiro del vendedor.
type CreateWithdrawalInput struct {
	SellerAccountID string
	Amount          decimal.Decimal
	Comment         string
	Actor           entity.Actor
}

// WithdrawalCommand aprobación o rechazo de una solicitud.
type WithdrawalCommand struct {
	WithdrawalID string
	Actor        entity.Actor
	Comment      string
}

// CreateWithdrawalRequest crea la solicitud en PENDING; no mueve dinero.
func (uc *UseCase) CreateWithdrawalRequest(ctx context.Context, in CreateWithdrawalInput) (*entity.Withdrawal, error) {
	amount, err := positiveAmount(in.Amount, "el importe del retiro")
	if err != nil {
		return nil, err
	}
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	w := &entity.Withdrawal{
		ID:              uuid.New().String(),
		SellerAccountID: in.SellerAccountID,
		Amount:          amount,
		Status:          entity.WithdrawalPending,
		RequestedBy:     in.Actor,
		Comment:         comment(in.Comment),
		CreatedAt:       now,
	}
	err = uc.tx.Run(ctx, func(s repository.Stores) error {
		seller, err := s.Sellers.GetByID(ctx, in.SellerAccountID)
		if err != nil {
			return err
		}
		if seller == nil {
			return fmt.Errorf("%w: cuenta de vendedor %s", domain.ErrNotFound, in.SellerAccountID)
		}
		if seller.Balance.LessThan(amount) {
			return fmt.Errorf("%w: saldo %s, solicitado %s", domain.ErrInsufficientFunds, seller.Balance, amount)
		}
		return s.Withdrawals.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("withdrawal_id", w.ID).Str("seller_account_id", w.SellerAccountID).Str("amount", amount.String()).Msg("retiro solicitado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventWithdrawalCreated, w.ID, in.Actor, now, map[string]any{
		"seller_account_id": w.SellerAccountID,
		"amount":            amount.String(),
	}))
	return w, nil
}

// ApproveWithdrawal PENDING -> APPROVED: debita al vendedor y registra SELLER_PAYOUT en la plataforma.
func (uc *UseCase) ApproveWithdrawal(ctx context.Context, cmd WithdrawalCommand) (*entity.Withdrawal, error) {
	return uc.process(ctx, cmd, entity.WithdrawalApproved)
}

// RejectWithdrawal PENDING -> REJECTED, sin movimiento de dinero.
func (uc *UseCase) RejectWithdrawal(ctx context.Context, cmd WithdrawalCommand) (*entity.Withdrawal, error) {
	return uc.process(ctx, cmd, entity.WithdrawalRejected)
}

func (uc *UseCase) process(ctx context.Context, cmd WithdrawalCommand, target entity.WithdrawalStatus) (*entity.Withdrawal, error) {
	if cmd.WithdrawalID == "" {
		return nil, fmt.Errorf("%w: withdrawal_id requerido", domain.ErrValidation)
	}
	if cmd.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	var out *entity.Withdrawal
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		w, err := s.Withdrawals.GetByID(ctx, cmd.WithdrawalID)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("%w: retiro %s", domain.ErrNotFound, cmd.WithdrawalID)
		}
		if w.Status != entity.WithdrawalPending {
			return fmt.Errorf("%w: retiro %s está en %s", domain.ErrInvalidTransition, w.ID, w.Status)
		}
		actor := cmd.Actor
		w.Status = target
		w.ProcessedBy = &actor
		w.ProcessedAt = &now
		if c := comment(cmd.Comment); c != "" {
			w.Comment = c
		}
		ok, err := s.Withdrawals.UpdateIfStatus(ctx, w, entity.WithdrawalPending)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: retiro %s cambió de estado", domain.ErrConflict, w.ID)
		}
		if target == entity.WithdrawalApproved {
			if err := s.Sellers.AdjustBalance(ctx, w.SellerAccountID, w.Amount.Neg()); err != nil {
				return err
			}
			if err := s.Platform.CreateTransaction(ctx, &entity.PlatformTransaction{
				ID:          uuid.New().String(),
				Type:        entity.PlatformSellerPayout,
				Amount:      w.Amount,
				ReferenceID: w.ID,
				Description: "retiro " + w.ID,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType, msg := entity.EventWithdrawalRejected, "retiro rechazado"
	if target == entity.WithdrawalApproved {
		eventType, msg = entity.EventWithdrawalApproved, "retiro aprobado"
	}
	uc.log.Info().Str("withdrawal_id", out.ID).Str("amount", out.Amount.String()).Str("actor_id", cmd.Actor.ID).Msg(msg)
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(eventType, out.ID, cmd.Actor, now, map[string]any{
		"seller_account_id": out.SellerAccountID,
		"amount":            out.Amount.String(),
	}))
	return out, nil
}

// ListWithdrawals solicitudes filtradas por vendedor y estado.
func (uc *UseCase) ListWithdrawals(ctx context.Context, filter repository.WithdrawalFilter, page repository.Page) ([]*entity.Withdrawal, error) {
	var out []*entity.Withdrawal
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Withdrawals.List(ctx, filter, page)
		return err
	})
	return out, err
}

// GetSellerAccount devuelve la cuenta del vendedor o ErrNotFound.
func (uc *UseCase) GetSellerAccount(ctx context.Context, id string) (*entity.SellerAccount, error) {
	var out *entity.SellerAccount
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		a, err := s.Sellers.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("%w: cuenta de vendedor %s", domain.ErrNotFound, id)
		}
		out = a
		return nil
	})
	return out, err
}

// GetPlatformAccount saldo y acumulados de la plataforma.
func (uc *UseCase) GetPlatformAccount(ctx context.Context) (*entity.PlatformAccount, error) {
	var out *entity.PlatformAccount
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Platform.Get(ctx)
		return err
	})
	return out, err
}

// ListPlatformTransactions asientos del libro de la plataforma.
func (uc *UseCase) ListPlatformTransactions(ctx context.Context, page repository.Page) ([]*entity.PlatformTransaction, error) {
	var out []*entity.PlatformTransaction
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Platform.ListTransactions(ctx, page)
		return err
	})
	return out, err
}

// GetShopAccountByShop cuenta de liquidación de una tienda o ErrNotFound.
func (uc *UseCase) GetShopAccountByShop(ctx context.Context, shopID string) (*entity.ShopAccount, error) {
	var out *entity.ShopAccount
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		a, err := s.ShopAccounts.GetByShopID(ctx, shopID)
		if err != nil {
			return err
		}
		if a == nil {
			return fmt.Errorf("%w: cuenta de la tienda %s", domain.ErrNotFound, shopID)
		}
		out = a
		return nil
	})
	return out, err
}
