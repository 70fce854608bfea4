package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// PeriodCommand entrada para cerrar o aprobar un periodo.
type PeriodCommand struct {
	PeriodID string
	Actor    entity.Actor
	Comment  string
}

// PeriodTransition resultado de cerrar un periodo: el cerrado y su sucesor.
type PeriodTransition struct {
	Closed *entity.SettlementPeriod
	Next   *entity.SettlementPeriod
}

// CloseSettlementPeriod ACTIVE -> PENDING_APPROVAL fijando el monto a liberar y abre el siguiente periodo.
func (uc *UseCase) CloseSettlementPeriod(ctx context.Context, cmd PeriodCommand) (*PeriodTransition, error) {
	if cmd.PeriodID == "" {
		return nil, fmt.Errorf("%w: period_id requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	var out PeriodTransition
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		p, err := s.Periods.GetByIDForUpdate(ctx, cmd.PeriodID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: periodo %s", domain.ErrNotFound, cmd.PeriodID)
		}
		if p.Status != entity.PeriodStatusActive {
			return fmt.Errorf("%w: periodo %s está en %s", domain.ErrInvalidTransition, p.ID, p.Status)
		}
		released := p.Totals.Releasable()
		ok, err := s.Periods.CompareAndSetStatus(ctx, repository.PeriodStatusUpdate{
			PeriodID:       p.ID,
			Expected:       entity.PeriodStatusActive,
			Target:         entity.PeriodStatusPendingApproval,
			ReleasedAmount: &released,
			ClosedAt:       &now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: periodo %s cambió de estado", domain.ErrConflict, p.ID)
		}

		next := newPeriod(p.ShopAccountID, p.Number+1, now)
		if err := s.Periods.Create(ctx, next); err != nil {
			return err
		}
		if err := s.ShopAccounts.SetCurrentPeriod(ctx, p.ShopAccountID, next.ID); err != nil {
			return err
		}
		closed, err := s.Periods.GetByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		out = PeriodTransition{Closed: closed, Next: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("period_id", out.Closed.ID).Str("next_period_id", out.Next.ID).
		Str("released_amount", out.Closed.ReleasedAmount.String()).Msg("periodo de liquidación cerrado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventPeriodClosed, out.Closed.ID, actorOrSystem(cmd.Actor), now, map[string]any{
		"shop_account_id": out.Closed.ShopAccountID,
		"number":          out.Closed.Number,
		"released_amount": out.Closed.ReleasedAmount.String(),
		"next_period_id":  out.Next.ID,
	}))
	return &out, nil
}

// ApproveSettlementPeriod PENDING_APPROVAL -> RELEASED, acredita el monto al vendedor y registra SELLER_PAYOUT
// en la plataforma. Un monto liberado <= 0 libera el periodo sin mover dinero.
func (uc *UseCase) ApproveSettlementPeriod(ctx context.Context, cmd PeriodCommand) (*entity.SettlementPeriod, error) {
	if cmd.PeriodID == "" {
		return nil, fmt.Errorf("%w: period_id requerido", domain.ErrValidation)
	}
	if cmd.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	note := comment(cmd.Comment)
	var period *entity.SettlementPeriod
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		p, err := s.Periods.GetByIDForUpdate(ctx, cmd.PeriodID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: periodo %s", domain.ErrNotFound, cmd.PeriodID)
		}
		if p.Status != entity.PeriodStatusPendingApproval {
			return fmt.Errorf("%w: periodo %s está en %s", domain.ErrInvalidTransition, p.ID, p.Status)
		}
		account, err := requireShopAccount(ctx, s, p.ShopAccountID)
		if err != nil {
			return err
		}
		actor := cmd.Actor
		ok, err := s.Periods.CompareAndSetStatus(ctx, repository.PeriodStatusUpdate{
			PeriodID:       p.ID,
			Expected:       entity.PeriodStatusPendingApproval,
			Target:         entity.PeriodStatusReleased,
			ReleasedAt:     &now,
			ApprovedBy:     &actor,
			ApproveComment: note,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: periodo %s cambió de estado", domain.ErrConflict, p.ID)
		}

		if p.ReleasedAmount.IsPositive() {
			if err := s.Sellers.AdjustBalance(ctx, account.SellerAccountID, p.ReleasedAmount); err != nil {
				return err
			}
			if err := s.Platform.CreateTransaction(ctx, &entity.PlatformTransaction{
				ID:            uuid.New().String(),
				Type:          entity.PlatformSellerPayout,
				Amount:        p.ReleasedAmount,
				ShopAccountID: account.ID,
				ReferenceID:   p.ID,
				Description:   fmt.Sprintf("liberación del periodo %d", p.Number),
				CreatedAt:     now,
			}); err != nil {
				return err
			}
		}
		period, err = s.Periods.GetByIDForUpdate(ctx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("period_id", period.ID).Str("released_amount", period.ReleasedAmount.String()).
		Str("actor_id", cmd.Actor.ID).Msg("periodo de liquidación aprobado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventPeriodApproved, period.ID, cmd.Actor, now, map[string]any{
		"shop_account_id": period.ShopAccountID,
		"released_amount": period.ReleasedAmount.String(),
		"comment":         note,
	}))
	return period, nil
}

// GetPeriod devuelve el periodo o ErrNotFound.
func (uc *UseCase) GetPeriod(ctx context.Context, id string) (*entity.SettlementPeriod, error) {
	var out *entity.SettlementPeriod
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		p, err := s.Periods.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: periodo %s", domain.ErrNotFound, id)
		}
		out = p
		return nil
	})
	return out, err
}

// ListPeriods periodos de una cuenta, más reciente primero.
func (uc *UseCase) ListPeriods(ctx context.Context, filter repository.SettlementPeriodFilter, page repository.Page) ([]*entity.SettlementPeriod, error) {
	var out []*entity.SettlementPeriod
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Periods.List(ctx, filter, page)
		return err
	})
	return out, err
}

// ListPeriodTransactions asientos del libro de la tienda dentro de un periodo.
func (uc *UseCase) ListPeriodTransactions(ctx context.Context, periodID string, page repository.Page) ([]*entity.SettlementTransaction, error) {
	var out []*entity.SettlementTransaction
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Periods.ListTransactions(ctx, periodID, page)
		return err
	})
	return out, err
}

func actorOrSystem(a entity.Actor) entity.Actor {
	if a.IsZero() {
		return entity.SystemActor
	}
	return a
}
