package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var (
	_ repository.ShopAccountRepository      = (*shopAccountRepo)(nil)
	_ repository.SettlementPeriodRepository = (*periodRepo)(nil)
	_ repository.SellerAccountRepository    = (*sellerRepo)(nil)
	_ repository.PlatformAccountRepository  = (*platformRepo)(nil)
	_ repository.WithdrawalRepository       = (*withdrawalRepo)(nil)
)

type shopAccountRepo struct{ s *state }

func (r *shopAccountRepo) Create(_ context.Context, a *entity.ShopAccount) error {
	if _, ok := r.s.shopAccounts[a.ID]; ok {
		return fmt.Errorf("%w: cuenta %s ya existe", domain.ErrConflict, a.ID)
	}
	r.s.shopAccounts[a.ID] = clonePtr(a)
	return nil
}

func (r *shopAccountRepo) GetByID(_ context.Context, id string) (*entity.ShopAccount, error) {
	a, ok := r.s.shopAccounts[id]
	if !ok {
		return nil, nil
	}
	return clonePtr(a), nil
}

func (r *shopAccountRepo) GetByShopID(_ context.Context, shopID string) (*entity.ShopAccount, error) {
	for _, a := range r.s.shopAccounts {
		if a.ShopID == shopID {
			return clonePtr(a), nil
		}
	}
	return nil, nil
}

func (r *shopAccountRepo) SetCurrentPeriod(_ context.Context, accountID, periodID string) error {
	a, ok := r.s.shopAccounts[accountID]
	if !ok {
		return fmt.Errorf("%w: cuenta %s", domain.ErrNotFound, accountID)
	}
	a.CurrentPeriodID = periodID
	a.UpdatedAt = time.Now()
	return nil
}

type periodRepo struct{ s *state }

func (r *periodRepo) Create(_ context.Context, p *entity.SettlementPeriod) error {
	if _, ok := r.s.periods[p.ID]; ok {
		return fmt.Errorf("%w: periodo %s ya existe", domain.ErrConflict, p.ID)
	}
	if p.Status == entity.PeriodStatusActive {
		for _, other := range r.s.periods {
			if other.ShopAccountID == p.ShopAccountID && other.Status == entity.PeriodStatusActive {
				return fmt.Errorf("%w: ya existe un periodo activo para la cuenta %s", domain.ErrConflict, p.ShopAccountID)
			}
		}
	}
	r.s.periods[p.ID] = clonePeriod(p)
	return nil
}

func (r *periodRepo) GetByID(_ context.Context, id string) (*entity.SettlementPeriod, error) {
	p, ok := r.s.periods[id]
	if !ok {
		return nil, nil
	}
	return clonePeriod(p), nil
}

// GetByIDForUpdate igual que GetByID: el store ya serializa las transacciones.
func (r *periodRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.SettlementPeriod, error) {
	return r.GetByID(ctx, id)
}

func (r *periodRepo) GetActiveByShopAccount(_ context.Context, shopAccountID string) (*entity.SettlementPeriod, error) {
	for _, p := range r.s.periods {
		if p.ShopAccountID == shopAccountID && p.Status == entity.PeriodStatusActive {
			return clonePeriod(p), nil
		}
	}
	return nil, nil
}

func (r *periodRepo) List(_ context.Context, filter repository.SettlementPeriodFilter, page repository.Page) ([]*entity.SettlementPeriod, error) {
	var out []*entity.SettlementPeriod
	for _, p := range r.s.periods {
		if filter.ShopAccountID != "" && p.ShopAccountID != filter.ShopAccountID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, clonePeriod(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number > out[j].Number })
	return paginate(out, page), nil
}

func (r *periodRepo) CompareAndSetStatus(_ context.Context, upd repository.PeriodStatusUpdate) (bool, error) {
	p, ok := r.s.periods[upd.PeriodID]
	if !ok || p.Status != upd.Expected {
		return false, nil
	}
	p.Status = upd.Target
	if upd.ReleasedAmount != nil {
		p.ReleasedAmount = *upd.ReleasedAmount
	}
	if upd.ClosedAt != nil {
		p.ClosedAt = clonePtr(upd.ClosedAt)
	}
	if upd.ReleasedAt != nil {
		p.ReleasedAt = clonePtr(upd.ReleasedAt)
	}
	if upd.ApprovedBy != nil {
		p.ApprovedBy = clonePtr(upd.ApprovedBy)
	}
	if upd.ApproveComment != "" {
		p.ApproveComment = upd.ApproveComment
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *periodRepo) AddTransaction(_ context.Context, tx *entity.SettlementTransaction) error {
	p, ok := r.s.periods[tx.PeriodID]
	if !ok {
		return fmt.Errorf("%w: periodo %s", domain.ErrNotFound, tx.PeriodID)
	}
	if p.Status != entity.PeriodStatusActive {
		return fmt.Errorf("%w: el periodo %s no está activo", domain.ErrInvariant, p.ID)
	}
	p.Totals = p.Totals.Add(tx.Type, tx.Amount)
	r.s.periodTxs = append(r.s.periodTxs, clonePtr(tx))
	return nil
}

func (r *periodRepo) ListTransactions(_ context.Context, periodID string, page repository.Page) ([]*entity.SettlementTransaction, error) {
	var out []*entity.SettlementTransaction
	for _, t := range r.s.periodTxs {
		if t.PeriodID == periodID {
			out = append(out, clonePtr(t))
		}
	}
	return paginate(out, page), nil
}

type sellerRepo struct{ s *state }

func (r *sellerRepo) Create(_ context.Context, a *entity.SellerAccount) error {
	if _, ok := r.s.sellers[a.ID]; ok {
		return fmt.Errorf("%w: cuenta de vendedor %s ya existe", domain.ErrConflict, a.ID)
	}
	r.s.sellers[a.ID] = clonePtr(a)
	return nil
}

func (r *sellerRepo) GetByID(_ context.Context, id string) (*entity.SellerAccount, error) {
	a, ok := r.s.sellers[id]
	if !ok {
		return nil, nil
	}
	return clonePtr(a), nil
}

func (r *sellerRepo) AdjustBalance(_ context.Context, accountID string, delta decimal.Decimal) error {
	a, ok := r.s.sellers[accountID]
	if !ok {
		return fmt.Errorf("%w: cuenta de vendedor %s", domain.ErrNotFound, accountID)
	}
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: saldo disponible %s", domain.ErrInsufficientFunds, a.Balance)
	}
	a.Balance = next
	if delta.IsPositive() {
		a.TotalEarned = a.TotalEarned.Add(delta)
	} else {
		a.TotalWithdrawn = a.TotalWithdrawn.Add(delta.Neg())
	}
	a.UpdatedAt = time.Now()
	return nil
}

type platformRepo struct{ s *state }

func (r *platformRepo) Get(_ context.Context) (*entity.PlatformAccount, error) {
	return clonePtr(r.s.platform), nil
}

func (r *platformRepo) CreateTransaction(_ context.Context, tx *entity.PlatformTransaction) error {
	next := r.s.platform.Apply(tx.Type, tx.Amount)
	next.UpdatedAt = tx.CreatedAt
	r.s.platform = &next
	r.s.platformTxs = append(r.s.platformTxs, clonePtr(tx))
	return nil
}

func (r *platformRepo) ListTransactions(_ context.Context, page repository.Page) ([]*entity.PlatformTransaction, error) {
	out := make([]*entity.PlatformTransaction, 0, len(r.s.platformTxs))
	for _, t := range r.s.platformTxs {
		out = append(out, clonePtr(t))
	}
	return paginate(out, page), nil
}

type withdrawalRepo struct{ s *state }

func (r *withdrawalRepo) Create(_ context.Context, w *entity.Withdrawal) error {
	if _, ok := r.s.withdrawals[w.ID]; ok {
		return fmt.Errorf("%w: retiro %s ya existe", domain.ErrConflict, w.ID)
	}
	r.s.withdrawals[w.ID] = cloneWithdrawal(w)
	return nil
}

func (r *withdrawalRepo) GetByID(_ context.Context, id string) (*entity.Withdrawal, error) {
	w, ok := r.s.withdrawals[id]
	if !ok {
		return nil, nil
	}
	return cloneWithdrawal(w), nil
}

func (r *withdrawalRepo) List(_ context.Context, filter repository.WithdrawalFilter, page repository.Page) ([]*entity.Withdrawal, error) {
	var out []*entity.Withdrawal
	for _, w := range r.s.withdrawals {
		if filter.SellerAccountID != "" && w.SellerAccountID != filter.SellerAccountID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		out = append(out, cloneWithdrawal(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *withdrawalRepo) UpdateIfStatus(_ context.Context, w *entity.Withdrawal, expected entity.WithdrawalStatus) (bool, error) {
	cur, ok := r.s.withdrawals[w.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.withdrawals[w.ID] = cloneWithdrawal(w)
	return true, nil
}
