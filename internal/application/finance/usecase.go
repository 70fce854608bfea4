package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// Config parámetros del orquestador financiero.
type Config struct {
	Now func() time.Time
}

// UseCase coordina los tres libros: el de la tienda (periodos de liquidación), el del vendedor y el de la plataforma.
// Cada operación que toca más de un libro lo hace en una sola transacción.
type UseCase struct {
	tx     ports.TxRunner
	events ports.EventSink
	log    zerolog.Logger
	now    func() time.Time
}

// NewUseCase construye el orquestador financiero.
func NewUseCase(tx ports.TxRunner, events ports.EventSink, log zerolog.Logger, cfg Config) *UseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &UseCase{
		tx:     tx,
		events: events,
		log:    log.With().Str("component", "finance").Logger(),
		now:    cfg.Now,
	}
}

// OpenShopAccountInput alta de la cuenta de liquidación de una tienda.
type OpenShopAccountInput struct {
	ShopID            string
	SellerAccountID   string
	CommissionPercent decimal.Decimal
}

// OpenShopAccount crea la ShopAccount con su primer periodo ACTIVE.
func (uc *UseCase) OpenShopAccount(ctx context.Context, in OpenShopAccountInput) (*entity.ShopAccount, error) {
	if in.ShopID == "" || in.SellerAccountID == "" {
		return nil, fmt.Errorf("%w: shop_id y seller_account_id requeridos", domain.ErrValidation)
	}
	if in.CommissionPercent.IsNegative() || in.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: porcentaje de comisión fuera de rango: %s", domain.ErrValidation, in.CommissionPercent)
	}
	now := uc.now().UTC()
	account := &entity.ShopAccount{
		ID:                uuid.New().String(),
		ShopID:            in.ShopID,
		SellerAccountID:   in.SellerAccountID,
		CommissionPercent: in.CommissionPercent,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	period := newPeriod(account.ID, 1, now)
	account.CurrentPeriodID = period.ID

	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		if existing, err := s.ShopAccounts.GetByShopID(ctx, in.ShopID); err != nil {
			return err
		} else if existing != nil {
			return fmt.Errorf("%w: la tienda %s ya tiene cuenta %s", domain.ErrConflict, in.ShopID, existing.ID)
		}
		seller, err := s.Sellers.GetByID(ctx, in.SellerAccountID)
		if err != nil {
			return err
		}
		if seller == nil {
			return fmt.Errorf("%w: cuenta de vendedor %s", domain.ErrNotFound, in.SellerAccountID)
		}
		if err := s.ShopAccounts.Create(ctx, account); err != nil {
			return err
		}
		return s.Periods.Create(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("shop_account_id", account.ID).Str("shop_id", account.ShopID).Msg("cuenta de tienda abierta")
	return account, nil
}

func newPeriod(accountID string, number int, at time.Time) *entity.SettlementPeriod {
	return &entity.SettlementPeriod{
		ID:            uuid.New().String(),
		ShopAccountID: accountID,
		Number:        number,
		Status:        entity.PeriodStatusActive,
		StartedAt:     at,
		UpdatedAt:     at,
	}
}

// activePeriod periodo vigente de la cuenta; prefiere CurrentPeriodID y cae a la búsqueda por estado.
func activePeriod(ctx context.Context, s repository.Stores, account *entity.ShopAccount) (*entity.SettlementPeriod, error) {
	if account.CurrentPeriodID != "" {
		p, err := s.Periods.GetByID(ctx, account.CurrentPeriodID)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Status == entity.PeriodStatusActive {
			return p, nil
		}
	}
	p, err := s.Periods.GetActiveByShopAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: la cuenta %s no tiene periodo activo", domain.ErrInvariant, account.ID)
	}
	return p, nil
}

func requireShopAccount(ctx context.Context, s repository.Stores, id string) (*entity.ShopAccount, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: shop_account_id requerido", domain.ErrValidation)
	}
	a, err := s.ShopAccounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("%w: cuenta de tienda %s", domain.ErrNotFound, id)
	}
	return a, nil
}

// postPair registra un asiento en el libro de la tienda y su contrapartida en el de la plataforma.
func postPair(ctx context.Context, s repository.Stores, period *entity.SettlementPeriod, shopType entity.SettlementTransactionType,
	platformType entity.PlatformTransactionType, amount decimal.Decimal, orderID, description string, at time.Time) error {
	if err := s.Periods.AddTransaction(ctx, &entity.SettlementTransaction{
		ID:            uuid.New().String(),
		PeriodID:      period.ID,
		ShopAccountID: period.ShopAccountID,
		Type:          shopType,
		Amount:        amount,
		OrderID:       orderID,
		Description:   description,
		CreatedAt:     at,
	}); err != nil {
		return err
	}
	return s.Platform.CreateTransaction(ctx, &entity.PlatformTransaction{
		ID:            uuid.New().String(),
		Type:          platformType,
		Amount:        amount,
		ShopAccountID: period.ShopAccountID,
		OrderID:       orderID,
		ReferenceID:   period.ID,
		Description:   description,
		CreatedAt:     at,
	})
}

func positiveAmount(amount decimal.Decimal, what string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s debe ser positivo", domain.ErrValidation, what)
	}
	return amount, nil
}

func comment(s string) string { return textnorm.Comment(s) }
