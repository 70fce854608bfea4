package order

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/order"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// IncomeRecorder puerto hacia el orquestador financiero para liquidar pedidos entregados.
type IncomeRecorder interface {
	RecordOrderIncome(ctx context.Context, in finance.RecordOrderIncomeInput) (*finance.IncomeResult, error)
}

// Config parámetros del ciclo de vida del pedido.
type Config struct {
	// MinWeightDifferencePercentage tolerancia de armado (cero = 0.9).
	MinWeightDifferencePercentage decimal.Decimal
	// SystemTaxRate tasa aplicada sobre el total del carrito (cero = 0.1).
	SystemTaxRate decimal.Decimal
	Now           func() time.Time
}

// DefaultSystemTaxRate tasa por defecto de systemTax.
var DefaultSystemTaxRate = decimal.RequireFromString("0.1")

// UseCase orquesta carrito, tienda, turno, stock y pedido.
type UseCase struct {
	tx        ports.TxRunner
	events    ports.EventSink
	ledger    *inventory.StockLedger
	income    IncomeRecorder
	log       zerolog.Logger
	tolerance decimal.Decimal
	taxRate   decimal.Decimal
	now       func() time.Time
}

// NewUseCase construye el orquestador de pedidos.
func NewUseCase(tx ports.TxRunner, events ports.EventSink, ledger *inventory.StockLedger, income IncomeRecorder, log zerolog.Logger, cfg Config) *UseCase {
	if !cfg.MinWeightDifferencePercentage.IsPositive() {
		cfg.MinWeightDifferencePercentage = order.DefaultMinWeightDifferencePercentage
	}
	if !cfg.SystemTaxRate.IsPositive() {
		cfg.SystemTaxRate = DefaultSystemTaxRate
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &UseCase{
		tx:        tx,
		events:    events,
		ledger:    ledger,
		income:    income,
		log:       log.With().Str("component", "order").Logger(),
		tolerance: cfg.MinWeightDifferencePercentage,
		taxRate:   cfg.SystemTaxRate,
		now:       cfg.Now,
	}
}

// OrderCommand entrada común de las transiciones del pedido.
type OrderCommand struct {
	OrderID string
	Actor   entity.Actor
	Comment string
}

func (c OrderCommand) validate() error {
	if c.OrderID == "" {
		return fmt.Errorf("%w: order_id requerido", domain.ErrValidation)
	}
	if c.Actor.IsZero() {
		return fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	return nil
}

// mutation se ejecuta dentro de la transacción con el pedido ya validado en uno de los estados de origen.
type mutation func(ctx context.Context, s repository.Stores, o *entity.Order, now time.Time) error

// transition carga el pedido, exige uno de los estados from, aplica fn y persiste condicionado al estado leído.
func (uc *UseCase) transition(ctx context.Context, cmd OrderCommand, from []entity.OrderStatus, fn mutation) (*entity.Order, time.Time, error) {
	if err := cmd.validate(); err != nil {
		return nil, time.Time{}, err
	}
	now := uc.now().UTC()
	var out *entity.Order
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		o, err := s.Orders.GetByID(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, cmd.OrderID)
		}
		if !statusIn(o.Status, from) {
			return fmt.Errorf("%w: pedido %s está en %s (se esperaba %v)", domain.ErrInvalidTransition, o.ID, o.Status, from)
		}
		expected := o.Status
		if err := fn(ctx, s, o, now); err != nil {
			return err
		}
		o.UpdatedAt = now
		ok, err := s.Orders.UpdateIfStatus(ctx, o, expected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: pedido %s cambió de estado", domain.ErrConflict, o.ID)
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, now, err
	}
	return out, now, nil
}

func statusIn(s entity.OrderStatus, set []entity.OrderStatus) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// returnToStock devuelve cantidades a stock como ORDER_RETURN del pedido.
func (uc *UseCase) returnToStock(ctx context.Context, s repository.Stores, o *entity.Order, adjustments []entity.StockAdjustment, actor entity.Actor, at time.Time, note string) error {
	lines := make([]inventory.StockLine, 0, len(adjustments))
	for _, a := range adjustments {
		if !a.Delta.IsPositive() {
			continue
		}
		lines = append(lines, inventory.StockLine{
			ShopProductID: a.ShopProductID,
			Delta:         a.Delta,
			Type:          entity.MovementOrderReturn,
			Comment:       note,
		})
	}
	if len(lines) == 0 {
		return nil
	}
	_, err := uc.ledger.Apply(ctx, s, inventory.StockChange{
		ShopID:       o.ShopID,
		Actor:        actor,
		DocumentType: entity.DocumentOrder,
		DocumentID:   o.ID,
		At:           at,
		Lines:        lines,
	})
	return err
}

func secondsSince(from *time.Time, now time.Time) int64 {
	if from == nil || now.Before(*from) {
		return 0
	}
	return int64(now.Sub(*from) / time.Second)
}

// AcceptOrder PENDING -> ASSEMBLING.
func (uc *UseCase) AcceptOrder(ctx context.Context, cmd OrderCommand) (*entity.Order, error) {
	o, now, err := uc.transition(ctx, cmd, []entity.OrderStatus{entity.OrderStatusPending},
		func(_ context.Context, _ repository.Stores, o *entity.Order, now time.Time) error {
			o.Status = entity.OrderStatusAssembling
			o.AcceptedAt = &now
			return nil
		})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Str("actor_id", cmd.Actor.ID).Msg("pedido aceptado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderAccepted, o.ID, cmd.Actor, now, map[string]any{
		"shop_id":     o.ShopID,
		"customer_id": o.CustomerID,
	}))
	return o, nil
}

// HandToCourier AWAITING_COURIER -> IN_DELIVERY.
func (uc *UseCase) HandToCourier(ctx context.Context, cmd OrderCommand) (*entity.Order, error) {
	o, now, err := uc.transition(ctx, cmd, []entity.OrderStatus{entity.OrderStatusAwaitingCourier},
		func(_ context.Context, _ repository.Stores, o *entity.Order, now time.Time) error {
			o.Status = entity.OrderStatusInDelivery
			o.HandedToCourierAt = &now
			return nil
		})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Msg("pedido entregado al courier")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderInDelivery, o.ID, cmd.Actor, now, map[string]any{
		"shop_id":     o.ShopID,
		"customer_id": o.CustomerID,
	}))
	return o, nil
}

// SetRatingInput valoración del cliente.
type SetRatingInput struct {
	OrderID string
	Actor   entity.Actor
	Value   int
	Comment string
}

// SetRating solo sobre pedidos DELIVERED y una única vez.
func (uc *UseCase) SetRating(ctx context.Context, in SetRatingInput) (*entity.Order, error) {
	if in.Value < 1 || in.Value > 5 {
		return nil, fmt.Errorf("%w: la valoración debe estar entre 1 y 5", domain.ErrValidation)
	}
	cmd := OrderCommand{OrderID: in.OrderID, Actor: in.Actor}
	o, now, err := uc.transition(ctx, cmd, []entity.OrderStatus{entity.OrderStatusDelivered},
		func(_ context.Context, _ repository.Stores, o *entity.Order, now time.Time) error {
			if in.Actor.Role == entity.RoleCustomer && in.Actor.ID != o.CustomerID {
				return fmt.Errorf("%w: el pedido %s no pertenece al cliente", domain.ErrForbidden, o.ID)
			}
			if o.Rating != nil {
				return fmt.Errorf("%w: el pedido %s ya tiene valoración", domain.ErrInvariant, o.ID)
			}
			o.Rating = &entity.OrderRating{Value: in.Value, Comment: textnorm.Comment(in.Comment), CreatedAt: now}
			return nil
		})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", o.ID).Int("rating", in.Value).Msg("pedido valorado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderRated, o.ID, in.Actor, now, map[string]any{
		"shop_id": o.ShopID,
		"value":   in.Value,
	}))
	return o, nil
}

// GetOrder devuelve el pedido o ErrNotFound.
func (uc *UseCase) GetOrder(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		o, err := s.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrNotFound, id)
		}
		out = o
		return nil
	})
	return out, err
}

// ListOrders pedidos filtrados por tienda, turno, cliente o estado.
func (uc *UseCase) ListOrders(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]*entity.Order, error) {
	var out []*entity.Order
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Orders.List(ctx, filter, page)
		return err
	})
	return out, err
}
