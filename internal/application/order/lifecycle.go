package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/order"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// CompleteAssemblyInput cantidades armadas por ShopProductID; debe cubrir todas las líneas.
type CompleteAssemblyInput struct {
	OrderID          string
	Actor            entity.Actor
	ActualQuantities map[string]decimal.Decimal
}

// CompleteAssembly ASSEMBLING -> AWAITING_COURIER. Las líneas por debajo de la tolerancia compensan al cliente
// con puntos bonus y devuelven el faltante a stock; ActualCartSum = TotalCartSum - compensación.
func (uc *UseCase) CompleteAssembly(ctx context.Context, in CompleteAssemblyInput) (*entity.Order, error) {
	if len(in.ActualQuantities) == 0 {
		return nil, fmt.Errorf("%w: sin cantidades armadas", domain.ErrValidation)
	}
	cmd := OrderCommand{OrderID: in.OrderID, Actor: in.Actor}
	var underweight int
	o, now, err := uc.transition(ctx, cmd, []entity.OrderStatus{entity.OrderStatusAssembling},
		func(ctx context.Context, s repository.Stores, o *entity.Order, now time.Time) error {
			compensation := decimal.Zero
			returns := make([]entity.StockAdjustment, 0, len(o.Items))
			for i, it := range o.Items {
				actual, ok := in.ActualQuantities[it.ShopProductID]
				if !ok {
					return fmt.Errorf("%w: falta la cantidad armada de %s", domain.ErrValidation, it.ShopProductID)
				}
				line, err := order.ClassifyLine(it.SelectedQuantity, actual, it.Price, uc.tolerance)
				if err != nil {
					return err
				}
				o.Items[i].ActualQuantity = actual
				o.Items[i].WeightStatus = line.Status
				o.Items[i].CompensationBonus = line.Compensation
				if line.Status == entity.WeightUnderweight {
					underweight++
					compensation = compensation.Add(line.Compensation)
					returns = append(returns, entity.StockAdjustment{ShopProductID: it.ShopProductID, Delta: line.Shortfall})
				}
			}
			if len(in.ActualQuantities) != len(o.Items) {
				return fmt.Errorf("%w: hay cantidades para productos fuera del pedido", domain.ErrValidation)
			}

			if err := uc.returnToStock(ctx, s, o, returns, in.Actor, now, "faltante de armado"); err != nil {
				return err
			}
			if compensation.IsPositive() {
				if err := s.Customers.AdjustBonusPoints(ctx, o.CustomerID, compensation); err != nil {
					return err
				}
			}
			o.Finances.CompensationBonus = compensation
			o.Finances.ActualCartSum = o.Finances.TotalCartSum.Sub(compensation)
			o.Status = entity.OrderStatusAwaitingCourier
			o.AssembledAt = &now
			return s.Shifts.IncrementStatistics(ctx, o.ShiftID, entity.ShiftStatisticsDelta{
				Assemblies:      1,
				AssemblySeconds: secondsSince(o.AcceptedAt, now),
			})
		})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", o.ID).Int("underweight_lines", underweight).
		Str("compensation", o.Finances.CompensationBonus.String()).Msg("armado completado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderAssembled, o.ID, in.Actor, now, map[string]any{
		"shop_id":            o.ShopID,
		"customer_id":        o.CustomerID,
		"actual_cart_sum":    o.Finances.ActualCartSum.String(),
		"compensation_bonus": o.Finances.CompensationBonus.String(),
	}))
	return o, nil
}

// DeliverOrder IN_DELIVERY -> DELIVERED y estadísticas del turno. El ingreso se registra después del commit
// como paso best-effort: si falla, el pedido queda entregado y se emite order.finance.error.
func (uc *UseCase) DeliverOrder(ctx context.Context, cmd OrderCommand) (*entity.Order, error) {
	var accountID string
	o, now, err := uc.transition(ctx, cmd, []entity.OrderStatus{entity.OrderStatusInDelivery},
		func(ctx context.Context, s repository.Stores, o *entity.Order, now time.Time) error {
			shop, err := s.Shops.GetByID(ctx, o.ShopID)
			if err != nil {
				return err
			}
			if shop != nil {
				accountID = shop.ShopAccountID
			}
			o.Status = entity.OrderStatusDelivered
			o.DeliveredAt = &now
			o.ClosedAt = &now
			return s.Shifts.IncrementStatistics(ctx, o.ShiftID, entity.ShiftStatisticsDelta{
				Delivered:       1,
				Income:          o.IncomeAmount(),
				Deliveries:      1,
				DeliverySeconds: secondsSince(o.HandedToCourierAt, now),
			})
		})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", o.ID).Str("shop_id", o.ShopID).Msg("pedido entregado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderDelivered, o.ID, cmd.Actor, now, map[string]any{
		"shop_id":     o.ShopID,
		"customer_id": o.CustomerID,
		"amount":      o.IncomeAmount().String(),
	}))
	uc.recordIncome(ctx, o, accountID, cmd.Actor, now)
	return o, nil
}

func (uc *UseCase) recordIncome(ctx context.Context, o *entity.Order, accountID string, actor entity.Actor, at time.Time) {
	var err error
	switch {
	case uc.income == nil:
		err = fmt.Errorf("%w: orquestador financiero no configurado", domain.ErrInvariant)
	case accountID == "":
		err = fmt.Errorf("%w: la tienda %s no tiene cuenta de liquidación", domain.ErrInvariant, o.ShopID)
	default:
		_, err = uc.income.RecordOrderIncome(ctx, finance.RecordOrderIncomeInput{
			ShopAccountID: accountID,
			OrderID:       o.ID,
			OrderAmount:   o.IncomeAmount(),
		})
	}
	if err == nil {
		return
	}
	uc.log.Error().Err(err).Str("order_id", o.ID).Str("shop_account_id", accountID).
		Str("amount", o.IncomeAmount().String()).Msg("registro de ingreso fallido; requiere conciliación")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderFinanceError, o.ID, actor, at, map[string]any{
		"shop_id":         o.ShopID,
		"shop_account_id": accountID,
		"amount":          o.IncomeAmount().String(),
		"error":           err.Error(),
	}))
}

// CancelOrder PENDING -> CANCELLED devolviendo stock y puntos bonus usados.
func (uc *UseCase) CancelOrder(ctx context.Context, cmd OrderCommand) (*entity.Order, error) {
	return uc.close(ctx, cmd, entity.OrderStatusCancelled, []entity.OrderStatus{entity.OrderStatusPending},
		entity.ShiftStatisticsDelta{Canceled: 1}, entity.EventOrderCancelled, "pedido cancelado")
}

// DeclineOrder la tienda rechaza el pedido desde PENDING, ASSEMBLING o AWAITING_COURIER.
func (uc *UseCase) DeclineOrder(ctx context.Context, cmd OrderCommand) (*entity.Order, error) {
	return uc.close(ctx, cmd, entity.OrderStatusDeclined,
		[]entity.OrderStatus{entity.OrderStatusPending, entity.OrderStatusAssembling, entity.OrderStatusAwaitingCourier},
		entity.ShiftStatisticsDelta{Declined: 1}, entity.EventOrderDeclined, "pedido rechazado")
}

func (uc *UseCase) close(ctx context.Context, cmd OrderCommand, target entity.OrderStatus, from []entity.OrderStatus,
	stats entity.ShiftStatisticsDelta, eventType, msg string) (*entity.Order, error) {
	reason := textnorm.Comment(cmd.Comment)
	o, now, err := uc.transition(ctx, cmd, from,
		func(ctx context.Context, s repository.Stores, o *entity.Order, now time.Time) error {
			if cmd.Actor.Role == entity.RoleCustomer && cmd.Actor.ID != o.CustomerID {
				return fmt.Errorf("%w: el pedido %s no pertenece al cliente", domain.ErrForbidden, o.ID)
			}
			if err := uc.returnToStock(ctx, s, o, o.ReservedAdjustments(), cmd.Actor, now, msg); err != nil {
				return err
			}
			if o.Finances.BonusPointsUsed.IsPositive() {
				if err := s.Customers.AdjustBonusPoints(ctx, o.CustomerID, o.Finances.BonusPointsUsed); err != nil {
					return err
				}
			}
			o.Status = target
			o.CloseReason = reason
			o.ClosedAt = &now
			return s.Shifts.IncrementStatistics(ctx, o.ShiftID, stats)
		})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", o.ID).Str("status", string(o.Status)).Str("actor_id", cmd.Actor.ID).Msg(msg)
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(eventType, o.ID, cmd.Actor, now, map[string]any{
		"shop_id":     o.ShopID,
		"customer_id": o.CustomerID,
		"reason":      reason,
	}))
	return o, nil
}
