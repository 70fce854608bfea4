package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/order"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// CheckoutInput datos del checkout. El carrito del cliente debe estar en ShopID.
type CheckoutInput struct {
	CustomerID      string
	ShopID          string
	BonusPointsUsed decimal.Decimal
	DeliveryAddress string
	Comment         string
	Actor           entity.Actor
}

// Checkout convierte el carrito en un pedido PENDING. En una sola transacción: valida tienda y turno,
// verifica stock de cada línea, reserva el stock (ORDER_RESERVATION), debita los puntos bonus usados,
// crea el pedido, vacía el carrito y suma el pedido a las estadísticas del turno.
// Cualquier fallo aborta todo: ni reserva parcial ni pedido.
func (uc *UseCase) Checkout(ctx context.Context, in CheckoutInput) (*entity.Order, error) {
	if in.CustomerID == "" || in.ShopID == "" {
		return nil, fmt.Errorf("%w: customer_id y shop_id requeridos", domain.ErrValidation)
	}
	if in.Actor.IsZero() {
		in.Actor = entity.Actor{ID: in.CustomerID, Role: entity.RoleCustomer}
	}
	now := uc.now().UTC()
	o := &entity.Order{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		ShopID:          in.ShopID,
		Status:          entity.OrderStatusPending,
		DeliveryAddress: textnorm.Comment(in.DeliveryAddress),
		CustomerComment: textnorm.Comment(in.Comment),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		cart, err := s.Carts.GetByCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return fmt.Errorf("%w: el carrito está vacío", domain.ErrValidation)
		}
		if cart.ShopID != in.ShopID {
			return fmt.Errorf("%w: el carrito pertenece a la tienda %s, no a %s", domain.ErrValidation, cart.ShopID, in.ShopID)
		}

		shop, err := s.Shops.GetByID(ctx, in.ShopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, in.ShopID)
		}
		if shop.Status != entity.ShopStatusOpened {
			return fmt.Errorf("%w: la tienda %s está %s", domain.ErrInvariant, shop.ID, shop.Status)
		}
		if shop.CurrentShiftID == "" {
			return fmt.Errorf("%w: la tienda %s no tiene turno activo", domain.ErrInvariant, shop.ID)
		}
		sh, err := s.Shifts.GetByID(ctx, shop.CurrentShiftID)
		if err != nil {
			return err
		}
		if sh == nil {
			return fmt.Errorf("%w: turno %s", domain.ErrNotFound, shop.CurrentShiftID)
		}
		if sh.Status != entity.ShiftStatusOpen {
			return fmt.Errorf("%w: el turno %s está %s", domain.ErrInvariant, sh.ID, sh.Status)
		}
		o.ShiftID = sh.ID

		customer, err := s.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, in.CustomerID)
		}

		ids := make([]string, 0, len(cart.Items))
		for _, it := range cart.Items {
			ids = append(ids, it.ShopProductID)
		}
		snapshot, err := s.ShopProducts.GetManyForUpdate(ctx, ids)
		if err != nil {
			return err
		}
		total := decimal.Zero
		lines := make([]inventory.StockLine, 0, len(cart.Items))
		for _, it := range cart.Items {
			if !it.SelectedQuantity.IsPositive() {
				return fmt.Errorf("%w: cantidad inválida en %s", domain.ErrValidation, it.ShopProductID)
			}
			p, ok := snapshot[it.ShopProductID]
			if !ok {
				return fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, it.ShopProductID)
			}
			if p.ShopID != shop.ID {
				return fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrValidation, p.ID, shop.ID)
			}
			if p.Status != entity.ShopProductActive {
				return fmt.Errorf("%w: el producto %s no está a la venta", domain.ErrValidation, p.ID)
			}
			if p.StockQuantity.LessThan(it.SelectedQuantity) {
				return domain.NewShortfall(p.ID, it.SelectedQuantity, p.StockQuantity)
			}
			total = total.Add(it.Sum())
			o.Items = append(o.Items, entity.OrderItem{
				ShopProductID:    it.ShopProductID,
				Name:             it.Name,
				Price:            it.Price,
				SelectedQuantity: it.SelectedQuantity,
			})
			lines = append(lines, inventory.StockLine{
				ShopProductID: it.ShopProductID,
				Delta:         it.SelectedQuantity.Neg(),
				Type:          entity.MovementOrderReservation,
			})
		}
		if total.LessThan(shop.MinOrderSum) {
			return fmt.Errorf("%w: el total %s no alcanza el pedido mínimo %s", domain.ErrValidation, total, shop.MinOrderSum)
		}

		fin, err := order.ComputeFinances(total, in.BonusPointsUsed, shop.DeliveryPrice, uc.taxRate)
		if err != nil {
			return err
		}
		o.Finances = fin

		if _, err := uc.ledger.Apply(ctx, s, inventory.StockChange{
			ShopID:       shop.ID,
			Actor:        in.Actor,
			DocumentType: entity.DocumentOrder,
			DocumentID:   o.ID,
			At:           now,
			Lines:        lines,
		}); err != nil {
			return err
		}
		if fin.BonusPointsUsed.IsPositive() {
			if err := s.Customers.AdjustBonusPoints(ctx, in.CustomerID, fin.BonusPointsUsed.Neg()); err != nil {
				return err
			}
		}
		if err := s.Orders.Create(ctx, o); err != nil {
			return err
		}
		if err := s.Carts.Clear(ctx, in.CustomerID); err != nil {
			return err
		}
		return s.Shifts.IncrementStatistics(ctx, sh.ID, entity.ShiftStatisticsDelta{Orders: 1})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", o.ID).Str("shop_id", o.ShopID).Str("shift_id", o.ShiftID).
		Str("total_sum", o.Finances.TotalSum.String()).Int("lines", len(o.Items)).Msg("pedido creado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventOrderCreated, o.ID, in.Actor, now, map[string]any{
		"shop_id":     o.ShopID,
		"shift_id":    o.ShiftID,
		"customer_id": o.CustomerID,
		"total_sum":   o.Finances.TotalSum.String(),
	}))
	return o, nil
}
