package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// SetCartItemInput fija la cantidad de un producto en el carrito. Quantity cero quita la línea.
type SetCartItemInput struct {
	CustomerID    string
	ShopID        string
	ShopProductID string
	Quantity      decimal.Decimal
}

// CartView carrito con su total y si alcanza el pedido mínimo de la tienda.
type CartView struct {
	Cart         *entity.Cart
	Total        decimal.Decimal
	MinOrderSum  decimal.Decimal
	ReadyToOrder bool
}

// SetCartItem congela el precio actual del producto en la línea. Cambiar de tienda vacía el carrito.
func (uc *UseCase) SetCartItem(ctx context.Context, in SetCartItemInput) (*CartView, error) {
	if in.CustomerID == "" || in.ShopID == "" || in.ShopProductID == "" {
		return nil, fmt.Errorf("%w: customer_id, shop_id y shop_product_id requeridos", domain.ErrValidation)
	}
	if in.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: cantidad negativa", domain.ErrValidation)
	}
	now := uc.now().UTC()
	var view *CartView
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		shop, err := s.Shops.GetByID(ctx, in.ShopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, in.ShopID)
		}
		p, err := s.ShopProducts.GetByID(ctx, in.ShopProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, in.ShopProductID)
		}
		if p.ShopID != in.ShopID {
			return fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrValidation, p.ID, in.ShopID)
		}
		if in.Quantity.IsPositive() && p.Status != entity.ShopProductActive {
			return fmt.Errorf("%w: el producto %s no está a la venta", domain.ErrValidation, p.ID)
		}

		cart, err := s.Carts.GetByCustomer(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if cart == nil || cart.ShopID != in.ShopID {
			cart = &entity.Cart{CustomerID: in.CustomerID, ShopID: in.ShopID}
		}
		items := cart.Items[:0:0]
		found := false
		for _, it := range cart.Items {
			if it.ShopProductID != p.ID {
				items = append(items, it)
				continue
			}
			found = true
			if in.Quantity.IsPositive() {
				items = append(items, entity.CartItem{ShopProductID: p.ID, Name: p.Name, Price: p.Price, SelectedQuantity: in.Quantity})
			}
		}
		if !found && in.Quantity.IsPositive() {
			items = append(items, entity.CartItem{ShopProductID: p.ID, Name: p.Name, Price: p.Price, SelectedQuantity: in.Quantity})
		}
		cart.Items = items
		cart.UpdatedAt = now
		if err := s.Carts.Save(ctx, cart); err != nil {
			return err
		}
		view = newCartView(cart, shop)
		return nil
	})
	return view, err
}

// GetCart carrito del cliente; nil si nunca agregó nada.
func (uc *UseCase) GetCart(ctx context.Context, customerID string) (*CartView, error) {
	var view *CartView
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		cart, err := s.Carts.GetByCustomer(ctx, customerID)
		if err != nil || cart == nil {
			return err
		}
		shop, err := s.Shops.GetByID(ctx, cart.ShopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, cart.ShopID)
		}
		view = newCartView(cart, shop)
		return nil
	})
	return view, err
}

func newCartView(cart *entity.Cart, shop *entity.Shop) *CartView {
	return &CartView{
		Cart:         cart,
		Total:        cart.Total(),
		MinOrderSum:  shop.MinOrderSum,
		ReadyToOrder: cart.IsReadyToOrder(shop.MinOrderSum),
	}
}
