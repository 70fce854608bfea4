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
	_ repository.OrderRepository    = (*orderRepo)(nil)
	_ repository.CartRepository     = (*cartRepo)(nil)
	_ repository.CustomerRepository = (*customerRepo)(nil)
)

type orderRepo struct{ s *state }

func (r *orderRepo) Create(_ context.Context, o *entity.Order) error {
	if _, ok := r.s.orders[o.ID]; ok {
		return fmt.Errorf("%w: pedido %s ya existe", domain.ErrConflict, o.ID)
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *orderRepo) List(_ context.Context, filter repository.OrderFilter, page repository.Page) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range r.s.orders {
		if filter.ShopID != "" && o.ShopID != filter.ShopID {
			continue
		}
		if filter.ShiftID != "" && o.ShiftID != filter.ShiftID {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *orderRepo) UpdateIfStatus(_ context.Context, o *entity.Order, expected entity.OrderStatus) (bool, error) {
	cur, ok := r.s.orders[o.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.orders[o.ID] = cloneOrder(o)
	return true, nil
}

type cartRepo struct{ s *state }

func (r *cartRepo) GetByCustomer(_ context.Context, customerID string) (*entity.Cart, error) {
	c, ok := r.s.carts[customerID]
	if !ok {
		return nil, nil
	}
	return cloneCart(c), nil
}

func (r *cartRepo) Save(_ context.Context, cart *entity.Cart) error {
	r.s.carts[cart.CustomerID] = cloneCart(cart)
	return nil
}

func (r *cartRepo) Clear(_ context.Context, customerID string) error {
	c, ok := r.s.carts[customerID]
	if !ok {
		return nil
	}
	c.Items = nil
	c.UpdatedAt = time.Now()
	return nil
}

type customerRepo struct{ s *state }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	if _, ok := r.s.customers[c.ID]; ok {
		return fmt.Errorf("%w: cliente %s ya existe", domain.ErrConflict, c.ID)
	}
	r.s.customers[c.ID] = clonePtr(c)
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	return clonePtr(c), nil
}

func (r *customerRepo) AdjustBonusPoints(_ context.Context, customerID string, delta decimal.Decimal) error {
	c, ok := r.s.customers[customerID]
	if !ok {
		return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}
	next := c.BonusPoints.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: puntos bonus disponibles %s", domain.ErrInsufficientFunds, c.BonusPoints)
	}
	c.BonusPoints = next
	c.UpdatedAt = time.Now()
	return nil
}
