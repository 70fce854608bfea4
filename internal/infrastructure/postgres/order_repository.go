package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var (
	_ repository.OrderRepository    = (*OrderRepo)(nil)
	_ repository.CartRepository     = (*CartRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
)

// OrderRepo pedidos: columnas de filtro + el pedido completo en body (JSONB).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de pedidos.
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste el pedido.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	body, err := toJSON(o)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO orders (id, customer_id, shop_id, shift_id, status, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		o.ID, o.CustomerID, o.ShopID, o.ShiftID, o.Status, body, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return insertErr("pedido", o.ID, err)
	}
	return nil
}

func decodeOrder(body []byte) (*entity.Order, error) {
	var o entity.Order
	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("decodificar pedido: %w", err)
	}
	return &o, nil
}

// GetByID obtiene un pedido por ID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var body []byte
	err := r.q.QueryRow(ctx, `SELECT body FROM orders WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return decodeOrder(body)
}

// List pedidos del más reciente al más antiguo.
func (r *OrderRepo) List(ctx context.Context, filter repository.OrderFilter, page repository.Page) ([]*entity.Order, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT body FROM orders
		WHERE ($1::text IS NULL OR shop_id = $1)
			AND ($2::text IS NULL OR shift_id = $2)
			AND ($3::text IS NULL OR customer_id = $3)
			AND ($4::text IS NULL OR status = $4)
		ORDER BY created_at DESC, id LIMIT $5 OFFSET $6`,
		nullable(filter.ShopID), nullable(filter.ShiftID), nullable(filter.CustomerID), nullable(string(filter.Status)),
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*entity.Order
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o, err := decodeOrder(body)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateIfStatus reescribe el pedido solo si el estado almacenado es expected.
func (r *OrderRepo) UpdateIfStatus(ctx context.Context, o *entity.Order, expected entity.OrderStatus) (bool, error) {
	body, err := toJSON(o)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $3, body = $4, updated_at = $5
		WHERE id = $1 AND status = $2`, o.ID, expected, o.Status, body, o.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// CartRepo carrito por cliente (líneas en JSONB).
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador de carritos.
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

// GetByCustomer nil si el cliente nunca tuvo carrito.
func (r *CartRepo) GetByCustomer(ctx context.Context, customerID string) (*entity.Cart, error) {
	var (
		c     entity.Cart
		items []byte
	)
	err := r.q.QueryRow(ctx, `SELECT customer_id, shop_id, items, updated_at FROM carts WHERE customer_id = $1`, customerID).
		Scan(&c.CustomerID, &c.ShopID, &items, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("decodificar carrito: %w", err)
	}
	return &c, nil
}

// Save reemplaza el carrito completo.
func (r *CartRepo) Save(ctx context.Context, cart *entity.Cart) error {
	items := cart.Items
	if items == nil {
		items = []entity.CartItem{}
	}
	raw, err := toJSON(items)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO carts (customer_id, shop_id, items, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (customer_id) DO UPDATE SET shop_id = EXCLUDED.shop_id, items = EXCLUDED.items, updated_at = EXCLUDED.updated_at`,
		cart.CustomerID, cart.ShopID, raw, cart.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Clear vacía las líneas conservando la tienda seleccionada.
func (r *CartRepo) Clear(ctx context.Context, customerID string) error {
	_, err := r.q.Exec(ctx, `UPDATE carts SET items = '[]'::jsonb, updated_at = now() WHERE customer_id = $1`, customerID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// CustomerRepo clientes y su saldo de puntos bonus.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador de clientes.
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// Create persiste un cliente.
func (r *CustomerRepo) Create(ctx context.Context, c *entity.Customer) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO customers (id, name, bonus_points, updated_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.BonusPoints, c.UpdatedAt)
	if err != nil {
		return insertErr("cliente", c.ID, err)
	}
	return nil
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	var c entity.Customer
	err := r.q.QueryRow(ctx, `SELECT id, name, bonus_points, updated_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.BonusPoints, &c.UpdatedAt)
	return noRows(&c, err, "customer")
}

// AdjustBonusPoints suma delta solo si el saldo resultante no es negativo.
func (r *CustomerRepo) AdjustBonusPoints(ctx context.Context, customerID string, delta decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE customers SET bonus_points = bonus_points + $2, updated_at = now()
		WHERE id = $1 AND bonus_points + $2 >= 0`, customerID, delta)
	if err != nil {
		return fmt.Errorf("adjust bonus points: %w", err)
	}
	if cmd.RowsAffected() == 1 {
		return nil
	}
	var available decimal.Decimal
	err = r.q.QueryRow(ctx, `SELECT bonus_points FROM customers WHERE id = $1`, customerID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: cliente %s", domain.ErrNotFound, customerID)
	}
	if err != nil {
		return fmt.Errorf("read bonus points: %w", err)
	}
	return fmt.Errorf("%w: puntos bonus disponibles %s", domain.ErrInsufficientFunds, available)
}
