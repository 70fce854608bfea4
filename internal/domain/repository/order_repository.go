package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// OrderFilter filtro para listados de pedidos.
type OrderFilter struct {
	ShopID     string
	ShiftID    string
	CustomerID string
	Status     entity.OrderStatus
}

// OrderRepository puerto de persistencia para pedidos.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	List(ctx context.Context, filter OrderFilter, page Page) ([]*entity.Order, error)
	// UpdateIfStatus persiste el pedido solo si su estado almacenado es expected.
	UpdateIfStatus(ctx context.Context, order *entity.Order, expected entity.OrderStatus) (bool, error)
}

// CartRepository puerto del carrito por cliente.
type CartRepository interface {
	GetByCustomer(ctx context.Context, customerID string) (*entity.Cart, error)
	Save(ctx context.Context, cart *entity.Cart) error
	Clear(ctx context.Context, customerID string) error
}

// CustomerRepository puerto de clientes (saldo de puntos bonus).
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	// AdjustBonusPoints suma delta; falla con ErrInsufficientFunds si el saldo quedaría negativo.
	AdjustBonusPoints(ctx context.Context, customerID string, delta decimal.Decimal) error
}
