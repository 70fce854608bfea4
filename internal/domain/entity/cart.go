package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem línea del carrito (precio congelado al agregar).
type CartItem struct {
	ShopProductID    string
	Name             string
	Price            decimal.Decimal
	SelectedQuantity decimal.Decimal
}

// Sum precio x cantidad de la línea.
func (i CartItem) Sum() decimal.Decimal {
	return i.Price.Mul(i.SelectedQuantity)
}

// Cart carrito del cliente con la tienda seleccionada.
type Cart struct {
	CustomerID string
	ShopID     string
	Items      []CartItem
	UpdatedAt  time.Time
}

// IsEmpty indica si no hay líneas.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Total suma de todas las líneas.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(it.Sum())
	}
	return total
}

// IsReadyToOrder el carrito alcanza el pedido mínimo de la tienda.
func (c *Cart) IsReadyToOrder(minOrderSum decimal.Decimal) bool {
	return !c.IsEmpty() && c.Total().GreaterThanOrEqual(minOrderSum)
}
