package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus estado del pedido.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAssembling      OrderStatus = "ASSEMBLING"
	OrderStatusAwaitingCourier OrderStatus = "AWAITING_COURIER"
	OrderStatusInDelivery      OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusDeclined        OrderStatus = "DECLINED"
)

// IsClosed el pedido ya no admite cambios de estado.
func (s OrderStatus) IsClosed() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusDeclined
}

// WeightStatus clasificación de una línea al completar el armado.
type WeightStatus string

const (
	WeightUnderweight WeightStatus = "underweight"
	WeightExact       WeightStatus = "exact"
	WeightOverweight  WeightStatus = "overweight"
)

// OrderItem línea del pedido. ActualQuantity se informa al completar el armado.
type OrderItem struct {
	ShopProductID     string
	Name              string
	Price             decimal.Decimal
	SelectedQuantity  decimal.Decimal
	ActualQuantity    decimal.Decimal
	WeightStatus      WeightStatus
	CompensationBonus decimal.Decimal
}

// OrderFinances snapshot financiero del pedido.
type OrderFinances struct {
	TotalCartSum      decimal.Decimal
	BonusPointsUsed   decimal.Decimal
	SentSum           decimal.Decimal
	DeliveryPrice     decimal.Decimal
	SystemTax         decimal.Decimal
	TotalSum          decimal.Decimal
	ActualCartSum     decimal.Decimal
	CompensationBonus decimal.Decimal
}

// OrderRating valoración del cliente tras la entrega.
type OrderRating struct {
	Value     int
	Comment   string
	CreatedAt time.Time
}

// Order pedido de un cliente a una tienda durante un turno.
type Order struct {
	ID                string
	CustomerID        string
	ShopID            string
	ShiftID           string
	Status            OrderStatus
	Items             []OrderItem
	Finances          OrderFinances
	DeliveryAddress   string
	CustomerComment   string
	CloseReason       string
	Rating            *OrderRating
	CreatedAt         time.Time
	AcceptedAt        *time.Time
	AssembledAt       *time.Time
	HandedToCourierAt *time.Time
	DeliveredAt       *time.Time
	ClosedAt          *time.Time
	UpdatedAt         time.Time
}

// IncomeAmount monto que se liquida al vendedor: lo realmente armado si hubo armado, si no el carrito.
func (o *Order) IncomeAmount() decimal.Decimal {
	if o.AssembledAt != nil {
		return o.Finances.ActualCartSum
	}
	return o.Finances.TotalCartSum
}

// ReservedAdjustments ajustes positivos que devuelven a stock lo reservado en el checkout.
// Si el armado ya devolvió faltantes, solo se devuelve lo efectivamente armado.
func (o *Order) ReservedAdjustments() []StockAdjustment {
	out := make([]StockAdjustment, 0, len(o.Items))
	for _, it := range o.Items {
		qty := it.SelectedQuantity
		if o.AssembledAt != nil && it.WeightStatus == WeightUnderweight {
			qty = it.ActualQuantity
		}
		out = append(out, StockAdjustment{ShopProductID: it.ShopProductID, Delta: qty})
	}
	return out
}
