package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/order"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// SetCartItemRequest body para PUT /api/cart/items.
type SetCartItemRequest struct {
	ShopID        string          `json:"shop_id" validate:"required"`
	ShopProductID string          `json:"shop_product_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
}

// CheckoutRequest body para POST /api/orders.
type CheckoutRequest struct {
	ShopID          string          `json:"shop_id" validate:"required"`
	BonusPointsUsed decimal.Decimal `json:"bonus_points_used"`
	DeliveryAddress string          `json:"delivery_address"`
	Comment         string          `json:"comment"`
}

// OrderCommandRequest cuerpo opcional de las transiciones del pedido.
type OrderCommandRequest struct {
	Comment string `json:"comment"`
}

// CompleteAssemblyRequest cantidades armadas por shop_product_id.
type CompleteAssemblyRequest struct {
	ActualQuantities map[string]decimal.Decimal `json:"actual_quantities" validate:"required"`
}

// RatingRequest valoración 1..5.
type RatingRequest struct {
	Value   int    `json:"value" validate:"min=1,max=5"`
	Comment string `json:"comment"`
}

// CartItemResponse línea del carrito.
type CartItemResponse struct {
	ShopProductID    string          `json:"shop_product_id"`
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	SelectedQuantity decimal.Decimal `json:"selected_quantity"`
	Sum              decimal.Decimal `json:"sum"`
}

// CartResponse carrito con total y pedido mínimo.
type CartResponse struct {
	CustomerID   string             `json:"customer_id"`
	ShopID       string             `json:"shop_id,omitempty"`
	Items        []CartItemResponse `json:"items"`
	Total        decimal.Decimal    `json:"total"`
	MinOrderSum  decimal.Decimal    `json:"min_order_sum"`
	ReadyToOrder bool               `json:"ready_to_order"`
}

// CartFromView convierte la vista del carrito.
func CartFromView(customerID string, v *order.CartView) CartResponse {
	resp := CartResponse{CustomerID: customerID, Items: []CartItemResponse{}, Total: v.Total, MinOrderSum: v.MinOrderSum, ReadyToOrder: v.ReadyToOrder}
	if v.Cart == nil {
		return resp
	}
	resp.ShopID = v.Cart.ShopID
	for _, it := range v.Cart.Items {
		resp.Items = append(resp.Items, CartItemResponse{
			ShopProductID: it.ShopProductID, Name: it.Name, Price: it.Price,
			SelectedQuantity: it.SelectedQuantity, Sum: it.Sum(),
		})
	}
	return resp
}

// OrderItemResponse línea del pedido.
type OrderItemResponse struct {
	ShopProductID     string          `json:"shop_product_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	SelectedQuantity  decimal.Decimal `json:"selected_quantity"`
	ActualQuantity    decimal.Decimal `json:"actual_quantity"`
	WeightStatus      string          `json:"weight_status,omitempty"`
	CompensationBonus decimal.Decimal `json:"compensation_bonus"`
}

// OrderFinancesResponse snapshot financiero.
type OrderFinancesResponse struct {
	TotalCartSum      decimal.Decimal `json:"total_cart_sum"`
	BonusPointsUsed   decimal.Decimal `json:"bonus_points_used"`
	SentSum           decimal.Decimal `json:"sent_sum"`
	DeliveryPrice     decimal.Decimal `json:"delivery_price"`
	SystemTax         decimal.Decimal `json:"system_tax"`
	TotalSum          decimal.Decimal `json:"total_sum"`
	ActualCartSum     decimal.Decimal `json:"actual_cart_sum"`
	CompensationBonus decimal.Decimal `json:"compensation_bonus"`
}

// RatingResponse valoración registrada.
type RatingResponse struct {
	Value     int       `json:"value"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID                string                `json:"id"`
	CustomerID        string                `json:"customer_id"`
	ShopID            string                `json:"shop_id"`
	ShiftID           string                `json:"shift_id"`
	Status            string                `json:"status"`
	Items             []OrderItemResponse   `json:"items"`
	Finances          OrderFinancesResponse `json:"finances"`
	DeliveryAddress   string                `json:"delivery_address,omitempty"`
	CustomerComment   string                `json:"customer_comment,omitempty"`
	CloseReason       string                `json:"close_reason,omitempty"`
	Rating            *RatingResponse       `json:"rating,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
	AcceptedAt        *time.Time            `json:"accepted_at,omitempty"`
	AssembledAt       *time.Time            `json:"assembled_at,omitempty"`
	HandedToCourierAt *time.Time            `json:"handed_to_courier_at,omitempty"`
	DeliveredAt       *time.Time            `json:"delivered_at,omitempty"`
	ClosedAt          *time.Time            `json:"closed_at,omitempty"`
}

// OrderFromEntity convierte el pedido del dominio.
func OrderFromEntity(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ShopProductID: it.ShopProductID, Name: it.Name, Price: it.Price,
			SelectedQuantity: it.SelectedQuantity, ActualQuantity: it.ActualQuantity,
			WeightStatus: string(it.WeightStatus), CompensationBonus: it.CompensationBonus,
		})
	}
	var rating *RatingResponse
	if o.Rating != nil {
		rating = &RatingResponse{Value: o.Rating.Value, Comment: o.Rating.Comment, CreatedAt: o.Rating.CreatedAt.UTC()}
	}
	return OrderResponse{
		ID: o.ID, CustomerID: o.CustomerID, ShopID: o.ShopID, ShiftID: o.ShiftID, Status: string(o.Status),
		Items:           items,
		Finances:        OrderFinancesResponse(o.Finances),
		DeliveryAddress: o.DeliveryAddress, CustomerComment: o.CustomerComment, CloseReason: o.CloseReason,
		Rating:            rating,
		CreatedAt:         o.CreatedAt.UTC(),
		AcceptedAt:        timePtr(o.AcceptedAt),
		AssembledAt:       timePtr(o.AssembledAt),
		HandedToCourierAt: timePtr(o.HandedToCourierAt),
		DeliveredAt:       timePtr(o.DeliveredAt),
		ClosedAt:          timePtr(o.ClosedAt),
	}
}
