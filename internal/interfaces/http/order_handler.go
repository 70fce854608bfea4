package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/application/order"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// OrderHandler maneja carrito y ciclo de vida del pedido (protegido).
type OrderHandler struct {
	uc  *order.UseCase
	log zerolog.Logger
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *order.UseCase, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, log: log}
}

// GetCart godoc
// @Summary      Carrito del cliente autenticado
// @Tags         cart
// @Success      200  {object}  dto.CartResponse
// @Router       /api/cart [get]
func (h *OrderHandler) GetCart(c *fiber.Ctx) error {
	customerID := GetUserID(c)
	view, err := h.uc.GetCart(c.Context(), customerID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CartFromView(customerID, view))
}

// SetCartItem godoc
// @Summary      Fijar cantidad de un producto en el carrito (0 quita la línea)
// @Tags         cart
// @Param        body  body  dto.SetCartItemRequest  true  "shop_id, shop_product_id, quantity"
// @Router       /api/cart/items [put]
func (h *OrderHandler) SetCartItem(c *fiber.Ctx) error {
	var in dto.SetCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	customerID := GetUserID(c)
	view, err := h.uc.SetCartItem(c.Context(), order.SetCartItemInput{
		CustomerID: customerID, ShopID: in.ShopID, ShopProductID: in.ShopProductID, Quantity: in.Quantity,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.CartFromView(customerID, view))
}

// Checkout godoc
// @Summary      Checkout: convierte el carrito en pedido PENDING
// @Tags         orders
// @Param        body  body  dto.CheckoutRequest  true  "shop_id, bonus_points_used, delivery_address"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con detalle del faltante"
// @Failure      422   {object}  dto.ErrorResponse  "tienda cerrada o sin turno abierto"
// @Router       /api/orders [post]
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	actor := GetActor(c)
	o, err := h.uc.Checkout(c.Context(), order.CheckoutInput{
		CustomerID: actor.ID, ShopID: in.ShopID, BonusPointsUsed: in.BonusPointsUsed,
		DeliveryAddress: in.DeliveryAddress, Comment: in.Comment, Actor: actor,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(o))
}

// Accept godoc
// @Summary      Aceptar pedido (PENDING -> ASSEMBLING)
// @Tags         orders
// @Router       /api/orders/{id}/accept [post]
func (h *OrderHandler) Accept(c *fiber.Ctx) error { return h.command(c, h.uc.AcceptOrder) }

// HandToCourier godoc
// @Summary      Entregar al courier (AWAITING_COURIER -> IN_DELIVERY)
// @Tags         orders
// @Router       /api/orders/{id}/hand-to-courier [post]
func (h *OrderHandler) HandToCourier(c *fiber.Ctx) error { return h.command(c, h.uc.HandToCourier) }

// Deliver godoc
// @Summary      Marcar entregado; el registro financiero es posterior y no revierte la entrega
// @Tags         orders
// @Router       /api/orders/{id}/deliver [post]
func (h *OrderHandler) Deliver(c *fiber.Ctx) error { return h.command(c, h.uc.DeliverOrder) }

// Cancel godoc
// @Summary      Cancelar pedido (devuelve stock y puntos)
// @Tags         orders
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *fiber.Ctx) error { return h.command(c, h.uc.CancelOrder) }

// Decline godoc
// @Summary      Rechazo del cliente al recibir
// @Tags         orders
// @Router       /api/orders/{id}/decline [post]
func (h *OrderHandler) Decline(c *fiber.Ctx) error { return h.command(c, h.uc.DeclineOrder) }

func (h *OrderHandler) command(c *fiber.Ctx, fn func(context.Context, order.OrderCommand) (*entity.Order, error)) error {
	var in dto.OrderCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	o, err := fn(c.Context(), order.OrderCommand{OrderID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// CompleteAssembly godoc
// @Summary      Completar armado con cantidades reales (compensa faltantes con puntos)
// @Tags         orders
// @Param        body  body  dto.CompleteAssemblyRequest  true  "actual_quantities por shop_product_id"
// @Router       /api/orders/{id}/complete-assembly [post]
func (h *OrderHandler) CompleteAssembly(c *fiber.Ctx) error {
	var in dto.CompleteAssemblyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.uc.CompleteAssembly(c.Context(), order.CompleteAssemblyInput{
		OrderID: c.Params("id"), Actor: GetActor(c), ActualQuantities: in.ActualQuantities,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// SetRating godoc
// @Summary      Valorar pedido entregado (una sola vez)
// @Tags         orders
// @Param        body  body  dto.RatingRequest  true  "value 1..5"
// @Router       /api/orders/{id}/rating [post]
func (h *OrderHandler) SetRating(c *fiber.Ctx) error {
	var in dto.RatingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.uc.SetRating(c.Context(), order.SetRatingInput{OrderID: c.Params("id"), Actor: GetActor(c), Value: in.Value, Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.uc.GetOrder(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if GetRole(c) == entity.RoleCustomer && o.CustomerID != GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el pedido pertenece a otro cliente"})
	}
	return c.JSON(dto.OrderFromEntity(o))
}

// List godoc
// @Summary      Listar pedidos. Un cliente solo ve los suyos.
// @Tags         orders
// @Param        shop_id   query  string  false  "tienda"
// @Param        shift_id  query  string  false  "turno"
// @Param        status    query  string  false  "estado"
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	filter := repository.OrderFilter{
		ShopID:     c.Query("shop_id"),
		ShiftID:    c.Query("shift_id"),
		CustomerID: c.Query("customer_id"),
		Status:     entity.OrderStatus(c.Query("status")),
	}
	if GetRole(c) == entity.RoleCustomer {
		filter.CustomerID = GetUserID(c)
	}
	items, err := h.uc.ListOrders(c.Context(), filter, page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.OrderResponse]{Items: dto.MapList(items, dto.OrderFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}
