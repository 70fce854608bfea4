package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/application/order"
	"github.com/jhoicas/marketplace-api/internal/application/shift"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ShiftUC     *shift.UseCase
	InventoryUC *inventory.UseCase
	OrderUC     *order.UseCase
	FinanceUC   *finance.UseCase
	Metrics     *metrics.ServerMetrics
	Log         zerolog.Logger
	ServiceName string
	JWTSecret   string
}

const (
	roleAdmin    = entity.RoleAdmin
	roleEmployee = entity.RoleEmployee
	roleSeller   = entity.RoleSeller
	roleCustomer = entity.RoleCustomer
)

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(MetricsMiddleware(deps.Metrics))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	staff := RequireRole(roleAdmin, roleEmployee, roleSeller)
	adminOnly := RequireRole(roleAdmin)

	// Turnos
	shiftHandler := NewShiftHandler(deps.ShiftUC, deps.Log)
	shifts := protected.Group("/shifts")
	shifts.Post("/", RequireRole(roleAdmin, roleEmployee), shiftHandler.Open)
	shifts.Get("/:id", staff, shiftHandler.GetByID)
	shifts.Post("/:id/pause", RequireRole(roleAdmin, roleEmployee), shiftHandler.Pause)
	shifts.Post("/:id/resume", RequireRole(roleAdmin, roleEmployee), shiftHandler.Resume)
	shifts.Post("/:id/start-closing", RequireRole(roleAdmin, roleEmployee), shiftHandler.StartClosing)
	shifts.Post("/:id/close", RequireRole(roleAdmin, roleEmployee), shiftHandler.Close)
	shifts.Post("/:id/force-close", adminOnly, shiftHandler.ForceClose)

	// Inventario
	invHandler := NewInventoryHandler(deps.InventoryUC, deps.Log)
	inv := protected.Group("/inventory", staff)
	inv.Post("/write-offs", invHandler.CreateWriteOff)
	inv.Get("/write-offs", invHandler.ListWriteOffs)
	inv.Get("/write-offs/:id", invHandler.GetWriteOff)
	inv.Post("/write-offs/:id/confirm", invHandler.ConfirmWriteOff)
	inv.Post("/write-offs/:id/cancel", invHandler.CancelWriteOff)
	inv.Post("/receivings", invHandler.CreateReceiving)
	inv.Get("/receivings", invHandler.ListReceivings)
	inv.Get("/receivings/:id", invHandler.GetReceiving)
	inv.Post("/receivings/:id/confirm", invHandler.ConfirmReceiving)
	inv.Post("/receivings/:id/cancel", invHandler.CancelReceiving)
	inv.Post("/transfers", invHandler.CreateTransfer)
	inv.Get("/transfers", invHandler.ListTransfers)
	inv.Get("/transfers/:id", invHandler.GetTransfer)
	inv.Post("/transfers/:id/send", invHandler.SendTransfer)
	inv.Post("/transfers/:id/receive", invHandler.ReceiveTransfer)
	inv.Post("/transfers/:id/cancel", invHandler.CancelTransfer)
	inv.Post("/audits", invHandler.CreateAudit)
	inv.Get("/audits", invHandler.ListAudits)
	inv.Get("/audits/:id", invHandler.GetAudit)
	inv.Put("/audits/:id/counts", invHandler.UpdateAuditCounts)
	inv.Post("/audits/:id/complete", invHandler.CompleteAudit)
	inv.Post("/audits/:id/cancel", invHandler.CancelAudit)
	inv.Get("/movements", invHandler.ListMovements)
	inv.Get("/products/:id/verify", invHandler.VerifyBalance)

	// Carrito y pedidos
	orderHandler := NewOrderHandler(deps.OrderUC, deps.Log)
	cart := protected.Group("/cart", RequireRole(roleCustomer))
	cart.Get("/", orderHandler.GetCart)
	cart.Put("/items", orderHandler.SetCartItem)

	orders := protected.Group("/orders")
	orders.Post("/", RequireRole(roleCustomer), orderHandler.Checkout)
	orders.Get("/", orderHandler.List)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/accept", RequireRole(roleAdmin, roleEmployee), orderHandler.Accept)
	orders.Post("/:id/complete-assembly", RequireRole(roleAdmin, roleEmployee), orderHandler.CompleteAssembly)
	orders.Post("/:id/hand-to-courier", RequireRole(roleAdmin, roleEmployee), orderHandler.HandToCourier)
	orders.Post("/:id/deliver", RequireRole(roleAdmin, roleEmployee), orderHandler.Deliver)
	orders.Post("/:id/cancel", RequireRole(roleAdmin, roleEmployee, roleCustomer), orderHandler.Cancel)
	orders.Post("/:id/decline", RequireRole(roleAdmin, roleEmployee, roleCustomer), orderHandler.Decline)
	orders.Post("/:id/rating", RequireRole(roleCustomer), orderHandler.SetRating)

	// Finanzas
	finHandler := NewFinanceHandler(deps.FinanceUC, deps.Log)
	fin := protected.Group("/finance")
	fin.Post("/shop-accounts", adminOnly, finHandler.OpenShopAccount)
	fin.Post("/shop-accounts/:id/refunds", adminOnly, finHandler.Refund)
	fin.Post("/shop-accounts/:id/penalties", adminOnly, finHandler.Penalty)
	fin.Get("/periods", RequireRole(roleAdmin, roleSeller), finHandler.ListPeriods)
	fin.Get("/periods/:id", RequireRole(roleAdmin, roleSeller), finHandler.GetPeriod)
	fin.Get("/periods/:id/transactions", RequireRole(roleAdmin, roleSeller), finHandler.ListPeriodTransactions)
	fin.Post("/periods/:id/close", adminOnly, finHandler.ClosePeriod)
	fin.Post("/periods/:id/approve", adminOnly, finHandler.ApprovePeriod)
	fin.Get("/seller-accounts/:id", RequireRole(roleAdmin, roleSeller), finHandler.GetSellerAccount)
	fin.Post("/withdrawals", RequireRole(roleSeller), finHandler.CreateWithdrawal)
	fin.Get("/withdrawals", RequireRole(roleAdmin, roleSeller), finHandler.ListWithdrawals)
	fin.Post("/withdrawals/:id/approve", adminOnly, finHandler.ApproveWithdrawal)
	fin.Post("/withdrawals/:id/reject", adminOnly, finHandler.RejectWithdrawal)
	fin.Get("/platform", adminOnly, finHandler.GetPlatformAccount)
	fin.Get("/platform/transactions", adminOnly, finHandler.ListPlatformTransactions)

	// Vistas por tienda: el vendedor solo accede a las suyas
	shopAccess := RequireShopAccess(deps.ShiftUC)
	shops := protected.Group("/shops")
	shops.Get("/:shopID/shifts", staff, shopAccess, shiftHandler.ListByShop)
	shops.Get("/:shopID/replenishment", staff, shopAccess, invHandler.GetReplenishmentList)
	shops.Get("/:shopID/account", staff, shopAccess, finHandler.GetShopAccount)
}
