package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/application/finance"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// FinanceHandler maneja cuentas, periodos de liquidación y retiros (protegido).
type FinanceHandler struct {
	uc  *finance.UseCase
	log zerolog.Logger
}

// NewFinanceHandler construye el handler.
func NewFinanceHandler(uc *finance.UseCase, log zerolog.Logger) *FinanceHandler {
	return &FinanceHandler{uc: uc, log: log}
}

// OpenShopAccount godoc
// @Summary      Alta de la cuenta de liquidación de una tienda
// @Tags         finance
// @Param        body  body  dto.OpenShopAccountRequest  true  "shop_id, seller_account_id, commission_percent"
// @Success      201   {object}  dto.ShopAccountResponse
// @Router       /api/finance/shop-accounts [post]
func (h *FinanceHandler) OpenShopAccount(c *fiber.Ctx) error {
	var in dto.OpenShopAccountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	acc, err := h.uc.OpenShopAccount(c.Context(), finance.OpenShopAccountInput{
		ShopID: in.ShopID, SellerAccountID: in.SellerAccountID, CommissionPercent: in.CommissionPercent,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ShopAccountFromEntity(acc))
}

// GetShopAccount godoc
// @Summary      Cuenta de liquidación de una tienda
// @Tags         finance
// @Router       /api/shops/{shopID}/account [get]
func (h *FinanceHandler) GetShopAccount(c *fiber.Ctx) error {
	acc, err := h.uc.GetShopAccountByShop(c.Context(), c.Params("shopID"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ShopAccountFromEntity(acc))
}

// Refund godoc
// @Summary      Reembolso sobre la cuenta de una tienda
// @Tags         finance
// @Param        body  body  dto.AdjustmentRequest  true  "order_id, amount, reason"
// @Router       /api/finance/shop-accounts/{id}/refunds [post]
func (h *FinanceHandler) Refund(c *fiber.Ctx) error {
	in, ok := h.adjustment(c)
	if !ok {
		return badBody(c)
	}
	p, err := h.uc.ProcessRefund(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PeriodFromEntity(p))
}

// Penalty godoc
// @Summary      Penalización sobre la cuenta de una tienda
// @Tags         finance
// @Param        body  body  dto.AdjustmentRequest  true  "order_id, amount, reason"
// @Router       /api/finance/shop-accounts/{id}/penalties [post]
func (h *FinanceHandler) Penalty(c *fiber.Ctx) error {
	in, ok := h.adjustment(c)
	if !ok {
		return badBody(c)
	}
	p, err := h.uc.ApplyPenalty(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PeriodFromEntity(p))
}

func (h *FinanceHandler) adjustment(c *fiber.Ctx) (finance.AdjustmentInput, bool) {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return finance.AdjustmentInput{}, false
	}
	return finance.AdjustmentInput{
		ShopAccountID: c.Params("id"), OrderID: in.OrderID, Amount: in.Amount, Reason: in.Reason, Actor: GetActor(c),
	}, true
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodos
// ──────────────────────────────────────────────────────────────────────────────

// ClosePeriod godoc
// @Summary      Cerrar periodo (ACTIVE -> PENDING_APPROVAL) y abrir el siguiente
// @Tags         finance
// @Success      200  {object}  dto.PeriodTransitionResponse
// @Router       /api/finance/periods/{id}/close [post]
func (h *FinanceHandler) ClosePeriod(c *fiber.Ctx) error {
	var in dto.PeriodCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	tr, err := h.uc.CloseSettlementPeriod(c.Context(), finance.PeriodCommand{PeriodID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PeriodTransitionResponse{Closed: dto.PeriodFromEntity(tr.Closed), Next: dto.PeriodFromEntity(tr.Next)})
}

// ApprovePeriod godoc
// @Summary      Aprobar periodo y liberar el monto al vendedor
// @Tags         finance
// @Router       /api/finance/periods/{id}/approve [post]
func (h *FinanceHandler) ApprovePeriod(c *fiber.Ctx) error {
	var in dto.PeriodCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	p, err := h.uc.ApproveSettlementPeriod(c.Context(), finance.PeriodCommand{PeriodID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PeriodFromEntity(p))
}

// GetPeriod godoc
// @Summary      Obtener periodo
// @Tags         finance
// @Router       /api/finance/periods/{id} [get]
func (h *FinanceHandler) GetPeriod(c *fiber.Ctx) error {
	p, err := h.uc.GetPeriod(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PeriodFromEntity(p))
}

// ListPeriods godoc
// @Summary      Listar periodos
// @Tags         finance
// @Param        shop_account_id  query  string  false  "cuenta de la tienda"
// @Param        status           query  string  false  "ACTIVE, PENDING_APPROVAL, RELEASED"
// @Router       /api/finance/periods [get]
func (h *FinanceHandler) ListPeriods(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	filter := repository.SettlementPeriodFilter{ShopAccountID: c.Query("shop_account_id"), Status: entity.PeriodStatus(c.Query("status"))}
	items, err := h.uc.ListPeriods(c.Context(), filter, page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.PeriodResponse]{Items: dto.MapList(items, dto.PeriodFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ListPeriodTransactions godoc
// @Summary      Asientos de un periodo
// @Tags         finance
// @Router       /api/finance/periods/{id}/transactions [get]
func (h *FinanceHandler) ListPeriodTransactions(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListPeriodTransactions(c.Context(), c.Params("id"), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.SettlementTransactionResponse]{Items: dto.MapList(items, dto.SettlementTransactionFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ──────────────────────────────────────────────────────────────────────────────
// Vendedor y plataforma
// ──────────────────────────────────────────────────────────────────────────────

// GetSellerAccount godoc
// @Summary      Cuenta del vendedor
// @Tags         finance
// @Router       /api/finance/seller-accounts/{id} [get]
func (h *FinanceHandler) GetSellerAccount(c *fiber.Ctx) error {
	acc, err := h.uc.GetSellerAccount(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if GetRole(c) == entity.RoleSeller && acc.SellerID != GetUserID(c) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la cuenta pertenece a otro vendedor"})
	}
	return c.JSON(dto.SellerAccountFromEntity(acc))
}

// CreateWithdrawal godoc
// @Summary      Solicitar retiro (PENDING, no mueve dinero)
// @Tags         finance
// @Param        body  body  dto.CreateWithdrawalRequest  true  "seller_account_id, amount"
// @Router       /api/finance/withdrawals [post]
func (h *FinanceHandler) CreateWithdrawal(c *fiber.Ctx) error {
	var in dto.CreateWithdrawalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	w, err := h.uc.CreateWithdrawalRequest(c.Context(), finance.CreateWithdrawalInput{
		SellerAccountID: in.SellerAccountID, Amount: in.Amount, Comment: in.Comment, Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.WithdrawalFromEntity(w))
}

// ApproveWithdrawal godoc
// @Summary      Aprobar retiro (debita al vendedor y registra SELLER_PAYOUT)
// @Tags         finance
// @Router       /api/finance/withdrawals/{id}/approve [post]
func (h *FinanceHandler) ApproveWithdrawal(c *fiber.Ctx) error {
	cmd, ok := h.withdrawalCommand(c)
	if !ok {
		return badBody(c)
	}
	w, err := h.uc.ApproveWithdrawal(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WithdrawalFromEntity(w))
}

// RejectWithdrawal godoc
// @Summary      Rechazar retiro
// @Tags         finance
// @Router       /api/finance/withdrawals/{id}/reject [post]
func (h *FinanceHandler) RejectWithdrawal(c *fiber.Ctx) error {
	cmd, ok := h.withdrawalCommand(c)
	if !ok {
		return badBody(c)
	}
	w, err := h.uc.RejectWithdrawal(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WithdrawalFromEntity(w))
}

func (h *FinanceHandler) withdrawalCommand(c *fiber.Ctx) (finance.WithdrawalCommand, bool) {
	var in dto.WithdrawalCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return finance.WithdrawalCommand{}, false
	}
	return finance.WithdrawalCommand{WithdrawalID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment}, true
}

// ListWithdrawals godoc
// @Summary      Listar solicitudes de retiro
// @Tags         finance
// @Router       /api/finance/withdrawals [get]
func (h *FinanceHandler) ListWithdrawals(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	filter := repository.WithdrawalFilter{SellerAccountID: c.Query("seller_account_id"), Status: entity.WithdrawalStatus(c.Query("status"))}
	items, err := h.uc.ListWithdrawals(c.Context(), filter, page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.WithdrawalResponse]{Items: dto.MapList(items, dto.WithdrawalFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// GetPlatformAccount godoc
// @Summary      Libro de la plataforma
// @Tags         finance
// @Router       /api/finance/platform [get]
func (h *FinanceHandler) GetPlatformAccount(c *fiber.Ctx) error {
	acc, err := h.uc.GetPlatformAccount(c.Context())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.PlatformAccountFromEntity(acc))
}

// ListPlatformTransactions godoc
// @Summary      Asientos de la plataforma
// @Tags         finance
// @Router       /api/finance/platform/transactions [get]
func (h *FinanceHandler) ListPlatformTransactions(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListPlatformTransactions(c.Context(), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.PlatformTransactionResponse]{Items: dto.MapList(items, dto.PlatformTransactionFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}
