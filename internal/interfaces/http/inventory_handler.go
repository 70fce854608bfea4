package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/application/inventory"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// InventoryHandler maneja los documentos de inventario y el libro de stock (protegido).
type InventoryHandler struct {
	uc  *inventory.UseCase
	log zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.UseCase, log zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, log: log}
}

func (h *InventoryHandler) documentCommand(c *fiber.Ctx) (inventory.DocumentCommand, error) {
	var in dto.DocumentCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return inventory.DocumentCommand{}, err
	}
	return inventory.DocumentCommand{DocumentID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment}, nil
}

func documentFilter(c *fiber.Ctx) repository.DocumentFilter {
	return repository.DocumentFilter{ShopID: c.Query("shop_id"), Status: entity.DocumentStatus(c.Query("status"))}
}

// ──────────────────────────────────────────────────────────────────────────────
// Bajas
// ──────────────────────────────────────────────────────────────────────────────

// CreateWriteOff godoc
// @Summary      Crear acta de baja en borrador
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWriteOffRequest  true  "shop_id, reason, items"
// @Success      201   {object}  dto.WriteOffResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/write-offs [post]
func (h *InventoryHandler) CreateWriteOff(c *fiber.Ctx) error {
	var in dto.CreateWriteOffRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CreateWriteOff(c.Context(), inventory.CreateWriteOffInput{
		ShopID: in.ShopID, Reason: in.Reason, Comment: in.Comment, Items: in.Entities(), Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.WriteOffFromEntity(doc))
}

// ConfirmWriteOff godoc
// @Summary      Confirmar baja (descuenta stock)
// @Tags         inventory
// @Failure      400   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK con detalle del faltante"
// @Router       /api/inventory/write-offs/{id}/confirm [post]
func (h *InventoryHandler) ConfirmWriteOff(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.ConfirmWriteOff(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WriteOffFromEntity(doc))
}

// CancelWriteOff godoc
// @Summary      Cancelar baja en borrador
// @Tags         inventory
// @Router       /api/inventory/write-offs/{id}/cancel [post]
func (h *InventoryHandler) CancelWriteOff(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CancelWriteOff(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WriteOffFromEntity(doc))
}

// GetWriteOff godoc
// @Summary      Obtener acta de baja
// @Tags         inventory
// @Router       /api/inventory/write-offs/{id} [get]
func (h *InventoryHandler) GetWriteOff(c *fiber.Ctx) error {
	doc, err := h.uc.GetWriteOff(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WriteOffFromEntity(doc))
}

// ListWriteOffs godoc
// @Summary      Listar actas de baja
// @Tags         inventory
// @Router       /api/inventory/write-offs [get]
func (h *InventoryHandler) ListWriteOffs(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListWriteOffs(c.Context(), documentFilter(c), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.WriteOffResponse]{Items: dto.MapList(items, dto.WriteOffFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepciones
// ──────────────────────────────────────────────────────────────────────────────

// CreateReceiving godoc
// @Summary      Registrar recepción en borrador
// @Tags         inventory
// @Param        body  body  dto.CreateReceivingRequest  true  "shop_id, supplier, items"
// @Router       /api/inventory/receivings [post]
func (h *InventoryHandler) CreateReceiving(c *fiber.Ctx) error {
	var in dto.CreateReceivingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CreateReceiving(c.Context(), inventory.CreateReceivingInput{
		ShopID: in.ShopID, Supplier: in.Supplier, Comment: in.Comment, Items: in.Entities(), Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceivingFromEntity(doc))
}

// ConfirmReceiving godoc
// @Summary      Confirmar recepción (suma stock). quantities sobrescribe lo recibido por shop_product_id.
// @Tags         inventory
// @Router       /api/inventory/receivings/{id}/confirm [post]
func (h *InventoryHandler) ConfirmReceiving(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.ConfirmReceiving(c.Context(), inventory.ConfirmReceivingInput{
		DocumentCommand:  inventory.DocumentCommand{DocumentID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment},
		ActualQuantities: in.Quantities,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReceivingFromEntity(doc))
}

// CancelReceiving godoc
// @Summary      Cancelar recepción en borrador
// @Tags         inventory
// @Router       /api/inventory/receivings/{id}/cancel [post]
func (h *InventoryHandler) CancelReceiving(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CancelReceiving(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReceivingFromEntity(doc))
}

// GetReceiving godoc
// @Summary      Obtener recepción
// @Tags         inventory
// @Router       /api/inventory/receivings/{id} [get]
func (h *InventoryHandler) GetReceiving(c *fiber.Ctx) error {
	doc, err := h.uc.GetReceiving(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReceivingFromEntity(doc))
}

// ListReceivings godoc
// @Summary      Listar recepciones
// @Tags         inventory
// @Router       /api/inventory/receivings [get]
func (h *InventoryHandler) ListReceivings(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListReceivings(c.Context(), documentFilter(c), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.ReceivingResponse]{Items: dto.MapList(items, dto.ReceivingFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

// CreateTransfer godoc
// @Summary      Crear traslado en borrador
// @Tags         inventory
// @Param        body  body  dto.CreateTransferRequest  true  "source_shop_id, target_shop_id, items por product_id"
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.TransferLine, 0, len(in.Items))
	for _, it := range in.Items {
		lines = append(lines, inventory.TransferLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	doc, err := h.uc.CreateTransfer(c.Context(), inventory.CreateTransferInput{
		SourceShopID: in.SourceShopID, TargetShopID: in.TargetShopID, Comment: in.Comment, Items: lines, Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferFromEntity(doc))
}

// SendTransfer godoc
// @Summary      Enviar traslado (descuenta stock en origen)
// @Tags         inventory
// @Router       /api/inventory/transfers/{id}/send [post]
func (h *InventoryHandler) SendTransfer(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.SendTransfer(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferFromEntity(doc))
}

// ReceiveTransfer godoc
// @Summary      Recibir traslado en destino. quantities por product_id permite recibir menos de lo enviado.
// @Tags         inventory
// @Router       /api/inventory/transfers/{id}/receive [post]
func (h *InventoryHandler) ReceiveTransfer(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.ReceiveTransfer(c.Context(), inventory.ReceiveTransferInput{
		DocumentCommand:    inventory.DocumentCommand{DocumentID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment},
		ReceivedQuantities: in.Quantities,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferFromEntity(doc))
}

// CancelTransfer godoc
// @Summary      Cancelar traslado en borrador
// @Tags         inventory
// @Router       /api/inventory/transfers/{id}/cancel [post]
func (h *InventoryHandler) CancelTransfer(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CancelTransfer(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferFromEntity(doc))
}

// GetTransfer godoc
// @Summary      Obtener traslado
// @Tags         inventory
// @Router       /api/inventory/transfers/{id} [get]
func (h *InventoryHandler) GetTransfer(c *fiber.Ctx) error {
	doc, err := h.uc.GetTransfer(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TransferFromEntity(doc))
}

// ListTransfers godoc
// @Summary      Listar traslados (shop_id filtra por origen o destino)
// @Tags         inventory
// @Router       /api/inventory/transfers [get]
func (h *InventoryHandler) ListTransfers(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListTransfers(c.Context(), documentFilter(c), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.TransferResponse]{Items: dto.MapList(items, dto.TransferFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventarios físicos
// ──────────────────────────────────────────────────────────────────────────────

// CreateAudit godoc
// @Summary      Abrir inventario físico
// @Tags         inventory
// @Router       /api/inventory/audits [post]
func (h *InventoryHandler) CreateAudit(c *fiber.Ctx) error {
	var in dto.CreateAuditRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CreateAudit(c.Context(), inventory.CreateAuditInput{
		ShopID: in.ShopID, ShopProductIDs: in.ShopProductIDs, Comment: in.Comment, Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.AuditFromEntity(doc))
}

// UpdateAuditCounts godoc
// @Summary      Cargar conteos físicos por shop_product_id
// @Tags         inventory
// @Router       /api/inventory/audits/{id}/counts [put]
func (h *InventoryHandler) UpdateAuditCounts(c *fiber.Ctx) error {
	var in dto.QuantitiesRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.UpdateAuditCounts(c.Context(), inventory.UpdateAuditCountsInput{
		DocumentID: c.Params("id"), Counts: in.Quantities, Actor: GetActor(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AuditFromEntity(doc))
}

// CompleteAudit godoc
// @Summary      Completar inventario; con apply_results ajusta stock a lo contado
// @Tags         inventory
// @Router       /api/inventory/audits/{id}/complete [post]
func (h *InventoryHandler) CompleteAudit(c *fiber.Ctx) error {
	var in dto.CompleteAuditRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CompleteAudit(c.Context(), inventory.CompleteAuditInput{
		DocumentCommand: inventory.DocumentCommand{DocumentID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment},
		ApplyResults:    in.ApplyResults,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AuditFromEntity(doc))
}

// CancelAudit godoc
// @Summary      Cancelar inventario en borrador
// @Tags         inventory
// @Router       /api/inventory/audits/{id}/cancel [post]
func (h *InventoryHandler) CancelAudit(c *fiber.Ctx) error {
	cmd, err := h.documentCommand(c)
	if err != nil {
		return badBody(c)
	}
	doc, err := h.uc.CancelAudit(c.Context(), cmd)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AuditFromEntity(doc))
}

// GetAudit godoc
// @Summary      Obtener inventario físico
// @Tags         inventory
// @Router       /api/inventory/audits/{id} [get]
func (h *InventoryHandler) GetAudit(c *fiber.Ctx) error {
	doc, err := h.uc.GetAudit(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AuditFromEntity(doc))
}

// ListAudits godoc
// @Summary      Listar inventarios físicos
// @Tags         inventory
// @Router       /api/inventory/audits [get]
func (h *InventoryHandler) ListAudits(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	items, err := h.uc.ListAudits(c.Context(), documentFilter(c), page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.AuditResponse]{Items: dto.MapList(items, dto.AuditFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de stock
// ──────────────────────────────────────────────────────────────────────────────

// ListMovements godoc
// @Summary      Historial del libro de stock
// @Tags         inventory
// @Param        shop_id          query  string  false  "tienda"
// @Param        shop_product_id  query  string  false  "producto de tienda"
// @Param        document_id      query  string  false  "documento origen"
// @Param        type             query  string  false  "RECEIVING, WRITE_OFF, TRANSFER, ORDER_RESERVATION, ORDER_RETURN"
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	filter := repository.StockMovementFilter{
		ShopID:        c.Query("shop_id"),
		ShopProductID: c.Query("shop_product_id"),
		DocumentID:    c.Query("document_id"),
		Type:          entity.MovementType(c.Query("type")),
	}
	items, err := h.uc.MovementHistory(c.Context(), filter, page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.StockMovementResponse]{Items: dto.MapList(items, dto.StockMovementFromEntity), Page: dto.NewPageResponse(page.ToPage(), len(items))})
}

// VerifyBalance godoc
// @Summary      Verificar que el último saldo del libro coincide con el stock
// @Tags         inventory
// @Success      200  {object}  map[string]bool
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/verify [get]
func (h *InventoryHandler) VerifyBalance(c *fiber.Ctx) error {
	if err := h.uc.VerifyBalance(c.Context(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"balanced": true})
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición de una tienda
// @Description  Productos por debajo del punto de reorden con la cantidad sugerida, calculados a partir
//
//	de las reservas netas de pedidos en la ventana.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        window_days    query  int  false  "Ventana de ventas en días (30)"
// @Param        coverage_days  query  int  false  "Días de cobertura deseados (7)"
// @Success      200  {array}   inventory.ReplenishmentSuggestion
// @Router       /api/shops/{shopID}/replenishment [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	window, err := strconv.Atoi(c.Query("window_days", "30"))
	if err != nil {
		return badQuery(c)
	}
	coverage, err := strconv.Atoi(c.Query("coverage_days", "7"))
	if err != nil {
		return badQuery(c)
	}
	list, err := h.uc.Replenishment(c.Context(), inventory.ReplenishmentInput{ShopID: c.Params("shopID"), WindowDays: window, CoverageDays: coverage})
	if err != nil {
		return writeError(c, h.log, err)
	}
	if list == nil {
		list = []inventory.ReplenishmentSuggestion{}
	}
	return c.JSON(list)
}
