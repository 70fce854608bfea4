package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/application/shift"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// ShiftHandler maneja el ciclo de vida de los turnos (protegido).
type ShiftHandler struct {
	uc  *shift.UseCase
	log zerolog.Logger
}

// NewShiftHandler construye el handler.
func NewShiftHandler(uc *shift.UseCase, log zerolog.Logger) *ShiftHandler {
	return &ShiftHandler{uc: uc, log: log}
}

// Open godoc
// @Summary      Abrir turno
// @Tags         shifts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenShiftRequest  true  "shop_id"
// @Success      201   {object}  dto.ShiftResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/shifts [post]
func (h *ShiftHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenShiftRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sh, err := h.uc.OpenShift(c.Context(), shift.OpenShiftInput{ShopID: in.ShopID, Actor: GetActor(c), Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ShiftFromEntity(sh))
}

// Pause godoc
// @Summary      Pausar turno
// @Tags         shifts
// @Router       /api/shifts/{id}/pause [post]
func (h *ShiftHandler) Pause(c *fiber.Ctx) error { return h.command(c, h.uc.Pause) }

// Resume godoc
// @Summary      Reanudar turno
// @Tags         shifts
// @Router       /api/shifts/{id}/resume [post]
func (h *ShiftHandler) Resume(c *fiber.Ctx) error { return h.command(c, h.uc.Resume) }

// StartClosing godoc
// @Summary      Iniciar cierre del turno
// @Tags         shifts
// @Router       /api/shifts/{id}/start-closing [post]
func (h *ShiftHandler) StartClosing(c *fiber.Ctx) error { return h.command(c, h.uc.StartClosing) }

// Close godoc
// @Summary      Cerrar turno
// @Tags         shifts
// @Router       /api/shifts/{id}/close [post]
func (h *ShiftHandler) Close(c *fiber.Ctx) error { return h.command(c, h.uc.Close) }

// ForceClose godoc
// @Summary      Cierre forzado (solo admin)
// @Tags         shifts
// @Router       /api/shifts/{id}/force-close [post]
func (h *ShiftHandler) ForceClose(c *fiber.Ctx) error { return h.command(c, h.uc.ForceClose) }

func (h *ShiftHandler) command(c *fiber.Ctx, fn func(context.Context, shift.ShiftCommand) (*entity.Shift, error)) error {
	var in dto.ShiftCommandRequest
	if err := parseOptionalBody(c, &in); err != nil {
		return badBody(c)
	}
	sh, err := fn(c.Context(), shift.ShiftCommand{ShiftID: c.Params("id"), Actor: GetActor(c), Comment: in.Comment})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ShiftFromEntity(sh))
}

// GetByID godoc
// @Summary      Obtener turno
// @Tags         shifts
// @Router       /api/shifts/{id} [get]
func (h *ShiftHandler) GetByID(c *fiber.Ctx) error {
	sh, err := h.uc.Get(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ShiftFromEntity(sh))
}

// ListByShop godoc
// @Summary      Turnos de una tienda
// @Tags         shifts
// @Param        status  query  string  false  "OPEN, PAUSED, CLOSING, CLOSED"
// @Router       /api/shops/{shopID}/shifts [get]
func (h *ShiftHandler) ListByShop(c *fiber.Ctx) error {
	page, err := pageFromQuery(c)
	if err != nil {
		return badQuery(c)
	}
	filter := repository.ShiftFilter{ShopID: c.Params("shopID"), Status: entity.ShiftStatus(c.Query("status"))}
	items, err := h.uc.List(c.Context(), filter, page.ToPage())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ListResponse[dto.ShiftResponse]{
		Items: dto.MapList(items, dto.ShiftFromEntity),
		Page:  dto.NewPageResponse(page.ToPage(), len(items)),
	})
}
