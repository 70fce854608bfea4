package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/domain"
)

// statusByKind código HTTP por tipo de error del dominio.
var statusByKind = map[string]int{
	domain.KindNotFound:          fiber.StatusNotFound,
	domain.KindValidation:        fiber.StatusBadRequest,
	domain.KindInvariant:         fiber.StatusUnprocessableEntity,
	domain.KindInvalidTransition: fiber.StatusConflict,
	domain.KindConflict:          fiber.StatusConflict,
	domain.KindUnauthorized:      fiber.StatusUnauthorized,
	domain.KindForbidden:         fiber.StatusForbidden,
}

// writeError traduce un error de los orquestadores a dto.ErrorResponse.
// Los faltantes de stock incluyen producto, solicitado y disponible; INTERNAL no expone el detalle.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	kind := domain.Kind(err)
	status, ok := statusByKind[kind]
	if !ok {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: domain.KindInternal, Message: "error interno"})
	}
	resp := dto.ErrorResponse{Code: kind, Message: err.Error()}
	var short *domain.ShortfallError
	if errors.As(err, &short) {
		resp.Code = "INSUFFICIENT_STOCK"
		resp.Details = &dto.ShortfallDetail{
			ProductID: short.ProductID,
			Requested: short.Requested.String(),
			Available: short.Available.String(),
			Shortfall: short.Shortfall().String(),
		}
	}
	return c.Status(status).JSON(resp)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// parseOptionalBody acepta cuerpo vacío (comentario opcional en las transiciones).
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func pageFromQuery(c *fiber.Ctx) (dto.PageRequest, error) {
	var p dto.PageRequest
	if err := c.QueryParser(&p); err != nil {
		return p, err
	}
	p.DefaultPage()
	return p, nil
}

func badQuery(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros de consulta inválidos"})
}
