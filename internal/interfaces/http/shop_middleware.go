package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marketplace-api/internal/application/dto"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// shopOwnerChecker es el contrato mínimo que necesita el middleware para conocer el dueño de una tienda.
// Lo implementa *shift.UseCase; el uso de interfaz evita acoplar el middleware al orquestador.
type shopOwnerChecker interface {
	ShopSeller(ctx context.Context, shopID string) (string, error)
}

// RequireShopAccess verifica que el vendedor del token sea dueño de la tienda en :shopID.
// Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - admin y employee pasan sin consulta.
//   - seller pasa solo si la tienda es suya (403 si no, 404 si la tienda no existe).
//   - 503 si falla la consulta.
func RequireShopAccess(checker shopOwnerChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		switch role {
		case entity.RoleAdmin, entity.RoleEmployee:
			return c.Next()
		case entity.RoleSeller:
		default:
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin acceso a la tienda"})
		}

		sellerID, err := checker.ShopSeller(c.Context(), c.Params("shopID"))
		if err != nil {
			if domain.Kind(err) == domain.KindNotFound {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: domain.KindNotFound, Message: "tienda no encontrada"})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "SHOP_CHECK_FAILED",
				Message: "no se pudo verificar la tienda, intente más tarde",
			})
		}
		if sellerID != GetUserID(c) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "la tienda pertenece a otro vendedor"})
		}
		return c.Next()
	}
}
