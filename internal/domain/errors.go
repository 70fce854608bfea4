package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
// Cada orquestador envuelve uno de estos con fmt.Errorf("%w: ...") para añadir detalle.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrValidation        = errors.New("entrada inválida")
	ErrInvariant         = errors.New("regla de negocio violada")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = fmt.Errorf("%w: transición de estado no permitida", ErrInvariant)
	ErrInsufficientStock = fmt.Errorf("%w: stock insuficiente", ErrValidation)
	ErrInsufficientFunds = fmt.Errorf("%w: saldo insuficiente", ErrInvariant)
)

// Códigos expuestos a la capa HTTP.
const (
	KindNotFound          = "NOT_FOUND"
	KindValidation        = "VALIDATION"
	KindInvariant         = "INVARIANT"
	KindConflict          = "CONFLICT"
	KindInvalidTransition = "INVALID_TRANSITION"
	KindUnauthorized      = "UNAUTHORIZED"
	KindForbidden         = "FORBIDDEN"
	KindInternal          = "INTERNAL"
)

// Kind clasifica un error en uno de los códigos anteriores.
// INVALID_TRANSITION se evalúa antes que INVARIANT porque lo envuelve.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvariant):
		return KindInvariant
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// ShortfallError indica qué producto no tiene stock suficiente y por cuánto.
type ShortfallError struct {
	ProductID string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %s, disponible %s, faltan %s",
		e.ProductID, e.Requested.String(), e.Available.String(), e.Shortfall().String())
}

// Shortfall cantidad que falta para cubrir lo solicitado.
func (e *ShortfallError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *ShortfallError) Unwrap() error { return ErrInsufficientStock }

// NewShortfall construye el error de faltante.
func NewShortfall(productID string, requested, available decimal.Decimal) error {
	return &ShortfallError{ProductID: productID, Requested: requested, Available: available}
}
