package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/finance"
)

// DefaultMinWeightDifferencePercentage tolerancia por defecto para productos a peso.
var DefaultMinWeightDifferencePercentage = decimal.RequireFromString("0.9")

// LineAssembly resultado del armado de una línea.
type LineAssembly struct {
	Status       entity.WeightStatus
	Shortfall    decimal.Decimal
	Compensation decimal.Decimal
}

// ClassifyLine compara lo armado contra lo seleccionado.
// Por debajo de selected x tolerance es underweight: se compensa round((selected - actual) x price)
// en puntos bonus y el faltante vuelve a stock.
func ClassifyLine(selected, actual, price, tolerance decimal.Decimal) (LineAssembly, error) {
	if actual.IsNegative() {
		return LineAssembly{}, fmt.Errorf("%w: cantidad armada negativa", domain.ErrValidation)
	}
	switch {
	case actual.LessThan(selected.Mul(tolerance)):
		shortfall := selected.Sub(actual)
		return LineAssembly{
			Status:       entity.WeightUnderweight,
			Shortfall:    shortfall,
			Compensation: finance.Round(shortfall.Mul(price)),
		}, nil
	case actual.GreaterThan(selected):
		return LineAssembly{Status: entity.WeightOverweight, Shortfall: decimal.Zero, Compensation: decimal.Zero}, nil
	default:
		return LineAssembly{Status: entity.WeightExact, Shortfall: decimal.Zero, Compensation: decimal.Zero}, nil
	}
}
