package order

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/finance"
)

// ComputeFinances calcula el snapshot financiero del checkout.
//
//	systemTax = round(totalCartSum x taxRate)
//	sentSum   = totalCartSum - bonusPointsUsed
//	totalSum  = sentSum + deliveryPrice
func ComputeFinances(totalCartSum, bonusPointsUsed, deliveryPrice, taxRate decimal.Decimal) (entity.OrderFinances, error) {
	if bonusPointsUsed.IsNegative() {
		return entity.OrderFinances{}, fmt.Errorf("%w: puntos bonus negativos", domain.ErrValidation)
	}
	if bonusPointsUsed.GreaterThan(totalCartSum) {
		return entity.OrderFinances{}, fmt.Errorf("%w: los puntos bonus (%s) superan el total del carrito (%s)",
			domain.ErrValidation, bonusPointsUsed, totalCartSum)
	}
	sent := totalCartSum.Sub(bonusPointsUsed)
	return entity.OrderFinances{
		TotalCartSum:      totalCartSum,
		BonusPointsUsed:   bonusPointsUsed,
		SentSum:           sent,
		DeliveryPrice:     deliveryPrice,
		SystemTax:         finance.Round(totalCartSum.Mul(taxRate)),
		TotalSum:          sent.Add(deliveryPrice),
		ActualCartSum:     totalCartSum,
		CompensationBonus: decimal.Zero,
	}, nil
}
