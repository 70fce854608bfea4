package finance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
)

// MoneyScale decimales con los que se redondean los importes.
const MoneyScale int32 = 0

var hundred = decimal.NewFromInt(100)

// Round redondea un importe a MoneyScale.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(MoneyScale)
}

// CommissionSplit reparto de un ingreso: NetIncome + Commission = OrderAmount.
type CommissionSplit struct {
	OrderAmount decimal.Decimal
	Commission  decimal.Decimal
	NetIncome   decimal.Decimal
}

// SplitCommission calcula la comisión (round(monto x porcentaje / 100)) salvo que se informe explícita.
func SplitCommission(orderAmount, commissionPercent decimal.Decimal, explicit *decimal.Decimal) (CommissionSplit, error) {
	if !orderAmount.IsPositive() {
		return CommissionSplit{}, fmt.Errorf("%w: el monto del pedido debe ser positivo", domain.ErrValidation)
	}
	var commission decimal.Decimal
	if explicit != nil {
		commission = *explicit
	} else {
		if commissionPercent.IsNegative() || commissionPercent.GreaterThan(hundred) {
			return CommissionSplit{}, fmt.Errorf("%w: porcentaje de comisión fuera de rango: %s", domain.ErrValidation, commissionPercent)
		}
		commission = Round(orderAmount.Mul(commissionPercent).Div(hundred))
	}
	if commission.IsNegative() || commission.GreaterThan(orderAmount) {
		return CommissionSplit{}, fmt.Errorf("%w: comisión %s fuera de [0, %s]", domain.ErrValidation, commission, orderAmount)
	}
	return CommissionSplit{
		OrderAmount: orderAmount,
		Commission:  commission,
		NetIncome:   orderAmount.Sub(commission),
	}, nil
}
