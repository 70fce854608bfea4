package finance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/finance"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSplitCommission_Calculada(t *testing.T) {
	split, err := finance.SplitCommission(d("1250"), d("12"), nil)
	require.NoError(t, err)
	assert.True(t, split.Commission.Equal(d("150")))
	assert.True(t, split.NetIncome.Equal(d("1100")))
	assert.True(t, split.NetIncome.Add(split.Commission).Equal(split.OrderAmount),
		"ingreso neto + comisión debe igualar el monto del pedido")
}

func TestSplitCommission_Redondeo(t *testing.T) {
	// 333 x 7.5 / 100 = 24.975 -> 25
	split, err := finance.SplitCommission(d("333"), d("7.5"), nil)
	require.NoError(t, err)
	assert.True(t, split.Commission.Equal(d("25")), "got %s", split.Commission)
	assert.True(t, split.NetIncome.Equal(d("308")))
}

func TestSplitCommission_Explicita(t *testing.T) {
	c := d("40")
	split, err := finance.SplitCommission(d("500"), d("10"), &c)
	require.NoError(t, err)
	assert.True(t, split.Commission.Equal(c), "la comisión explícita tiene prioridad sobre el porcentaje")
	assert.True(t, split.NetIncome.Equal(d("460")))
}

func TestSplitCommission_Invalida(t *testing.T) {
	tooBig := d("600")
	_, err := finance.SplitCommission(d("500"), d("10"), &tooBig)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = finance.SplitCommission(decimal.Zero, d("10"), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = finance.SplitCommission(d("100"), d("120"), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSplitCommission_MontoFraccionarioConservaLaSuma(t *testing.T) {
	// 100.5 x 10 / 100 = 10.05 -> 10; el neto no se redondea
	split, err := finance.SplitCommission(d("100.5"), d("10"), nil)
	require.NoError(t, err)
	assert.True(t, split.Commission.Equal(d("10")), "got %s", split.Commission)
	assert.True(t, split.NetIncome.Equal(d("90.5")), "got %s", split.NetIncome)
	assert.True(t, split.NetIncome.Add(split.Commission).Equal(d("100.5")))
}
