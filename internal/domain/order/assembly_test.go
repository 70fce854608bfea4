package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/order"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassifyLine(t *testing.T) {
	tolerance := d("0.9")
	cases := []struct {
		name         string
		selected     string
		actual       string
		price        string
		status       entity.WeightStatus
		shortfall    string
		compensation string
	}{
		{"85% es underweight", "2", "1.7", "300", entity.WeightUnderweight, "0.3", "90"},
		{"justo en la tolerancia es exact", "2", "1.8", "300", entity.WeightExact, "0", "0"},
		{"igual a lo pedido", "1", "1", "99", entity.WeightExact, "0", "0"},
		{"por encima", "1", "1.2", "99", entity.WeightOverweight, "0", "0"},
		{"nada armado", "3", "0", "10", entity.WeightUnderweight, "3", "30"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := order.ClassifyLine(d(tc.selected), d(tc.actual), d(tc.price), tolerance)
			require.NoError(t, err)
			assert.Equal(t, tc.status, got.Status)
			assert.True(t, got.Shortfall.Equal(d(tc.shortfall)), "shortfall %s", got.Shortfall)
			assert.True(t, got.Compensation.Equal(d(tc.compensation)), "compensation %s", got.Compensation)
		})
	}
}

func TestClassifyLine_CantidadNegativa(t *testing.T) {
	_, err := order.ClassifyLine(d("1"), d("-0.1"), d("10"), d("0.9"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestComputeFinances(t *testing.T) {
	f, err := order.ComputeFinances(d("540"), d("40"), d("99"), d("0.1"))
	require.NoError(t, err)
	assert.True(t, f.SystemTax.Equal(d("54")))
	assert.True(t, f.SentSum.Equal(d("500")))
	assert.True(t, f.TotalSum.Equal(d("599")))
	assert.True(t, f.ActualCartSum.Equal(d("540")))
}

func TestComputeFinances_BonusSuperaTotal(t *testing.T) {
	_, err := order.ComputeFinances(d("100"), d("150"), d("0"), d("0.1"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
