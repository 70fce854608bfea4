package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// ReplenishmentSuggestion producto con stock por debajo de su punto de reorden.
type ReplenishmentSuggestion struct {
	ShopProductID     string          `json:"shop_product_id"`
	Name              string          `json:"name"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	UnitsSold         decimal.Decimal `json:"units_sold"`
	DailyRate         decimal.Decimal `json:"daily_rate"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	IdealStock        decimal.Decimal `json:"ideal_stock"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`
	Priority          int             `json:"priority"`
}

// ReplenishmentInput ventana de ventas y días de cobertura deseados.
type ReplenishmentInput struct {
	ShopID       string
	WindowDays   int
	CoverageDays int
}

const movementScanLimit = 200

// Replenishment calcula la lista de reposición de una tienda a partir del libro de stock:
// la salida por pedidos (reservas menos devoluciones) en la ventana da el consumo diario,
// punto de reorden = consumo diario x días de cobertura, stock ideal = 1.5 x punto de reorden.
func (uc *UseCase) Replenishment(ctx context.Context, in ReplenishmentInput) ([]ReplenishmentSuggestion, error) {
	if in.WindowDays <= 0 {
		in.WindowDays = 30
	}
	if in.CoverageDays <= 0 {
		in.CoverageDays = 7
	}
	since := uc.now().UTC().AddDate(0, 0, -in.WindowDays)
	days := decimal.NewFromInt(int64(in.WindowDays))
	coverage := decimal.NewFromInt(int64(in.CoverageDays))
	factor := decimal.NewFromFloat(1.5)

	var suggestions []ReplenishmentSuggestion
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		if _, err := requireShop(ctx, s, in.ShopID); err != nil {
			return err
		}
		products, err := activeProducts(ctx, s, in.ShopID)
		if err != nil {
			return err
		}
		for _, p := range products {
			sold, err := unitsSoldSince(ctx, s, p.ID, since)
			if err != nil {
				return err
			}
			if !sold.IsPositive() {
				continue
			}
			rate := sold.Div(days).Round(2)
			reorder := rate.Mul(coverage).Ceil()
			if p.StockQuantity.GreaterThanOrEqual(reorder) {
				continue
			}
			ideal := reorder.Mul(factor).Ceil()
			suggestions = append(suggestions, ReplenishmentSuggestion{
				ShopProductID:     p.ID,
				Name:              p.Name,
				CurrentStock:      p.StockQuantity,
				UnitsSold:         sold,
				DailyRate:         rate,
				ReorderPoint:      reorder,
				IdealStock:        ideal,
				SuggestedOrderQty: ideal.Sub(p.StockQuantity),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Primero mayor déficit bajo el punto de reorden, luego mayor volumen de ventas.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA := a.ReorderPoint.Sub(a.CurrentStock)
		defB := b.ReorderPoint.Sub(b.CurrentStock)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return a.UnitsSold.GreaterThan(b.UnitsSold)
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// unitsSoldSince recorre el historial (más reciente primero) hasta salir de la ventana.
func unitsSoldSince(ctx context.Context, s repository.Stores, shopProductID string, since time.Time) (decimal.Decimal, error) {
	sold := decimal.Zero
	for offset := 0; ; offset += movementScanLimit {
		page, err := s.Movements.List(ctx, repository.StockMovementFilter{ShopProductID: shopProductID}, repository.Page{Limit: movementScanLimit, Offset: offset})
		if err != nil {
			return decimal.Zero, err
		}
		for _, m := range page {
			if m.CreatedAt.Before(since) {
				return sold, nil
			}
			switch m.Type {
			case entity.MovementOrderReservation:
				sold = sold.Add(m.Quantity.Neg())
			case entity.MovementOrderReturn:
				sold = sold.Sub(m.Quantity)
			}
		}
		if len(page) < movementScanLimit {
			return sold, nil
		}
	}
}
