package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShopProductStatus estado de publicación del producto en la tienda.
type ShopProductStatus string

const (
	ShopProductActive   ShopProductStatus = "ACTIVE"
	ShopProductInactive ShopProductStatus = "INACTIVE"
	ShopProductArchived ShopProductStatus = "ARCHIVED"
)

// ShopProduct stock de un producto del catálogo en una tienda. StockQuantity nunca es negativo.
type ShopProduct struct {
	ID            string
	ShopID        string
	ProductID     string
	Name          string
	Price         decimal.Decimal
	StockQuantity decimal.Decimal
	Status        ShopProductStatus
	UpdatedAt     time.Time
}

// StockAdjustment ajuste con signo (+n entrada, -n salida) sobre un ShopProduct.
type StockAdjustment struct {
	ShopProductID string
	Delta         decimal.Decimal
}

// MergeAdjustments agrupa ajustes por producto conservando el orden de aparición y descarta los nulos.
func MergeAdjustments(adjustments []StockAdjustment) []StockAdjustment {
	idx := make(map[string]int, len(adjustments))
	out := make([]StockAdjustment, 0, len(adjustments))
	for _, a := range adjustments {
		if i, ok := idx[a.ShopProductID]; ok {
			out[i].Delta = out[i].Delta.Add(a.Delta)
			continue
		}
		idx[a.ShopProductID] = len(out)
		out = append(out, a)
	}
	filtered := out[:0]
	for _, a := range out {
		if !a.Delta.IsZero() {
			filtered = append(filtered, a)
		}
	}
	return filtered
}
