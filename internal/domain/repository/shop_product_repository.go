package repository

import (
	"context"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// ShopProductFilter filtro para listados de stock.
type ShopProductFilter struct {
	ShopID string
	Status entity.ShopProductStatus
}

// ShopProductRepository puerto para el stock de productos por tienda.
// Usado dentro de transacciones para garantizar consistencia.
type ShopProductRepository interface {
	Create(ctx context.Context, product *entity.ShopProduct) error
	GetByID(ctx context.Context, id string) (*entity.ShopProduct, error)
	GetByShopAndProduct(ctx context.Context, shopID, productID string) (*entity.ShopProduct, error)
	List(ctx context.Context, filter ShopProductFilter, page Page) ([]*entity.ShopProduct, error)
	// GetManyForUpdate lee y bloquea las filas (SELECT FOR UPDATE); los ids ausentes no aparecen en el mapa.
	GetManyForUpdate(ctx context.Context, ids []string) (map[string]*entity.ShopProduct, error)
	// AdjustStock aplica todos los ajustes o ninguno; falla con ErrInsufficientStock si alguno quedaría negativo.
	AdjustStock(ctx context.Context, adjustments []entity.StockAdjustment) error
}
