package repository

import (
	"context"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// StockMovementFilter filtro para el historial del libro de stock.
type StockMovementFilter struct {
	ShopID        string
	ShopProductID string
	DocumentID    string
	Type          entity.MovementType
}

// StockMovementRepository puerto del libro de movimientos (solo inserción).
type StockMovementRepository interface {
	CreateMany(ctx context.Context, movements []*entity.StockMovement) error
	List(ctx context.Context, filter StockMovementFilter, page Page) ([]*entity.StockMovement, error)
	// LastByProduct último movimiento registrado de un producto (nil si no hay).
	LastByProduct(ctx context.Context, shopProductID string) (*entity.StockMovement, error)
}
