package repository

import (
	"context"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// ShopFilter filtro para listados de tiendas.
type ShopFilter struct {
	SellerID string
	Status   entity.ShopStatus
}

// ShopRepository puerto de persistencia para tiendas.
type ShopRepository interface {
	Create(ctx context.Context, shop *entity.Shop) error
	GetByID(ctx context.Context, id string) (*entity.Shop, error)
	List(ctx context.Context, filter ShopFilter, page Page) ([]*entity.Shop, error)
	// SetCurrentShift asigna (o limpia con shiftID vacío) el turno activo y el estado de la tienda.
	SetCurrentShift(ctx context.Context, shopID, shiftID string, status entity.ShopStatus) error
}
