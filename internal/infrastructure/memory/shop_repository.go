package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.ShopRepository = (*shopRepo)(nil)

type shopRepo struct{ s *state }

func (r *shopRepo) Create(_ context.Context, shop *entity.Shop) error {
	if _, ok := r.s.shops[shop.ID]; ok {
		return fmt.Errorf("%w: tienda %s ya existe", domain.ErrConflict, shop.ID)
	}
	r.s.shops[shop.ID] = cloneShop(shop)
	return nil
}

func (r *shopRepo) GetByID(_ context.Context, id string) (*entity.Shop, error) {
	s, ok := r.s.shops[id]
	if !ok {
		return nil, nil
	}
	return cloneShop(s), nil
}

func (r *shopRepo) List(_ context.Context, filter repository.ShopFilter, page repository.Page) ([]*entity.Shop, error) {
	var out []*entity.Shop
	for _, s := range r.s.shops {
		if filter.SellerID != "" && s.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, cloneShop(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

func (r *shopRepo) SetCurrentShift(_ context.Context, shopID, shiftID string, status entity.ShopStatus) error {
	s, ok := r.s.shops[shopID]
	if !ok {
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, shopID)
	}
	s.CurrentShiftID = shiftID
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}
