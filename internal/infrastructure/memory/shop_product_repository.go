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

var _ repository.ShopProductRepository = (*shopProductRepo)(nil)

type shopProductRepo struct{ s *state }

func (r *shopProductRepo) Create(_ context.Context, p *entity.ShopProduct) error {
	if _, ok := r.s.shopProducts[p.ID]; ok {
		return fmt.Errorf("%w: producto %s ya existe", domain.ErrConflict, p.ID)
	}
	if p.StockQuantity.IsNegative() {
		return fmt.Errorf("%w: stock negativo", domain.ErrValidation)
	}
	r.s.shopProducts[p.ID] = cloneShopProduct(p)
	return nil
}

func (r *shopProductRepo) GetByID(_ context.Context, id string) (*entity.ShopProduct, error) {
	p, ok := r.s.shopProducts[id]
	if !ok {
		return nil, nil
	}
	return cloneShopProduct(p), nil
}

func (r *shopProductRepo) GetByShopAndProduct(_ context.Context, shopID, productID string) (*entity.ShopProduct, error) {
	for _, p := range r.s.shopProducts {
		if p.ShopID == shopID && p.ProductID == productID {
			return cloneShopProduct(p), nil
		}
	}
	return nil, nil
}

func (r *shopProductRepo) List(_ context.Context, filter repository.ShopProductFilter, page repository.Page) ([]*entity.ShopProduct, error) {
	var out []*entity.ShopProduct
	for _, p := range r.s.shopProducts {
		if filter.ShopID != "" && p.ShopID != filter.ShopID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, cloneShopProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, page), nil
}

// GetManyForUpdate en memoria no bloquea: Store.Run ya serializa las transacciones.
func (r *shopProductRepo) GetManyForUpdate(_ context.Context, ids []string) (map[string]*entity.ShopProduct, error) {
	out := make(map[string]*entity.ShopProduct, len(ids))
	for _, id := range ids {
		if p, ok := r.s.shopProducts[id]; ok {
			out[id] = cloneShopProduct(p)
		}
	}
	return out, nil
}

func (r *shopProductRepo) AdjustStock(_ context.Context, adjustments []entity.StockAdjustment) error {
	merged := entity.MergeAdjustments(adjustments)
	for _, a := range merged {
		p, ok := r.s.shopProducts[a.ShopProductID]
		if !ok {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, a.ShopProductID)
		}
		if p.StockQuantity.Add(a.Delta).IsNegative() {
			return domain.NewShortfall(a.ShopProductID, a.Delta.Neg(), p.StockQuantity)
		}
	}
	now := time.Now()
	for _, a := range merged {
		p := r.s.shopProducts[a.ShopProductID]
		p.StockQuantity = p.StockQuantity.Add(a.Delta)
		p.UpdatedAt = now
	}
	return nil
}
