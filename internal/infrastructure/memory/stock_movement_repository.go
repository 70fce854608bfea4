package memory

import (
	"context"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*movementRepo)(nil)

type movementRepo struct{ s *state }

func (r *movementRepo) CreateMany(_ context.Context, movements []*entity.StockMovement) error {
	for _, m := range movements {
		r.s.movements = append(r.s.movements, clonePtr(m))
	}
	return nil
}

// List devuelve del más reciente al más antiguo.
func (r *movementRepo) List(_ context.Context, filter repository.StockMovementFilter, page repository.Page) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if filter.ShopID != "" && m.ShopID != filter.ShopID {
			continue
		}
		if filter.ShopProductID != "" && m.ShopProductID != filter.ShopProductID {
			continue
		}
		if filter.DocumentID != "" && m.DocumentID != filter.DocumentID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, clonePtr(m))
	}
	return paginate(out, page), nil
}

func (r *movementRepo) LastByProduct(_ context.Context, shopProductID string) (*entity.StockMovement, error) {
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		if r.s.movements[i].ShopProductID == shopProductID {
			return clonePtr(r.s.movements[i]), nil
		}
	}
	return nil, nil
}
