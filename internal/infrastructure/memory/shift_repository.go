package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.ShiftRepository = (*shiftRepo)(nil)

type shiftRepo struct{ s *state }

func (r *shiftRepo) Create(_ context.Context, shift *entity.Shift) error {
	if _, ok := r.s.shifts[shift.ID]; ok {
		return fmt.Errorf("%w: turno %s ya existe", domain.ErrConflict, shift.ID)
	}
	r.s.shifts[shift.ID] = cloneShift(shift)
	return nil
}

func (r *shiftRepo) GetByID(_ context.Context, id string) (*entity.Shift, error) {
	s, ok := r.s.shifts[id]
	if !ok {
		return nil, nil
	}
	return cloneShift(s), nil
}

func (r *shiftRepo) List(_ context.Context, filter repository.ShiftFilter, page repository.Page) ([]*entity.Shift, error) {
	var out []*entity.Shift
	for _, s := range r.s.shifts {
		if filter.ShopID != "" && s.ShopID != filter.ShopID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, cloneShift(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return paginate(out, page), nil
}

func (r *shiftRepo) CompareAndSetStatus(_ context.Context, upd repository.ShiftStatusUpdate) (bool, error) {
	s, ok := r.s.shifts[upd.ShiftID]
	if !ok || s.Status != upd.Expected {
		return false, nil
	}
	s.Status = upd.Target
	s.Events = entity.TrimEvents(append(s.Events, upd.Event), upd.MaxEvents)
	if upd.ClosedBy != nil {
		s.ClosedBy = clonePtr(upd.ClosedBy)
	}
	if upd.ClosedAt != nil {
		s.ClosedAt = clonePtr(upd.ClosedAt)
	}
	s.UpdatedAt = upd.Event.At
	return true, nil
}

func (r *shiftRepo) IncrementStatistics(_ context.Context, shiftID string, delta entity.ShiftStatisticsDelta) error {
	s, ok := r.s.shifts[shiftID]
	if !ok {
		return fmt.Errorf("%w: turno %s", domain.ErrNotFound, shiftID)
	}
	s.Statistics = s.Statistics.Apply(delta)
	return nil
}
