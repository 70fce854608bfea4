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

var (
	_ repository.WriteOffRepository        = (*writeOffRepo)(nil)
	_ repository.ReceivingRepository       = (*receivingRepo)(nil)
	_ repository.TransferRepository        = (*transferRepo)(nil)
	_ repository.InventoryAuditRepository  = (*auditRepo)(nil)
	_ repository.DocumentCounterRepository = (*counterRepo)(nil)
)

func matchDoc(filter repository.DocumentFilter, shopID string, status entity.DocumentStatus) bool {
	if filter.ShopID != "" && filter.ShopID != shopID {
		return false
	}
	return filter.Status == "" || filter.Status == status
}

type writeOffRepo struct{ s *state }

func (r *writeOffRepo) Create(_ context.Context, doc *entity.WriteOff) error {
	if _, ok := r.s.writeOffs[doc.ID]; ok {
		return fmt.Errorf("%w: acta %s ya existe", domain.ErrConflict, doc.ID)
	}
	r.s.writeOffs[doc.ID] = cloneWriteOff(doc)
	return nil
}

func (r *writeOffRepo) GetByID(_ context.Context, id string) (*entity.WriteOff, error) {
	d, ok := r.s.writeOffs[id]
	if !ok {
		return nil, nil
	}
	return cloneWriteOff(d), nil
}

func (r *writeOffRepo) List(_ context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.WriteOff, error) {
	var out []*entity.WriteOff
	for _, d := range r.s.writeOffs {
		if matchDoc(filter, d.ShopID, d.Status) {
			out = append(out, cloneWriteOff(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *writeOffRepo) UpdateIfStatus(_ context.Context, doc *entity.WriteOff, expected entity.DocumentStatus) (bool, error) {
	cur, ok := r.s.writeOffs[doc.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.writeOffs[doc.ID] = cloneWriteOff(doc)
	return true, nil
}

type receivingRepo struct{ s *state }

func (r *receivingRepo) Create(_ context.Context, doc *entity.Receiving) error {
	if _, ok := r.s.receivings[doc.ID]; ok {
		return fmt.Errorf("%w: recepción %s ya existe", domain.ErrConflict, doc.ID)
	}
	r.s.receivings[doc.ID] = cloneReceiving(doc)
	return nil
}

func (r *receivingRepo) GetByID(_ context.Context, id string) (*entity.Receiving, error) {
	d, ok := r.s.receivings[id]
	if !ok {
		return nil, nil
	}
	return cloneReceiving(d), nil
}

func (r *receivingRepo) List(_ context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.Receiving, error) {
	var out []*entity.Receiving
	for _, d := range r.s.receivings {
		if matchDoc(filter, d.ShopID, d.Status) {
			out = append(out, cloneReceiving(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *receivingRepo) UpdateIfStatus(_ context.Context, doc *entity.Receiving, expected entity.DocumentStatus) (bool, error) {
	cur, ok := r.s.receivings[doc.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.receivings[doc.ID] = cloneReceiving(doc)
	return true, nil
}

type transferRepo struct{ s *state }

func (r *transferRepo) Create(_ context.Context, doc *entity.Transfer) error {
	if _, ok := r.s.transfers[doc.ID]; ok {
		return fmt.Errorf("%w: traslado %s ya existe", domain.ErrConflict, doc.ID)
	}
	r.s.transfers[doc.ID] = cloneTransfer(doc)
	return nil
}

func (r *transferRepo) GetByID(_ context.Context, id string) (*entity.Transfer, error) {
	d, ok := r.s.transfers[id]
	if !ok {
		return nil, nil
	}
	return cloneTransfer(d), nil
}

func (r *transferRepo) List(_ context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	for _, d := range r.s.transfers {
		if matchDoc(filter, d.SourceShopID, d.Status) || (filter.ShopID != "" && matchDoc(filter, d.TargetShopID, d.Status)) {
			out = append(out, cloneTransfer(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *transferRepo) UpdateIfStatus(_ context.Context, doc *entity.Transfer, expected entity.DocumentStatus) (bool, error) {
	cur, ok := r.s.transfers[doc.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.transfers[doc.ID] = cloneTransfer(doc)
	return true, nil
}

type auditRepo struct{ s *state }

func (r *auditRepo) Create(_ context.Context, doc *entity.InventoryAudit) error {
	if _, ok := r.s.audits[doc.ID]; ok {
		return fmt.Errorf("%w: inventario %s ya existe", domain.ErrConflict, doc.ID)
	}
	r.s.audits[doc.ID] = cloneAudit(doc)
	return nil
}

func (r *auditRepo) GetByID(_ context.Context, id string) (*entity.InventoryAudit, error) {
	d, ok := r.s.audits[id]
	if !ok {
		return nil, nil
	}
	return cloneAudit(d), nil
}

func (r *auditRepo) List(_ context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.InventoryAudit, error) {
	var out []*entity.InventoryAudit
	for _, d := range r.s.audits {
		if matchDoc(filter, d.ShopID, d.Status) {
			out = append(out, cloneAudit(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (r *auditRepo) UpdateIfStatus(_ context.Context, doc *entity.InventoryAudit, expected entity.DocumentStatus) (bool, error) {
	cur, ok := r.s.audits[doc.ID]
	if !ok || cur.Status != expected {
		return false, nil
	}
	r.s.audits[doc.ID] = cloneAudit(doc)
	return true, nil
}

type counterRepo struct{ s *state }

func (r *counterRepo) Next(_ context.Context, prefix string, day time.Time) (int64, error) {
	key := prefix + ":" + day.UTC().Format("20060102")
	r.s.counters[key]++
	return r.s.counters[key], nil
}
