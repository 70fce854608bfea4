package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// CreateWriteOffInput entrada para crear un acta de baja en borrador.
type CreateWriteOffInput struct {
	ShopID  string
	Reason  string
	Comment string
	Items   []entity.WriteOffItem
	Actor   entity.Actor
}

// CreateWriteOff crea el acta en DRAFT; no toca stock.
func (uc *UseCase) CreateWriteOff(ctx context.Context, in CreateWriteOffInput) (*entity.WriteOff, error) {
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: el acta de baja no tiene líneas", domain.ErrValidation)
	}
	ids := make([]string, 0, len(in.Items))
	items := make([]entity.WriteOffItem, 0, len(in.Items))
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cantidad de baja debe ser positiva (%s)", domain.ErrValidation, it.ShopProductID)
		}
		it.Comment = textnorm.Comment(it.Comment)
		ids = append(ids, it.ShopProductID)
		items = append(items, it)
	}

	now := uc.now().UTC()
	doc := &entity.WriteOff{
		ID:        uuid.New().String(),
		ShopID:    in.ShopID,
		Status:    entity.DocumentStatusDraft,
		Reason:    textnorm.Comment(in.Reason),
		Comment:   textnorm.Comment(in.Comment),
		Items:     items,
		CreatedBy: in.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		if _, err := requireShop(ctx, s, in.ShopID); err != nil {
			return err
		}
		if _, err := requireShopProducts(ctx, s, in.ShopID, ids); err != nil {
			return err
		}
		number, err := nextNumber(ctx, s, entity.WriteOffNumberPrefix, now)
		if err != nil {
			return err
		}
		doc.Number = number
		return s.WriteOffs.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Str("shop_id", doc.ShopID).Msg("acta de baja creada")
	return doc, nil
}

// ConfirmWriteOff valida suficiencia contra el snapshot, marca el acta confirmada, descuenta stock
// y registra un movimiento WRITE_OFF por línea. Un faltante en cualquier línea aborta todo.
func (uc *UseCase) ConfirmWriteOff(ctx context.Context, cmd DocumentCommand) (*entity.WriteOff, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.WriteOff
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.WriteOffs.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: acta de baja %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("acta de baja", d.ID, d.Status)
		}

		lines := make([]StockLine, 0, len(d.Items))
		for _, it := range d.Items {
			lines = append(lines, StockLine{
				ShopProductID: it.ShopProductID,
				Delta:         it.Quantity.Neg(),
				Type:          entity.MovementWriteOff,
				Comment:       firstNonEmpty(it.Comment, d.Reason),
			})
		}

		actor := cmd.Actor
		d.Status = entity.DocumentStatusConfirmed
		d.ConfirmedBy = &actor
		d.ConfirmedAt = &now
		d.UpdatedAt = now
		ok, err := s.WriteOffs.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("acta de baja", d.ID)
		}

		if _, err := uc.ledger.Apply(ctx, s, StockChange{
			ShopID:       d.ShopID,
			Actor:        cmd.Actor,
			DocumentType: entity.DocumentWriteOff,
			DocumentID:   d.ID,
			At:           now,
			Lines:        lines,
		}); err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range doc.Items {
		total = total.Add(it.Quantity)
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Int("lines", len(doc.Items)).Msg("acta de baja confirmada")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventWriteOffConfirmed, doc.ID, cmd.Actor, now, map[string]any{
		"shop_id":        doc.ShopID,
		"number":         doc.Number,
		"reason":         doc.Reason,
		"total_quantity": total.String(),
	}))
	return doc, nil
}

// CancelWriteOff DRAFT -> CANCELLED, sin efecto en stock.
func (uc *UseCase) CancelWriteOff(ctx context.Context, cmd DocumentCommand) (*entity.WriteOff, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.WriteOff
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.WriteOffs.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: acta de baja %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("acta de baja", d.ID, d.Status)
		}
		d.Status = entity.DocumentStatusCancelled
		d.Comment = firstNonEmpty(textnorm.Comment(cmd.Comment), d.Comment)
		d.UpdatedAt = now
		ok, err := s.WriteOffs.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("acta de baja", d.ID)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Msg("acta de baja cancelada")
	return doc, nil
}

// GetWriteOff devuelve el acta o ErrNotFound.
func (uc *UseCase) GetWriteOff(ctx context.Context, id string) (*entity.WriteOff, error) {
	return read(ctx, uc.tx, "acta de baja", id, func(s repository.Stores) (*entity.WriteOff, error) {
		return s.WriteOffs.GetByID(ctx, id)
	})
}

// ListWriteOffs actas filtradas por tienda y estado.
func (uc *UseCase) ListWriteOffs(ctx context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.WriteOff, error) {
	var out []*entity.WriteOff
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.WriteOffs.List(ctx, filter, page)
		return err
	})
	return out, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
