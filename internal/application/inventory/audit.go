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

// CreateAuditInput entrada para abrir un inventario físico.
// ShopProductIDs vacío = todos los productos activos de la tienda.
type CreateAuditInput struct {
	ShopID         string
	ShopProductIDs []string
	Comment        string
	Actor          entity.Actor
}

// UpdateAuditCountsInput conteos físicos por ShopProductID.
type UpdateAuditCountsInput struct {
	DocumentID string
	Counts     map[string]decimal.Decimal
	Actor      entity.Actor
}

// CompleteAuditInput cierre del inventario. Con ApplyResults=false solo se registran las diferencias.
type CompleteAuditInput struct {
	DocumentCommand
	ApplyResults bool
}

// CreateAudit abre el inventario en DRAFT; las cantidades esperadas iniciales son informativas.
func (uc *UseCase) CreateAudit(ctx context.Context, in CreateAuditInput) (*entity.InventoryAudit, error) {
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	now := uc.now().UTC()
	doc := &entity.InventoryAudit{
		ID:        uuid.New().String(),
		ShopID:    in.ShopID,
		Status:    entity.DocumentStatusDraft,
		Comment:   textnorm.Comment(in.Comment),
		CreatedBy: in.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		if _, err := requireShop(ctx, s, in.ShopID); err != nil {
			return err
		}
		var products []*entity.ShopProduct
		if len(in.ShopProductIDs) == 0 {
			list, err := activeProducts(ctx, s, in.ShopID)
			if err != nil {
				return err
			}
			products = list
		} else {
			byID, err := requireShopProducts(ctx, s, in.ShopID, in.ShopProductIDs)
			if err != nil {
				return err
			}
			for _, id := range in.ShopProductIDs {
				products = append(products, byID[id])
			}
		}
		if len(products) == 0 {
			return fmt.Errorf("%w: no hay productos para inventariar en %s", domain.ErrValidation, in.ShopID)
		}
		for _, p := range products {
			doc.Items = append(doc.Items, entity.AuditItem{ShopProductID: p.ID, ExpectedQuantity: p.StockQuantity})
		}
		number, err := nextNumber(ctx, s, entity.AuditNumberPrefix, now)
		if err != nil {
			return err
		}
		doc.Number = number
		return s.Audits.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Int("lines", len(doc.Items)).Msg("inventario físico abierto")
	return doc, nil
}

// UpdateAuditCounts registra conteos mientras el inventario está en DRAFT.
func (uc *UseCase) UpdateAuditCounts(ctx context.Context, in UpdateAuditCountsInput) (*entity.InventoryAudit, error) {
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if len(in.Counts) == 0 {
		return nil, fmt.Errorf("%w: sin conteos", domain.ErrValidation)
	}
	now := uc.now().UTC()
	var doc *entity.InventoryAudit
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Audits.GetByID(ctx, in.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: inventario %s", domain.ErrNotFound, in.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("inventario", d.ID, d.Status)
		}
		index := make(map[string]int, len(d.Items))
		for i, it := range d.Items {
			index[it.ShopProductID] = i
		}
		for id, qty := range in.Counts {
			i, ok := index[id]
			if !ok {
				return fmt.Errorf("%w: el producto %s no forma parte del inventario", domain.ErrValidation, id)
			}
			if qty.IsNegative() {
				return fmt.Errorf("%w: conteo negativo en %s", domain.ErrValidation, id)
			}
			d.Items[i].ActualQuantity = qty
			d.Items[i].Counted = true
		}
		d.UpdatedAt = now
		ok, err := s.Audits.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("inventario", d.ID)
		}
		doc = d
		return nil
	})
	return doc, err
}

// CompleteAudit toma el stock actual como cantidad esperada, calcula difference = actual - expected y,
// si ApplyResults, convierte cada diferencia en un ajuste registrado (RECEIVING sobrante, WRITE_OFF faltante).
func (uc *UseCase) CompleteAudit(ctx context.Context, in CompleteAuditInput) (*entity.InventoryAudit, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.InventoryAudit
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Audits.GetByID(ctx, in.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: inventario %s", domain.ErrNotFound, in.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("inventario", d.ID, d.Status)
		}
		ids := make([]string, 0, len(d.Items))
		for _, it := range d.Items {
			if !it.Counted {
				return fmt.Errorf("%w: falta el conteo de %s", domain.ErrValidation, it.ShopProductID)
			}
			ids = append(ids, it.ShopProductID)
		}
		snapshot, err := s.ShopProducts.GetManyForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		var lines []StockLine
		for i, it := range d.Items {
			p, ok := snapshot[it.ShopProductID]
			if !ok {
				return fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, it.ShopProductID)
			}
			d.Items[i].ExpectedQuantity = p.StockQuantity
			d.Items[i].Difference = it.ActualQuantity.Sub(p.StockQuantity)
			diff := d.Items[i].Difference
			if !in.ApplyResults || diff.IsZero() {
				continue
			}
			ln := StockLine{ShopProductID: it.ShopProductID, Delta: diff, Type: entity.MovementReceiving, Comment: "sobrante de inventario " + d.Number}
			if diff.IsNegative() {
				ln.Type = entity.MovementWriteOff
				ln.Comment = "faltante de inventario " + d.Number
			}
			lines = append(lines, ln)
		}

		actor := in.Actor
		d.Status = entity.DocumentStatusCompleted
		d.ResultsApplied = in.ApplyResults
		d.CompletedBy = &actor
		d.CompletedAt = &now
		d.UpdatedAt = now
		if c := textnorm.Comment(in.Comment); c != "" {
			d.Comment = c
		}
		ok, err := s.Audits.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("inventario", d.ID)
		}

		if len(lines) > 0 {
			if _, err := uc.ledger.Apply(ctx, s, StockChange{
				ShopID:       d.ShopID,
				Actor:        in.Actor,
				DocumentType: entity.DocumentAudit,
				DocumentID:   d.ID,
				At:           now,
				Lines:        lines,
			}); err != nil {
				return err
			}
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	discrepancies := doc.Discrepancies()
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).
		Int("discrepancies", len(discrepancies)).Bool("applied", doc.ResultsApplied).Msg("inventario físico completado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventAuditCompleted, doc.ID, in.Actor, now, map[string]any{
		"shop_id":         doc.ShopID,
		"number":          doc.Number,
		"discrepancies":   len(discrepancies),
		"results_applied": doc.ResultsApplied,
	}))
	return doc, nil
}

// CancelAudit DRAFT -> CANCELLED.
func (uc *UseCase) CancelAudit(ctx context.Context, cmd DocumentCommand) (*entity.InventoryAudit, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.InventoryAudit
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Audits.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: inventario %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("inventario", d.ID, d.Status)
		}
		d.Status = entity.DocumentStatusCancelled
		d.Comment = firstNonEmpty(textnorm.Comment(cmd.Comment), d.Comment)
		d.UpdatedAt = now
		ok, err := s.Audits.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("inventario", d.ID)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Msg("inventario físico cancelado")
	return doc, nil
}

// GetAudit devuelve el inventario o ErrNotFound.
func (uc *UseCase) GetAudit(ctx context.Context, id string) (*entity.InventoryAudit, error) {
	return read(ctx, uc.tx, "inventario", id, func(s repository.Stores) (*entity.InventoryAudit, error) {
		return s.Audits.GetByID(ctx, id)
	})
}

// ListAudits inventarios filtrados por tienda y estado.
func (uc *UseCase) ListAudits(ctx context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.InventoryAudit, error) {
	var out []*entity.InventoryAudit
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Audits.List(ctx, filter, page)
		return err
	})
	return out, err
}
