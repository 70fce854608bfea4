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

// CreateReceivingInput entrada para registrar una recepción en borrador.
type CreateReceivingInput struct {
	ShopID   string
	Supplier string
	Comment  string
	Items    []entity.ReceivingItem
	Actor    entity.Actor
}

// ConfirmReceivingInput confirma la recepción. ActualQuantities (por ShopProductID) sobrescribe lo cargado en el borrador.
type ConfirmReceivingInput struct {
	DocumentCommand
	ActualQuantities map[string]decimal.Decimal
}

// CreateReceiving crea la recepción en DRAFT; no toca stock.
func (uc *UseCase) CreateReceiving(ctx context.Context, in CreateReceivingInput) (*entity.Receiving, error) {
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: la recepción no tiene líneas", domain.ErrValidation)
	}
	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ExpectedQuantity.IsNegative() || it.ActualQuantity.IsNegative() {
			return nil, fmt.Errorf("%w: cantidades negativas en %s", domain.ErrValidation, it.ShopProductID)
		}
		ids = append(ids, it.ShopProductID)
	}

	now := uc.now().UTC()
	doc := &entity.Receiving{
		ID:        uuid.New().String(),
		ShopID:    in.ShopID,
		Supplier:  textnorm.Comment(in.Supplier),
		Status:    entity.DocumentStatusDraft,
		Comment:   textnorm.Comment(in.Comment),
		Items:     append([]entity.ReceivingItem(nil), in.Items...),
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
		number, err := nextNumber(ctx, s, entity.ReceivingNumberPrefix, now)
		if err != nil {
			return err
		}
		doc.Number = number
		return s.Receivings.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Str("shop_id", doc.ShopID).Msg("recepción creada")
	return doc, nil
}

// ConfirmReceiving suma ActualQuantity de cada línea al stock y registra un movimiento RECEIVING por línea
// con cantidad distinta de cero.
func (uc *UseCase) ConfirmReceiving(ctx context.Context, in ConfirmReceivingInput) (*entity.Receiving, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.Receiving
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Receivings.GetByID(ctx, in.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: recepción %s", domain.ErrNotFound, in.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("recepción", d.ID, d.Status)
		}

		lines := make([]StockLine, 0, len(d.Items))
		for i, it := range d.Items {
			if qty, ok := in.ActualQuantities[it.ShopProductID]; ok {
				if qty.IsNegative() {
					return fmt.Errorf("%w: cantidad recibida negativa en %s", domain.ErrValidation, it.ShopProductID)
				}
				d.Items[i].ActualQuantity = qty
				it.ActualQuantity = qty
			}
			lines = append(lines, StockLine{
				ShopProductID: it.ShopProductID,
				Delta:         it.ActualQuantity,
				Type:          entity.MovementReceiving,
				Comment:       d.Supplier,
			})
		}

		actor := in.Actor
		d.Status = entity.DocumentStatusConfirmed
		d.ConfirmedBy = &actor
		d.ConfirmedAt = &now
		d.UpdatedAt = now
		if c := textnorm.Comment(in.Comment); c != "" {
			d.Comment = c
		}
		ok, err := s.Receivings.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("recepción", d.ID)
		}

		if _, err := uc.ledger.Apply(ctx, s, StockChange{
			ShopID:       d.ShopID,
			Actor:        in.Actor,
			DocumentType: entity.DocumentReceiving,
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

	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Str("total", doc.TotalActual().String()).Msg("recepción confirmada")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventReceivingConfirmed, doc.ID, in.Actor, now, map[string]any{
		"shop_id":        doc.ShopID,
		"number":         doc.Number,
		"supplier":       doc.Supplier,
		"total_quantity": doc.TotalActual().String(),
	}))
	return doc, nil
}

// CancelReceiving DRAFT -> CANCELLED, sin efecto en stock.
func (uc *UseCase) CancelReceiving(ctx context.Context, cmd DocumentCommand) (*entity.Receiving, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.Receiving
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Receivings.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: recepción %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("recepción", d.ID, d.Status)
		}
		d.Status = entity.DocumentStatusCancelled
		d.Comment = firstNonEmpty(textnorm.Comment(cmd.Comment), d.Comment)
		d.UpdatedAt = now
		ok, err := s.Receivings.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("recepción", d.ID)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Msg("recepción cancelada")
	return doc, nil
}

// GetReceiving devuelve la recepción o ErrNotFound.
func (uc *UseCase) GetReceiving(ctx context.Context, id string) (*entity.Receiving, error) {
	return read(ctx, uc.tx, "recepción", id, func(s repository.Stores) (*entity.Receiving, error) {
		return s.Receivings.GetByID(ctx, id)
	})
}

// ListReceivings recepciones filtradas por tienda y estado.
func (uc *UseCase) ListReceivings(ctx context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.Receiving, error) {
	var out []*entity.Receiving
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Receivings.List(ctx, filter, page)
		return err
	})
	return out, err
}
