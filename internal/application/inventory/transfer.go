package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/textnorm"
)

// TransferLine producto del catálogo y cantidad a trasladar.
type TransferLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateTransferInput entrada para crear un traslado en borrador.
type CreateTransferInput struct {
	SourceShopID string
	TargetShopID string
	Comment      string
	Items        []TransferLine
	Actor        entity.Actor
}

// ReceiveTransferInput recepción en destino. ReceivedQuantities (por ProductID) permite recibir menos de lo enviado.
type ReceiveTransferInput struct {
	DocumentCommand
	ReceivedQuantities map[string]decimal.Decimal
}

// CreateTransfer crea el traslado en DRAFT resolviendo los productos de la tienda origen.
func (uc *UseCase) CreateTransfer(ctx context.Context, in CreateTransferInput) (*entity.Transfer, error) {
	if in.Actor.IsZero() {
		return nil, fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	if in.SourceShopID == in.TargetShopID {
		return nil, fmt.Errorf("%w: origen y destino deben ser tiendas distintas", domain.ErrValidation)
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: el traslado no tiene líneas", domain.ErrValidation)
	}
	seen := make(map[string]bool, len(in.Items))
	for _, it := range in.Items {
		if !it.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: cantidad a trasladar debe ser positiva (%s)", domain.ErrValidation, it.ProductID)
		}
		if seen[it.ProductID] {
			return nil, fmt.Errorf("%w: producto %s repetido en el traslado", domain.ErrValidation, it.ProductID)
		}
		seen[it.ProductID] = true
	}

	now := uc.now().UTC()
	doc := &entity.Transfer{
		ID:           uuid.New().String(),
		SourceShopID: in.SourceShopID,
		TargetShopID: in.TargetShopID,
		Status:       entity.DocumentStatusDraft,
		Comment:      textnorm.Comment(in.Comment),
		CreatedBy:    in.Actor,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		if _, err := requireShop(ctx, s, in.SourceShopID); err != nil {
			return err
		}
		if _, err := requireShop(ctx, s, in.TargetShopID); err != nil {
			return err
		}
		for _, it := range in.Items {
			src, err := s.ShopProducts.GetByShopAndProduct(ctx, in.SourceShopID, it.ProductID)
			if err != nil {
				return err
			}
			if src == nil {
				return fmt.Errorf("%w: producto %s en la tienda origen %s", domain.ErrNotFound, it.ProductID, in.SourceShopID)
			}
			doc.Items = append(doc.Items, entity.TransferItem{
				ProductID:           it.ProductID,
				Quantity:            it.Quantity,
				SourceShopProductID: src.ID,
			})
		}
		number, err := nextNumber(ctx, s, entity.TransferNumberPrefix, now)
		if err != nil {
			return err
		}
		doc.Number = number
		return s.Transfers.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).
		Str("source_shop_id", doc.SourceShopID).Str("target_shop_id", doc.TargetShopID).Msg("traslado creado")
	return doc, nil
}

// SendTransfer DRAFT -> SENT: descuenta stock en origen y registra un movimiento TRANSFER negativo por línea.
func (uc *UseCase) SendTransfer(ctx context.Context, cmd DocumentCommand) (*entity.Transfer, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.Transfer
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Transfers.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("traslado", d.ID, d.Status)
		}

		lines := make([]StockLine, 0, len(d.Items))
		for _, it := range d.Items {
			lines = append(lines, StockLine{
				ShopProductID: it.SourceShopProductID,
				Delta:         it.Quantity.Neg(),
				Type:          entity.MovementTransfer,
				Comment:       "salida a " + d.TargetShopID,
			})
		}

		actor := cmd.Actor
		d.Status = entity.DocumentStatusSent
		d.SentBy = &actor
		d.SentAt = &now
		d.UpdatedAt = now
		ok, err := s.Transfers.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("traslado", d.ID)
		}

		if _, err := uc.ledger.Apply(ctx, s, StockChange{
			ShopID:       d.SourceShopID,
			Actor:        cmd.Actor,
			DocumentType: entity.DocumentTransfer,
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

	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Msg("traslado enviado")
	ports.EmitAfterCommit(ctx, uc.events, uc.log, ports.NewEvent(entity.EventTransferSent, doc.ID, cmd.Actor, now, map[string]any{
		"number":         doc.Number,
		"source_shop_id": doc.SourceShopID,
		"target_shop_id": doc.TargetShopID,
	}))
	return doc, nil
}

// ReceiveTransfer SENT -> RECEIVED: suma stock en destino (creando el producto de tienda si no existe)
// y registra un movimiento TRANSFER positivo por línea recibida.
func (uc *UseCase) ReceiveTransfer(ctx context.Context, in ReceiveTransferInput) (*entity.Transfer, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.Transfer
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Transfers.GetByID(ctx, in.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, in.DocumentID)
		}
		if d.Status != entity.DocumentStatusSent {
			return fmt.Errorf("%w: traslado %s está en %s", domain.ErrInvalidTransition, d.ID, d.Status)
		}

		lines := make([]StockLine, 0, len(d.Items))
		for i, it := range d.Items {
			received := it.Quantity
			if qty, ok := in.ReceivedQuantities[it.ProductID]; ok {
				if qty.IsNegative() || qty.GreaterThan(it.Quantity) {
					return fmt.Errorf("%w: cantidad recibida de %s fuera de rango (0..%s)", domain.ErrValidation, it.ProductID, it.Quantity)
				}
				received = qty
			}
			target, err := uc.targetProduct(ctx, s, d, it, now)
			if err != nil {
				return err
			}
			d.Items[i].ReceivedQuantity = received
			d.Items[i].LostQuantity = it.Quantity.Sub(received)
			d.Items[i].TargetShopProductID = target.ID
			lines = append(lines, StockLine{
				ShopProductID: target.ID,
				Delta:         received,
				Type:          entity.MovementTransfer,
				Comment:       "entrada desde " + d.SourceShopID,
			})
		}

		actor := in.Actor
		d.Status = entity.DocumentStatusReceived
		d.ReceivedBy = &actor
		d.ReceivedAt = &now
		d.UpdatedAt = now
		ok, err := s.Transfers.UpdateIfStatus(ctx, d, entity.DocumentStatusSent)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("traslado", d.ID)
		}

		if _, err := uc.ledger.Apply(ctx, s, StockChange{
			ShopID:       d.TargetShopID,
			Actor:        in.Actor,
			DocumentType: entity.DocumentTransfer,
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

	uc.log.Info().Str("document_id", doc.ID).Str("number", doc.Number).Msg("traslado recibido")
	events := []entity.DomainEvent{ports.NewEvent(entity.EventTransferReceived, doc.ID, in.Actor, now, map[string]any{
		"number":         doc.Number,
		"source_shop_id": doc.SourceShopID,
		"target_shop_id": doc.TargetShopID,
	})}
	// La pérdida no tiene fila en el libro: el stock de origen ya se descontó al enviar.
	var losses []map[string]any
	for _, it := range doc.Items {
		if !it.LostQuantity.IsPositive() {
			continue
		}
		losses = append(losses, map[string]any{
			"product_id":             it.ProductID,
			"source_shop_product_id": it.SourceShopProductID,
			"sent":                   it.Quantity.String(),
			"received":               it.ReceivedQuantity.String(),
			"lost":                   it.LostQuantity.String(),
		})
	}
	if len(losses) > 0 {
		uc.log.Warn().Str("document_id", doc.ID).Int("lines", len(losses)).Msg("traslado recibido con faltante en tránsito")
		events = append(events, ports.NewEvent(entity.EventTransferLoss, doc.ID, in.Actor, now, map[string]any{
			"number":         doc.Number,
			"source_shop_id": doc.SourceShopID,
			"target_shop_id": doc.TargetShopID,
			"lines":          losses,
		}))
	}
	ports.EmitAfterCommit(ctx, uc.events, uc.log, events...)
	return doc, nil
}

// targetProduct resuelve el producto en la tienda destino; si no existe lo crea con stock cero copiando nombre y precio.
func (uc *UseCase) targetProduct(ctx context.Context, s repository.Stores, d *entity.Transfer, it entity.TransferItem, now time.Time) (*entity.ShopProduct, error) {
	target, err := s.ShopProducts.GetByShopAndProduct(ctx, d.TargetShopID, it.ProductID)
	if err != nil {
		return nil, err
	}
	if target != nil {
		return target, nil
	}
	src, err := s.ShopProducts.GetByID(ctx, it.SourceShopProductID)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: producto de origen %s", domain.ErrNotFound, it.SourceShopProductID)
	}
	target = &entity.ShopProduct{
		ID:            uuid.New().String(),
		ShopID:        d.TargetShopID,
		ProductID:     it.ProductID,
		Name:          src.Name,
		Price:         src.Price,
		StockQuantity: decimal.Zero,
		Status:        entity.ShopProductInactive,
		UpdatedAt:     now,
	}
	if err := s.ShopProducts.Create(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// CancelTransfer DRAFT -> CANCELLED, sin efecto en stock.
func (uc *UseCase) CancelTransfer(ctx context.Context, cmd DocumentCommand) (*entity.Transfer, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	var doc *entity.Transfer
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		d, err := s.Transfers.GetByID(ctx, cmd.DocumentID)
		if err != nil {
			return err
		}
		if d == nil {
			return fmt.Errorf("%w: traslado %s", domain.ErrNotFound, cmd.DocumentID)
		}
		if d.Status != entity.DocumentStatusDraft {
			return notDraft("traslado", d.ID, d.Status)
		}
		d.Status = entity.DocumentStatusCancelled
		d.Comment = firstNonEmpty(textnorm.Comment(cmd.Comment), d.Comment)
		d.UpdatedAt = now
		ok, err := s.Transfers.UpdateIfStatus(ctx, d, entity.DocumentStatusDraft)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace("traslado", d.ID)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("document_id", doc.ID).Msg("traslado cancelado")
	return doc, nil
}

// GetTransfer devuelve el traslado o ErrNotFound.
func (uc *UseCase) GetTransfer(ctx context.Context, id string) (*entity.Transfer, error) {
	return read(ctx, uc.tx, "traslado", id, func(s repository.Stores) (*entity.Transfer, error) {
		return s.Transfers.GetByID(ctx, id)
	})
}

// ListTransfers traslados donde la tienda es origen o destino.
func (uc *UseCase) ListTransfers(ctx context.Context, filter repository.DocumentFilter, page repository.Page) ([]*entity.Transfer, error) {
	var out []*entity.Transfer
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Transfers.List(ctx, filter, page)
		return err
	})
	return out, err
}
