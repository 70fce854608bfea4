package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// StockLine cambio con signo sobre un ShopProduct dentro de un StockChange.
type StockLine struct {
	ShopProductID string
	Delta         decimal.Decimal
	Type          entity.MovementType
	Comment       string
}

// StockChange conjunto de líneas originadas por un mismo documento.
type StockChange struct {
	// ShopID si no está vacío, todas las líneas deben pertenecer a esa tienda.
	ShopID       string
	Actor        entity.Actor
	DocumentType string
	DocumentID   string
	At           time.Time
	Lines        []StockLine
}

// StockLedger libro de movimientos de stock: registra filas inmutables con saldo antes/después.
type StockLedger struct{}

// NewStockLedger construye el libro.
func NewStockLedger() *StockLedger { return &StockLedger{} }

// RecordMovements agrega las filas tal cual: los saldos los calcula el llamador a partir de su snapshot.
// Solo verifica que cada fila cumpla BalanceAfter = BalanceBefore + Quantity.
func (l *StockLedger) RecordMovements(ctx context.Context, s repository.Stores, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	for _, m := range movements {
		if !m.IsBalanced() {
			return fmt.Errorf("%w: movimiento de %s no cuadra (%s + %s != %s)",
				domain.ErrInvariant, m.ShopProductID, m.BalanceBefore, m.Quantity, m.BalanceAfter)
		}
	}
	return s.Movements.CreateMany(ctx, movements)
}

// Apply toma el snapshot bloqueado de los productos, valida suficiencia, aplica un único ajuste masivo
// y registra una fila por línea no nula con el snapshot como saldo anterior.
// Varias líneas del mismo producto encadenan saldos en el orden recibido.
func (l *StockLedger) Apply(ctx context.Context, s repository.Stores, ch StockChange) ([]*entity.StockMovement, error) {
	lines := make([]StockLine, 0, len(ch.Lines))
	ids := make([]string, 0, len(ch.Lines))
	seen := make(map[string]bool, len(ch.Lines))
	for _, ln := range ch.Lines {
		if ln.Delta.IsZero() {
			continue
		}
		lines = append(lines, ln)
		if !seen[ln.ShopProductID] {
			seen[ln.ShopProductID] = true
			ids = append(ids, ln.ShopProductID)
		}
	}
	if len(lines) == 0 {
		return nil, nil
	}

	snapshot, err := s.ShopProducts.GetManyForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]decimal.Decimal, len(snapshot))
	for _, id := range ids {
		p, ok := snapshot[id]
		if !ok {
			return nil, fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, id)
		}
		if ch.ShopID != "" && p.ShopID != ch.ShopID {
			return nil, fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrValidation, id, ch.ShopID)
		}
		balances[id] = p.StockQuantity
	}

	// Validar todo antes de tocar nada: ninguna aplicación parcial.
	required := make(map[string]decimal.Decimal, len(ids))
	for _, ln := range lines {
		if ln.Delta.IsNegative() {
			required[ln.ShopProductID] = required[ln.ShopProductID].Add(ln.Delta.Neg())
		}
	}
	running := make(map[string]decimal.Decimal, len(balances))
	for id, b := range balances {
		running[id] = b
	}
	for _, ln := range lines {
		next := running[ln.ShopProductID].Add(ln.Delta)
		if next.IsNegative() {
			return nil, domain.NewShortfall(ln.ShopProductID, required[ln.ShopProductID], balances[ln.ShopProductID])
		}
		running[ln.ShopProductID] = next
	}

	adjustments := make([]entity.StockAdjustment, 0, len(lines))
	movements := make([]*entity.StockMovement, 0, len(lines))
	at := ch.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	for _, ln := range lines {
		before := balances[ln.ShopProductID]
		after := before.Add(ln.Delta)
		balances[ln.ShopProductID] = after
		adjustments = append(adjustments, entity.StockAdjustment{ShopProductID: ln.ShopProductID, Delta: ln.Delta})
		movements = append(movements, &entity.StockMovement{
			ID:            uuid.New().String(),
			Type:          ln.Type,
			ShopProductID: ln.ShopProductID,
			ShopID:        snapshot[ln.ShopProductID].ShopID,
			Quantity:      ln.Delta,
			BalanceBefore: before,
			BalanceAfter:  after,
			Actor:         ch.Actor,
			DocumentType:  ch.DocumentType,
			DocumentID:    ch.DocumentID,
			Comment:       ln.Comment,
			CreatedAt:     at,
		})
	}

	if err := s.ShopProducts.AdjustStock(ctx, adjustments); err != nil {
		return nil, err
	}
	if err := l.RecordMovements(ctx, s, movements); err != nil {
		return nil, err
	}
	return movements, nil
}
