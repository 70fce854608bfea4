package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// Config parámetros del orquestador de inventario.
type Config struct {
	// Now reloj inyectable; nil = time.Now.
	Now func() time.Time
}

// UseCase orquestador de documentos de inventario (bajas, recepciones, traslados, inventarios físicos).
// Crear un documento nunca toca stock; confirmar/enviar/recibir/completar es el único paso que muta
// stock y libro, todo dentro de una transacción.
type UseCase struct {
	tx     ports.TxRunner
	events ports.EventSink
	log    zerolog.Logger
	ledger *StockLedger
	now    func() time.Time
}

// NewUseCase construye el orquestador de inventario.
func NewUseCase(tx ports.TxRunner, events ports.EventSink, ledger *StockLedger, log zerolog.Logger, cfg Config) *UseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if ledger == nil {
		ledger = NewStockLedger()
	}
	return &UseCase{
		tx:     tx,
		events: events,
		log:    log.With().Str("component", "inventory").Logger(),
		ledger: ledger,
		now:    cfg.Now,
	}
}

// DocumentCommand entrada común para confirmar o cancelar un documento.
type DocumentCommand struct {
	DocumentID string
	Actor      entity.Actor
	Comment    string
}

func (c DocumentCommand) validate() error {
	if c.DocumentID == "" {
		return fmt.Errorf("%w: document_id requerido", domain.ErrValidation)
	}
	if c.Actor.IsZero() {
		return fmt.Errorf("%w: actor requerido", domain.ErrValidation)
	}
	return nil
}

// nextNumber número legible PREFIJO-AAAAMMDD-NNNN.
func nextNumber(ctx context.Context, s repository.Stores, prefix string, at time.Time) (string, error) {
	seq, err := s.Counters.Next(ctx, prefix, at)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, at.UTC().Format("20060102"), seq), nil
}

func requireShop(ctx context.Context, s repository.Stores, shopID string) (*entity.Shop, error) {
	if shopID == "" {
		return nil, fmt.Errorf("%w: shop_id requerido", domain.ErrValidation)
	}
	shop, err := s.Shops.GetByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, fmt.Errorf("%w: tienda %s", domain.ErrNotFound, shopID)
	}
	return shop, nil
}

// productPageSize tamaño de página al recorrer el catálogo completo de una tienda.
const productPageSize = 200

// activeProducts todos los productos activos de la tienda, página a página.
func activeProducts(ctx context.Context, s repository.Stores, shopID string) ([]*entity.ShopProduct, error) {
	var out []*entity.ShopProduct
	filter := repository.ShopProductFilter{ShopID: shopID, Status: entity.ShopProductActive}
	for offset := 0; ; offset += productPageSize {
		page, err := s.ShopProducts.List(ctx, filter, repository.Page{Limit: productPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < productPageSize {
			return out, nil
		}
	}
}

// requireShopProducts verifica que todos los ids existan y pertenezcan a la tienda.
func requireShopProducts(ctx context.Context, s repository.Stores, shopID string, ids []string) (map[string]*entity.ShopProduct, error) {
	out := make(map[string]*entity.ShopProduct, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			return nil, fmt.Errorf("%w: producto %s repetido en el documento", domain.ErrValidation, id)
		}
		p, err := s.ShopProducts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, id)
		}
		if p.ShopID != shopID {
			return nil, fmt.Errorf("%w: el producto %s no pertenece a la tienda %s", domain.ErrValidation, id, shopID)
		}
		out[id] = p
	}
	return out, nil
}

func notDraft(kind, id string, status entity.DocumentStatus) error {
	return fmt.Errorf("%w: %s %s está en %s", domain.ErrInvalidTransition, kind, id, status)
}

func lostRace(kind, id string) error {
	return fmt.Errorf("%w: %s %s cambió de estado durante la operación", domain.ErrConflict, kind, id)
}

// read ejecuta una lectura dentro de su propia transacción y convierte nil en ErrNotFound.
func read[T any](ctx context.Context, tx ports.TxRunner, what, id string, get func(s repository.Stores) (*T, error)) (*T, error) {
	var out *T
	err := tx.Run(ctx, func(s repository.Stores) error {
		v, err := get(s)
		if err != nil {
			return err
		}
		if v == nil {
			return fmt.Errorf("%w: %s %s", domain.ErrNotFound, what, id)
		}
		out = v
		return nil
	})
	return out, err
}

// MovementHistory historial del libro de stock, más reciente primero.
func (uc *UseCase) MovementHistory(ctx context.Context, filter repository.StockMovementFilter, page repository.Page) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	err := uc.tx.Run(ctx, func(s repository.Stores) error {
		var err error
		out, err = s.Movements.List(ctx, filter, page)
		return err
	})
	return out, err
}

// VerifyBalance comprueba que el último BalanceAfter del libro coincida con el stock actual del producto.
func (uc *UseCase) VerifyBalance(ctx context.Context, shopProductID string) error {
	return uc.tx.Run(ctx, func(s repository.Stores) error {
		p, err := s.ShopProducts.GetByID(ctx, shopProductID)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: producto de tienda %s", domain.ErrNotFound, shopProductID)
		}
		last, err := s.Movements.LastByProduct(ctx, shopProductID)
		if err != nil {
			return err
		}
		if last == nil {
			return nil
		}
		if !last.BalanceAfter.Equal(p.StockQuantity) {
			return fmt.Errorf("%w: libro de %s termina en %s pero el stock es %s",
				domain.ErrInvariant, shopProductID, last.BalanceAfter, p.StockQuantity)
		}
		return nil
	})
}
