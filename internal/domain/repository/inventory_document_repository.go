package repository

import (
	"context"
	"time"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
)

// DocumentFilter filtro común de documentos de inventario.
type DocumentFilter struct {
	ShopID string
	Status entity.DocumentStatus
}

// WriteOffRepository puerto de actas de baja.
type WriteOffRepository interface {
	Create(ctx context.Context, doc *entity.WriteOff) error
	GetByID(ctx context.Context, id string) (*entity.WriteOff, error)
	List(ctx context.Context, filter DocumentFilter, page Page) ([]*entity.WriteOff, error)
	// UpdateIfStatus persiste el documento solo si su estado almacenado es expected.
	UpdateIfStatus(ctx context.Context, doc *entity.WriteOff, expected entity.DocumentStatus) (bool, error)
}

// ReceivingRepository puerto de recepciones.
type ReceivingRepository interface {
	Create(ctx context.Context, doc *entity.Receiving) error
	GetByID(ctx context.Context, id string) (*entity.Receiving, error)
	List(ctx context.Context, filter DocumentFilter, page Page) ([]*entity.Receiving, error)
	UpdateIfStatus(ctx context.Context, doc *entity.Receiving, expected entity.DocumentStatus) (bool, error)
}

// TransferRepository puerto de traslados (ShopID del filtro aplica a origen o destino).
type TransferRepository interface {
	Create(ctx context.Context, doc *entity.Transfer) error
	GetByID(ctx context.Context, id string) (*entity.Transfer, error)
	List(ctx context.Context, filter DocumentFilter, page Page) ([]*entity.Transfer, error)
	UpdateIfStatus(ctx context.Context, doc *entity.Transfer, expected entity.DocumentStatus) (bool, error)
}

// InventoryAuditRepository puerto de inventarios físicos.
type InventoryAuditRepository interface {
	Create(ctx context.Context, doc *entity.InventoryAudit) error
	GetByID(ctx context.Context, id string) (*entity.InventoryAudit, error)
	List(ctx context.Context, filter DocumentFilter, page Page) ([]*entity.InventoryAudit, error)
	UpdateIfStatus(ctx context.Context, doc *entity.InventoryAudit, expected entity.DocumentStatus) (bool, error)
}

// DocumentCounterRepository secuencia diaria por prefijo para numerar documentos.
type DocumentCounterRepository interface {
	Next(ctx context.Context, prefix string, day time.Time) (int64, error)
}
