package ports

import (
	"context"

	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún efecto queda aplicado; si no, Commit.
// Es el único punto donde los orquestadores abren y cierran la unidad de trabajo.
type TxRunner interface {
	Run(ctx context.Context, fn func(s repository.Stores) error) error
}
