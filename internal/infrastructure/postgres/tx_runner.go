package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool    *pgxpool.Pool
	metrics *metrics.ServerMetrics
}

// NewTxRunner construye el runner con el pool. metrics puede ser nil.
func NewTxRunner(pool *pgxpool.Pool, m *metrics.ServerMetrics) *TxRunner {
	return &TxRunner{pool: pool, metrics: m}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Las filas que deciden una escritura se bloquean con FOR UPDATE o se actualizan condicionalmente.
func (r *TxRunner) Run(ctx context.Context, fn func(repository.Stores) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		r.metrics.ObserveTx("error")
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStores(tx)); err != nil {
		r.metrics.ObserveTx("rollback")
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		r.metrics.ObserveTx("error")
		return fmt.Errorf("commit transaction: %w", err)
	}
	r.metrics.ObserveTx("commit")
	return nil
}

// NewStores todos los repositorios atados al mismo Querier (pool o tx).
func NewStores(q Querier) repository.Stores {
	return repository.Stores{
		Shops:        NewShopRepository(q),
		Shifts:       NewShiftRepository(q),
		ShopProducts: NewShopProductRepository(q),
		Movements:    NewStockMovementRepository(q),
		WriteOffs:    NewWriteOffRepository(q),
		Receivings:   NewReceivingRepository(q),
		Transfers:    NewTransferRepository(q),
		Audits:       NewInventoryAuditRepository(q),
		Counters:     NewDocumentCounterRepository(q),
		Carts:        NewCartRepository(q),
		Customers:    NewCustomerRepository(q),
		Orders:       NewOrderRepository(q),
		ShopAccounts: NewShopAccountRepository(q),
		Periods:      NewSettlementPeriodRepository(q),
		Sellers:      NewSellerAccountRepository(q),
		Platform:     NewPlatformAccountRepository(q),
		Withdrawals:  NewWithdrawalRepository(q),
	}
}
