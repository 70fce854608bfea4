package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
	"github.com/jhoicas/marketplace-api/pkg/config"
)

func TestTotalsColumn_ListaCerrada(t *testing.T) {
	col, err := totalsColumn(entity.SettlementCommission)
	require.NoError(t, err)
	assert.Equal(t, "commission", col)

	_, err = totalsColumn("DROP TABLE")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInsertErr_TraduceCodigosPostgres(t *testing.T) {
	dup := insertErr("tienda", "s-1", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, dup, domain.ErrConflict)

	check := insertErr("producto", "p-1", &pgconn.PgError{Code: "23514"})
	assert.ErrorIs(t, check, domain.ErrValidation)

	other := insertErr("pedido", "o-1", errors.New("conexión cerrada"))
	assert.Equal(t, domain.KindInternal, domain.Kind(other))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Integración: requiere TEST_DATABASE_URL (se omite en CI sin PostgreSQL)
// ──────────────────────────────────────────────────────────────────────────────

func TestIntegracion_StockCondicionalYLibro(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool))

	suffix := time.Now().Format("150405.000000")
	shopID, spID := "it-shop-"+suffix, "it-sp-"+suffix
	runner := NewTxRunner(pool, nil)
	now := time.Now().UTC()

	require.NoError(t, runner.Run(ctx, func(s repository.Stores) error {
		if err := s.Shops.Create(ctx, &entity.Shop{ID: shopID, SellerID: "seller", Name: "IT", Status: entity.ShopStatusClosed, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return s.ShopProducts.Create(ctx, &entity.ShopProduct{ID: spID, ShopID: shopID, ProductID: "p-" + suffix, Name: "Manzana",
			Price: decimal.NewFromInt(10), StockQuantity: decimal.NewFromInt(3), Status: entity.ShopProductActive, UpdatedAt: now})
	}))

	err = runner.Run(ctx, func(s repository.Stores) error {
		return s.ShopProducts.AdjustStock(ctx, []entity.StockAdjustment{{ShopProductID: spID, Delta: decimal.NewFromInt(-5)}})
	})
	var shortfall *domain.ShortfallError
	require.ErrorAs(t, err, &shortfall)
	assert.True(t, shortfall.Shortfall().Equal(decimal.NewFromInt(2)))

	require.NoError(t, runner.Run(ctx, func(s repository.Stores) error {
		if err := s.ShopProducts.AdjustStock(ctx, []entity.StockAdjustment{{ShopProductID: spID, Delta: decimal.NewFromInt(-1)}}); err != nil {
			return err
		}
		return s.Movements.CreateMany(ctx, []*entity.StockMovement{{
			Type: entity.MovementWriteOff, ShopProductID: spID, ShopID: shopID,
			Quantity: decimal.NewFromInt(-1), BalanceBefore: decimal.NewFromInt(3), BalanceAfter: decimal.NewFromInt(2),
			Actor: entity.SystemActor, DocumentType: entity.DocumentWriteOff, DocumentID: "wo-" + suffix, CreatedAt: now,
		}})
	}))

	stores := NewStores(pool)
	sp, err := stores.ShopProducts.GetByID(ctx, spID)
	require.NoError(t, err)
	assert.True(t, sp.StockQuantity.Equal(decimal.NewFromInt(2)))

	last, err := stores.Movements.LastByProduct(ctx, spID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.BalanceAfter.Equal(sp.StockQuantity))
}
