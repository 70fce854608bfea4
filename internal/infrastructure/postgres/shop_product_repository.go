package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.ShopProductRepository = (*ShopProductRepo)(nil)

// ShopProductRepo stock por tienda. stock_quantity tiene CHECK (>= 0) como segunda barrera.
type ShopProductRepo struct {
	q Querier
}

// NewShopProductRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewShopProductRepository(q Querier) *ShopProductRepo {
	return &ShopProductRepo{q: q}
}

const shopProductColumns = `id, shop_id, product_id, name, price, stock_quantity, status, updated_at`

func scanShopProduct(row interface{ Scan(...any) error }) (*entity.ShopProduct, error) {
	var p entity.ShopProduct
	err := row.Scan(&p.ID, &p.ShopID, &p.ProductID, &p.Name, &p.Price, &p.StockQuantity, &p.Status, &p.UpdatedAt)
	return &p, err
}

// Create persiste un producto de tienda.
func (r *ShopProductRepo) Create(ctx context.Context, p *entity.ShopProduct) error {
	query := `
		INSERT INTO shop_products (id, shop_id, product_id, name, price, stock_quantity, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, p.ID, p.ShopID, p.ProductID, p.Name, p.Price, p.StockQuantity, p.Status, p.UpdatedAt)
	if err != nil {
		return insertErr("producto de tienda", p.ID, err)
	}
	return nil
}

// GetByID obtiene un producto de tienda por ID.
func (r *ShopProductRepo) GetByID(ctx context.Context, id string) (*entity.ShopProduct, error) {
	p, err := scanShopProduct(r.q.QueryRow(ctx, `SELECT `+shopProductColumns+` FROM shop_products WHERE id = $1`, id))
	return noRows(p, err, "shop product")
}

// GetByShopAndProduct resuelve el producto de catálogo dentro de una tienda.
func (r *ShopProductRepo) GetByShopAndProduct(ctx context.Context, shopID, productID string) (*entity.ShopProduct, error) {
	p, err := scanShopProduct(r.q.QueryRow(ctx,
		`SELECT `+shopProductColumns+` FROM shop_products WHERE shop_id = $1 AND product_id = $2`, shopID, productID))
	return noRows(p, err, "shop product by product")
}

// List productos de tienda ordenados por ID.
func (r *ShopProductRepo) List(ctx context.Context, filter repository.ShopProductFilter, page repository.Page) ([]*entity.ShopProduct, error) {
	limit, offset := limitOffset(page)
	query := `
		SELECT ` + shopProductColumns + ` FROM shop_products
		WHERE ($1::text IS NULL OR shop_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, nullable(filter.ShopID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list shop products: %w", err)
	}
	return collectShopProducts(rows)
}

// GetManyForUpdate bloquea las filas en orden de ID (mismo orden en todas las transacciones, sin deadlocks).
func (r *ShopProductRepo) GetManyForUpdate(ctx context.Context, ids []string) (map[string]*entity.ShopProduct, error) {
	out := make(map[string]*entity.ShopProduct, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+shopProductColumns+` FROM shop_products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock shop products: %w", err)
	}
	list, err := collectShopProducts(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func collectShopProducts(rows pgx.Rows) ([]*entity.ShopProduct, error) {
	defer rows.Close()
	var list []*entity.ShopProduct
	for rows.Next() {
		p, err := scanShopProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// AdjustStock aplica cada ajuste con un UPDATE condicional (stock + delta >= 0).
// Si una fila no califica se devuelve el faltante y el caller hace rollback de la transacción completa.
func (r *ShopProductRepo) AdjustStock(ctx context.Context, adjustments []entity.StockAdjustment) error {
	merged := entity.MergeAdjustments(adjustments)
	sort.Slice(merged, func(i, j int) bool { return merged[i].ShopProductID < merged[j].ShopProductID })
	for _, a := range merged {
		cmd, err := r.q.Exec(ctx, `
			UPDATE shop_products SET stock_quantity = stock_quantity + $2, updated_at = now()
			WHERE id = $1 AND stock_quantity + $2 >= 0`, a.ShopProductID, a.Delta)
		if err != nil {
			return fmt.Errorf("adjust stock %s: %w", a.ShopProductID, err)
		}
		if cmd.RowsAffected() == 1 {
			continue
		}
		var available decimal.Decimal
		err = r.q.QueryRow(ctx, `SELECT stock_quantity FROM shop_products WHERE id = $1`, a.ShopProductID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: producto %s", domain.ErrNotFound, a.ShopProductID)
		}
		if err != nil {
			return fmt.Errorf("read stock %s: %w", a.ShopProductID, err)
		}
		return domain.NewShortfall(a.ShopProductID, a.Delta.Neg(), available)
	}
	return nil
}
