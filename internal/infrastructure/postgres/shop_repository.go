package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/marketplace-api/internal/domain"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.ShopRepository = (*ShopRepo)(nil)

// ShopRepo implementación de ShopRepository sobre PostgreSQL (usable con pool o tx).
type ShopRepo struct {
	q Querier
}

// NewShopRepository construye el adaptador de tiendas.
func NewShopRepository(q Querier) *ShopRepo {
	return &ShopRepo{q: q}
}

const shopColumns = `id, seller_id, COALESCE(shop_account_id, ''), name, status, COALESCE(current_shift_id, ''),
	min_order_sum, delivery_price, created_at, updated_at`

func scanShop(row interface{ Scan(...any) error }) (*entity.Shop, error) {
	var s entity.Shop
	err := row.Scan(&s.ID, &s.SellerID, &s.ShopAccountID, &s.Name, &s.Status, &s.CurrentShiftID,
		&s.MinOrderSum, &s.DeliveryPrice, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

// Create persiste una tienda.
func (r *ShopRepo) Create(ctx context.Context, shop *entity.Shop) error {
	query := `
		INSERT INTO shops (id, seller_id, shop_account_id, name, status, current_shift_id, min_order_sum, delivery_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, shop.ID, shop.SellerID, nullable(shop.ShopAccountID), shop.Name, shop.Status,
		nullable(shop.CurrentShiftID), shop.MinOrderSum, shop.DeliveryPrice, shop.CreatedAt, shop.UpdatedAt)
	if err != nil {
		return insertErr("tienda", shop.ID, err)
	}
	return nil
}

// GetByID obtiene una tienda por ID.
func (r *ShopRepo) GetByID(ctx context.Context, id string) (*entity.Shop, error) {
	s, err := scanShop(r.q.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, id))
	return noRows(s, err, "shop")
}

// List tiendas filtradas por vendedor y estado.
func (r *ShopRepo) List(ctx context.Context, filter repository.ShopFilter, page repository.Page) ([]*entity.Shop, error) {
	limit, offset := limitOffset(page)
	query := `
		SELECT ` + shopColumns + ` FROM shops
		WHERE ($1::text IS NULL OR seller_id = $1) AND ($2::text IS NULL OR status = $2)
		ORDER BY id LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, nullable(filter.SellerID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	defer rows.Close()
	var list []*entity.Shop
	for rows.Next() {
		s, err := scanShop(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shop: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// SetCurrentShift asigna o limpia el turno activo junto con el estado de la tienda.
func (r *ShopRepo) SetCurrentShift(ctx context.Context, shopID, shiftID string, status entity.ShopStatus) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE shops SET current_shift_id = $2, status = $3, updated_at = now() WHERE id = $1`,
		shopID, nullable(shiftID), status)
	if err != nil {
		return fmt.Errorf("update shop shift: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: tienda %s", domain.ErrNotFound, shopID)
	}
	return nil
}
