package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de stock (solo inserción). seq define el orden de registro.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, type, shop_product_id, shop_id, quantity, balance_before, balance_after,
	actor_id, actor_role, actor_name, document_type, document_id, comment, created_at`

func scanMovement(row interface{ Scan(...any) error }) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(&m.ID, &m.Type, &m.ShopProductID, &m.ShopID, &m.Quantity, &m.BalanceBefore, &m.BalanceAfter,
		&m.Actor.ID, &m.Actor.Role, &m.Actor.Name, &m.DocumentType, &m.DocumentID, &m.Comment, &m.CreatedAt)
	return &m, err
}

// CreateMany inserta todas las filas en un único batch.
func (r *StockMovementRepo) CreateMany(ctx context.Context, movements []*entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	query := `
		INSERT INTO stock_movements (id, type, shop_product_id, shop_id, quantity, balance_before, balance_after,
			actor_id, actor_role, actor_name, document_type, document_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	batch := &pgx.Batch{}
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		batch.Queue(query, m.ID, m.Type, m.ShopProductID, m.ShopID, m.Quantity, m.BalanceBefore, m.BalanceAfter,
			m.Actor.ID, m.Actor.Role, m.Actor.Name, m.DocumentType, m.DocumentID, m.Comment, m.CreatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range movements {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert stock movement: %w", err)
		}
	}
	return nil
}

// List del más reciente al más antiguo.
func (r *StockMovementRepo) List(ctx context.Context, filter repository.StockMovementFilter, page repository.Page) ([]*entity.StockMovement, error) {
	limit, offset := limitOffset(page)
	query := `
		SELECT ` + movementColumns + ` FROM stock_movements
		WHERE ($1::text IS NULL OR shop_id = $1)
			AND ($2::text IS NULL OR shop_product_id = $2)
			AND ($3::text IS NULL OR document_id = $3)
			AND ($4::text IS NULL OR type = $4)
		ORDER BY seq DESC LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, nullable(filter.ShopID), nullable(filter.ShopProductID),
		nullable(filter.DocumentID), nullable(string(filter.Type)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// LastByProduct último movimiento de un producto.
func (r *StockMovementRepo) LastByProduct(ctx context.Context, shopProductID string) (*entity.StockMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx,
		`SELECT `+movementColumns+` FROM stock_movements WHERE shop_product_id = $1 ORDER BY seq DESC LIMIT 1`,
		shopProductID))
	return noRows(m, err, "last stock movement")
}
