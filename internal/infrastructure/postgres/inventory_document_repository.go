package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/domain/repository"
)

var (
	_ repository.WriteOffRepository        = (*DocumentRepo[entity.WriteOff])(nil)
	_ repository.ReceivingRepository       = (*DocumentRepo[entity.Receiving])(nil)
	_ repository.TransferRepository        = (*DocumentRepo[entity.Transfer])(nil)
	_ repository.InventoryAuditRepository  = (*DocumentRepo[entity.InventoryAudit])(nil)
	_ repository.DocumentCounterRepository = (*DocumentCounterRepo)(nil)
)

// docMeta columnas indexadas de un documento; el documento completo viaja en body (JSONB).
type docMeta struct {
	ID           string
	Number       string
	ShopID       string
	TargetShopID string
	Status       entity.DocumentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DocumentRepo repositorio genérico de documentos de inventario sobre la tabla inventory_documents.
type DocumentRepo[T any] struct {
	q    Querier
	kind string
	meta func(*T) docMeta
}

// NewWriteOffRepository actas de baja.
func NewWriteOffRepository(q Querier) *DocumentRepo[entity.WriteOff] {
	return &DocumentRepo[entity.WriteOff]{q: q, kind: entity.DocumentWriteOff, meta: func(d *entity.WriteOff) docMeta {
		return docMeta{d.ID, d.Number, d.ShopID, "", d.Status, d.CreatedAt, d.UpdatedAt}
	}}
}

// NewReceivingRepository recepciones.
func NewReceivingRepository(q Querier) *DocumentRepo[entity.Receiving] {
	return &DocumentRepo[entity.Receiving]{q: q, kind: entity.DocumentReceiving, meta: func(d *entity.Receiving) docMeta {
		return docMeta{d.ID, d.Number, d.ShopID, "", d.Status, d.CreatedAt, d.UpdatedAt}
	}}
}

// NewTransferRepository traslados; el filtro por tienda aplica a origen o destino.
func NewTransferRepository(q Querier) *DocumentRepo[entity.Transfer] {
	return &DocumentRepo[entity.Transfer]{q: q, kind: entity.DocumentTransfer, meta: func(d *entity.Transfer) docMeta {
		return docMeta{d.ID, d.Number, d.SourceShopID, d.TargetShopID, d.Status, d.CreatedAt, d.UpdatedAt}
	}}
}

// NewInventoryAuditRepository inventarios físicos.
func NewInventoryAuditRepository(q Querier) *DocumentRepo[entity.InventoryAudit] {
	return &DocumentRepo[entity.InventoryAudit]{q: q, kind: entity.DocumentAudit, meta: func(d *entity.InventoryAudit) docMeta {
		return docMeta{d.ID, d.Number, d.ShopID, "", d.Status, d.CreatedAt, d.UpdatedAt}
	}}
}

// Create persiste el documento.
func (r *DocumentRepo[T]) Create(ctx context.Context, doc *T) error {
	m := r.meta(doc)
	body, err := toJSON(doc)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO inventory_documents (id, kind, number, shop_id, target_shop_id, status, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, r.kind, m.Number, m.ShopID, nullable(m.TargetShopID), m.Status, body, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return insertErr("documento "+r.kind, m.ID, err)
	}
	return nil
}

// GetByID obtiene el documento por ID (nil si no existe o es de otro tipo).
func (r *DocumentRepo[T]) GetByID(ctx context.Context, id string) (*T, error) {
	var body []byte
	err := r.q.QueryRow(ctx, `SELECT body FROM inventory_documents WHERE id = $1 AND kind = $2`, id, r.kind).Scan(&body)
	found, err := noRows(&body, err, "document")
	if err != nil || found == nil {
		return nil, err
	}
	return r.decode(body)
}

func (r *DocumentRepo[T]) decode(body []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decodificar documento %s: %w", r.kind, err)
	}
	return &doc, nil
}

// List documentos del más reciente al más antiguo.
func (r *DocumentRepo[T]) List(ctx context.Context, filter repository.DocumentFilter, page repository.Page) ([]*T, error) {
	limit, offset := limitOffset(page)
	rows, err := r.q.Query(ctx, `
		SELECT body FROM inventory_documents
		WHERE kind = $1
			AND ($2::text IS NULL OR shop_id = $2 OR target_shop_id = $2)
			AND ($3::text IS NULL OR status = $3)
		ORDER BY created_at DESC, id LIMIT $4 OFFSET $5`,
		r.kind, nullable(filter.ShopID), nullable(string(filter.Status)), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", r.kind, err)
	}
	defer rows.Close()
	var list []*T
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := r.decode(body)
		if err != nil {
			return nil, err
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// UpdateIfStatus reescribe el documento solo si el estado almacenado es expected.
func (r *DocumentRepo[T]) UpdateIfStatus(ctx context.Context, doc *T, expected entity.DocumentStatus) (bool, error) {
	m := r.meta(doc)
	body, err := toJSON(doc)
	if err != nil {
		return false, err
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE inventory_documents SET status = $4, body = $5, updated_at = $6
		WHERE id = $1 AND kind = $2 AND status = $3`,
		m.ID, r.kind, expected, m.Status, body, m.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update document %s: %w", r.kind, err)
	}
	return cmd.RowsAffected() == 1, nil
}

// DocumentCounterRepo secuencia diaria por prefijo (UPSERT atómico).
type DocumentCounterRepo struct {
	q Querier
}

// NewDocumentCounterRepository construye el contador.
func NewDocumentCounterRepository(q Querier) *DocumentCounterRepo {
	return &DocumentCounterRepo{q: q}
}

// Next incrementa y devuelve el contador del día.
func (r *DocumentCounterRepo) Next(ctx context.Context, prefix string, day time.Time) (int64, error) {
	var n int64
	err := r.q.QueryRow(ctx, `
		INSERT INTO document_counters (prefix, day, value) VALUES ($1, $2, 1)
		ON CONFLICT (prefix, day) DO UPDATE SET value = document_counters.value + 1
		RETURNING value`, prefix, day.UTC().Truncate(24*time.Hour)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next document number: %w", err)
	}
	return n, nil
}
