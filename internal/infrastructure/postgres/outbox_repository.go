package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/marketplace-api/pkg/outbox"
)

var _ outbox.Store = (*OutboxRepo)(nil)

// OutboxRepo tabla outbox. event_id es único: reinsertar el mismo evento no duplica.
type OutboxRepo struct {
	q Querier
}

// NewOutboxRepository construye el adaptador.
func NewOutboxRepository(q Querier) *OutboxRepo {
	return &OutboxRepo{q: q}
}

// Insert encola los registros en un único batch.
func (r *OutboxRepo) Insert(ctx context.Context, records ...outbox.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO outbox (event_id, topic, key, payload, created_at) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (event_id) DO NOTHING`,
			rec.EventID, rec.Topic, rec.Key, []byte(rec.Payload), rec.CreatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert outbox: %w", err)
		}
	}
	return nil
}

// FetchPending registros sin enviar en orden de inserción.
func (r *OutboxRepo) FetchPending(ctx context.Context, limit int) ([]outbox.Record, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []outbox.Record
	for rows.Next() {
		var rec outbox.Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkSent marca los registros publicados.
func (r *OutboxRepo) MarkSent(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `UPDATE outbox SET sent_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("mark outbox sent: %w", err)
	}
	return nil
}
