package outbox

import (
	"context"
	"encoding/json"
	"time"
)

// Record fila del outbox: un evento pendiente de publicar en el broker.
type Record struct {
	ID        int64           `json:"id"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
}

// Store persistencia del outbox.
type Store interface {
	Insert(ctx context.Context, records ...Record) error
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, ids ...int64) error
}
