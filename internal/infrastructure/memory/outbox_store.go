package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/marketplace-api/pkg/outbox"
)

var _ outbox.Store = (*OutboxStore)(nil)

// OutboxStore outbox en memoria para DB_DRIVER=memory y tests del relay.
type OutboxStore struct {
	mu      sync.Mutex
	nextID  int64
	records []outbox.Record
	seen    map[string]bool
}

// NewOutboxStore construye un outbox vacío.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{seen: map[string]bool{}}
}

// Insert ignora eventos ya encolados (mismo event_id).
func (s *OutboxStore) Insert(_ context.Context, records ...outbox.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if s.seen[rec.EventID] {
			continue
		}
		s.nextID++
		rec.ID = s.nextID
		s.seen[rec.EventID] = true
		s.records = append(s.records, rec)
	}
	return nil
}

// FetchPending registros sin enviar en orden de inserción.
func (s *OutboxStore) FetchPending(_ context.Context, limit int) ([]outbox.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []outbox.Record
	for _, rec := range s.records {
		if rec.SentAt != nil {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkSent marca los registros publicados.
func (s *OutboxStore) MarkSent(_ context.Context, ids ...int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for i := range s.records {
		if want[s.records[i].ID] {
			s.records[i].SentAt = &now
		}
	}
	return nil
}
