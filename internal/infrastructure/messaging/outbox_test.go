package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/internal/infrastructure/memory"
	"github.com/jhoicas/marketplace-api/pkg/kafka"
	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

// ──────────────────────────────────────────────────────────────────────────────
// Outbox + relay
// ──────────────────────────────────────────────────────────────────────────────

func TestOutbox_RelayPublicaYMarcaEnviados(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOutboxStore()
	client := kafka.NewClient([]string{"k:9092"}, "marketplace")
	sink := NewOutboxSink(store, client, metrics.NewServerMetrics("test"))

	ev := evento(entity.EventOrderDelivered, "o-7")
	require.NoError(t, sink.Emit(ctx, ev, evento(entity.EventPeriodClosed, "p-1")))
	// reintento del mismo evento: no se duplica
	require.NoError(t, sink.Emit(ctx, ev))

	w := &fakeWriter{}
	relay := NewRelay(store, w, RelayConfig{BatchSize: 10}, nil, zerolog.Nop())

	n, err := relay.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "marketplace.order", w.msgs[0].Topic)
	assert.Equal(t, "marketplace.finance", w.msgs[1].Topic)

	var body entity.DomainEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, ev.ID, body.ID)

	n, err = relay.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nada pendiente tras marcar enviados")
}

func TestOutbox_BrokerCaidoConservaPendientes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewOutboxStore()
	sink := NewOutboxSink(store, kafka.NewClient(nil, "marketplace"), nil)
	require.NoError(t, sink.Emit(ctx, evento(entity.EventShiftClosed, "sh-1")))

	failing := &fakeWriter{err: errors.New("sin líder")}
	_, err := NewRelay(store, failing, RelayConfig{}, nil, zerolog.Nop()).Flush(ctx)
	require.Error(t, err)

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	ok := &fakeWriter{}
	n, err := NewRelay(store, ok, RelayConfig{}, nil, zerolog.Nop()).Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRelay_RunTerminaAlCancelar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	relay := NewRelay(memory.NewOutboxStore(), &fakeWriter{}, RelayConfig{}, nil, zerolog.Nop())
	go func() {
		relay.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}
