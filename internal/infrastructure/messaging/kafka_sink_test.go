package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marketplace-api/internal/application/ports"
	"github.com/jhoicas/marketplace-api/internal/domain/entity"
	"github.com/jhoicas/marketplace-api/pkg/kafka"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func evento(tipo, aggID string) entity.DomainEvent {
	return ports.NewEvent(tipo, aggID, entity.SystemActor, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), map[string]any{"shop_id": "shop-1"})
}

func TestKafkaSink_TopicPorAgregadoYClave(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(kafka.NewClient([]string{"k:9092"}, "marketplace"), w, nil, zerolog.Nop())

	err := sink.Emit(context.Background(), evento(entity.EventOrderCreated, "o-1"), evento(entity.EventShiftOpened, "sh-1"))
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "marketplace.order", w.msgs[0].Topic)
	assert.Equal(t, []byte("o-1"), w.msgs[0].Key)
	assert.Equal(t, "marketplace.shift", w.msgs[1].Topic)

	var body entity.DomainEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &body))
	assert.Equal(t, entity.EventOrderCreated, body.Type)
	assert.Equal(t, "shop-1", body.Payload["shop_id"])
}

func TestKafkaSink_PropagaErrorDelBroker(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	sink := NewKafkaSink(kafka.NewClient([]string{"k:9092"}, "marketplace"), w, nil, zerolog.Nop())
	assert.Error(t, sink.Emit(context.Background(), evento(entity.EventOrderCreated, "o-1")))
}

func TestLogSink_RegistraEvento(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(nil, zerolog.New(&buf))
	require.NoError(t, sink.Emit(context.Background(), evento(entity.EventShiftPaused, "sh-1")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, entity.EventShiftPaused, line["event_type"])
	assert.Equal(t, "sh-1", line["aggregate_id"])
}
