package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DescartaVacios(t *testing.T) {
	c := NewClient([]string{" k1:9092 ", "", "k2:9092"}, "marketplace")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Brokers)
	assert.True(t, c.Enabled())
	assert.False(t, NewClient(nil, "x").Enabled())
}

func TestTopic_PorAgregado(t *testing.T) {
	c := NewClient(nil, "marketplace")
	assert.Equal(t, "marketplace.order", c.Topic("order.created"))
	assert.Equal(t, "marketplace.finance", c.Topic("finance.period.closed"))
	assert.Equal(t, "marketplace.misc", c.Topic("misc"))
	assert.Equal(t, "shift", NewClient(nil, "").Topic("shift.opened"))
}

func TestNewWriter_SinBrokers(t *testing.T) {
	_, err := NewClient(nil, "x").NewWriter()
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, PublishJSON(context.Background(), nil, "t", "k", map[string]any{}), ErrDisabled)
}

func TestMessage_JSON(t *testing.T) {
	msg, err := Message("marketplace.order", "o-1", map[string]any{"type": "order.created"})
	require.NoError(t, err)
	assert.Equal(t, "marketplace.order", msg.Topic)
	assert.Equal(t, []byte("o-1"), msg.Key)

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "order.created", body["type"])
}
