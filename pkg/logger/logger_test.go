package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "marketplace-api", Output: &buf})

	comp := l.Component("order")
	comp.Info().Str("order_id", "o-1").Msg("pedido creado")
	l.Debug().Msg("no se escribe")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "marketplace-api", line["service"])
	assert.Equal(t, "order", line["component"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "pedido creado", line["message"])
}
