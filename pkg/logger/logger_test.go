package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Env: "production", Level: "debug"}, &buf)

	c := l.Component("orders")
	c.Info().Str("order_id", "o-1").Msg("pedido creado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "orders", line["component"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "info", line["level"])
}

func TestParseLevel_Invalido(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Env: "production", Level: "verbose"}, &buf)
	l.Debug().Msg("no debe salir")
	assert.Empty(t, buf.String())
}
