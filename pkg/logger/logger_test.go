package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/pkg/logger"
)

func TestLogger_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "debug", Service: "slipstream", Out: &buf})

	comp := l.Component("reconciler")
	comp.Info().Str("invoice_id", "abc").Msg("pago aplicado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "slipstream", line["service"])
	assert.Equal(t, "reconciler", line["component"])
	assert.Equal(t, "abc", line["invoice_id"])
}

func TestLogger_Nivel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "warn", Out: &buf})
	l.Info().Msg("no aparece")
	assert.Zero(t, buf.Len())

	l = logger.New(logger.Config{Level: "???", Out: &buf})
	l.Debug().Msg("no aparece")
	l.Info().Msg("sí")
	assert.Contains(t, buf.String(), "sí")
}
