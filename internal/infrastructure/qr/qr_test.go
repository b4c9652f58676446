package qr_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/infrastructure/qr"
)

func TestPNG_Tamano(t *testing.T) {
	g := qr.NewGenerator()
	raw, err := g.PNG("https://app.example/invoice?data=eyJpbnZvaWNlSWQiOiJhYmMifQ==", 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestPNG_TamanoMinimo(t *testing.T) {
	raw, err := qr.NewGenerator().PNG("x", 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 1, "nunca por debajo de un módulo por píxel")
}

func TestPNG_Vacio(t *testing.T) {
	_, err := qr.NewGenerator().PNG("", 256)
	assert.Error(t, err)
}
