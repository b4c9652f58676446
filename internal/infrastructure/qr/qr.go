package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	bqr "github.com/boombuler/barcode/qr"

	"github.com/jhoicas/slipstream/internal/application/billing"
)

var _ billing.QRGenerator = (*Generator)(nil)

// Generator genera QR en PNG para el link compartido de la factura.
// Los tokens largos necesitan corrección M para no pasar de versión 40.
type Generator struct {
	level bqr.ErrorCorrectionLevel
}

// NewGenerator construye el generador con corrección de errores M.
func NewGenerator() *Generator { return &Generator{level: bqr.M} }

// PNG codifica content en un QR cuadrado de size px.
func (g *Generator) PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr: contenido vacío")
	}
	code, err := bqr.Encode(content, g.level, bqr.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr: codificar: %w", err)
	}
	if size < code.Bounds().Dx() {
		size = code.Bounds().Dx()
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("qr: escalar: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("qr: png: %w", err)
	}
	return buf.Bytes(), nil
}
