package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SanitizeAmount convierte lo que escribe el usuario en el string canónico del monto:
// coma → punto, se descarta todo lo que no sea dígito o punto, se conserva solo el primer
// punto y la parte decimal se trunca a 2 dígitos. Ej: "12,5" → "12.5", "1.234" → "1.23".
func SanitizeAmount(raw string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(raw, ",", ".") {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	whole, frac, found := strings.Cut(clean, ".")
	if !found {
		return whole
	}
	frac = strings.ReplaceAll(frac, ".", "")
	if len(frac) > 2 {
		frac = frac[:2]
	}
	return whole + "." + frac
}

// ParseAmount interpreta un monto canónico. Lo no interpretable o negativo aporta cero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FormatAmount presentación en-US con 2 decimales, sin símbolo ("1234.5" → "1,234.50").
// Devuelve "" si el monto no es interpretable, igual que el campo vacío del formulario.
func FormatAmount(s string) string {
	if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
		return ""
	}
	return FormatMoney("", ParseAmount(s))
}
