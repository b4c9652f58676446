package entity

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem representa una línea de la factura.
type LineItem struct {
	ID          string // único en la factura, nunca se reutiliza tras eliminar la línea
	Description string
	Amount      string // monto canónico (ver SanitizeAmount), no un string de presentación
	// DisplayAmount texto formateado para el usuario; transitorio, nunca se serializa.
	DisplayAmount string
}

// NewLineItem crea una línea vacía con ID nuevo.
func NewLineItem() LineItem {
	return LineItem{ID: uuid.New().String()}
}

// Value monto interpretado; cero si no es interpretable.
func (li LineItem) Value() decimal.Decimal {
	return ParseAmount(li.Amount)
}

// IsComplete indica si la línea tiene descripción y un monto positivo.
func (li LineItem) IsComplete() bool {
	return strings.TrimSpace(li.Description) != "" && li.Value().IsPositive()
}
