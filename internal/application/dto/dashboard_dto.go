package dto

import "github.com/shopspring/decimal"

// InvoiceSummaryDTO respuesta de GET /api/stored-invoices/summary.
// Sin conversión entre monedas: un total por moneda.
type InvoiceSummaryDTO struct {
	Paid        []CurrencyTotalDTO `json:"paid"`
	Outstanding []CurrencyTotalDTO `json:"outstanding"`
}

// CurrencyTotalDTO total de una moneda, con y sin formato.
type CurrencyTotalDTO struct {
	Currency  string          `json:"currency"`
	Total     decimal.Decimal `json:"total"`
	Formatted string          `json:"formatted"`
}
