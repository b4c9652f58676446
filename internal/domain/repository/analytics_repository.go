package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// AnalyticsRepository consultas de solo lectura sobre las facturas guardadas.
type AnalyticsRepository interface {
	// TotalsByCurrency suma grand_total por moneda entre las facturas pagadas (paid=true)
	// o pendientes (paid=false).
	TotalsByCurrency(ctx context.Context, paid bool) (map[entity.Currency]decimal.Decimal, error)
}
