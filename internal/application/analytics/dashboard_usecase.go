// Package analytics resume las facturas guardadas: cobrado y pendiente por moneda.
package analytics

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/domain/repository"
)

// DashboardUseCase genera el resumen de facturas guardadas.
type DashboardUseCase struct {
	analyticsRepo repository.AnalyticsRepository
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(analyticsRepo repository.AnalyticsRepository) *DashboardUseCase {
	return &DashboardUseCase{analyticsRepo: analyticsRepo}
}

// GetSummary lanza las dos consultas (pagadas y pendientes) en paralelo.
func (uc *DashboardUseCase) GetSummary(ctx context.Context) (*dto.InvoiceSummaryDTO, error) {
	type totalsResult struct {
		totals map[entity.Currency]decimal.Decimal
		err    error
	}

	paidCh := make(chan totalsResult, 1)
	outstandingCh := make(chan totalsResult, 1)

	go func() {
		t, err := uc.analyticsRepo.TotalsByCurrency(ctx, true)
		paidCh <- totalsResult{t, err}
	}()
	go func() {
		t, err := uc.analyticsRepo.TotalsByCurrency(ctx, false)
		outstandingCh <- totalsResult{t, err}
	}()

	paid := <-paidCh
	outstanding := <-outstandingCh

	if paid.err != nil {
		return nil, fmt.Errorf("dashboard: totales pagados: %w", paid.err)
	}
	if outstanding.err != nil {
		return nil, fmt.Errorf("dashboard: totales pendientes: %w", outstanding.err)
	}

	return &dto.InvoiceSummaryDTO{
		Paid:        toDTO(paid.totals),
		Outstanding: toDTO(outstanding.totals),
	}, nil
}

// toDTO ordena por código de moneda para una respuesta estable.
func toDTO(totals map[entity.Currency]decimal.Decimal) []dto.CurrencyTotalDTO {
	out := make([]dto.CurrencyTotalDTO, 0, len(totals))
	for cur, total := range totals {
		total = total.Round(2)
		out = append(out, dto.CurrencyTotalDTO{
			Currency:  string(cur),
			Total:     total,
			Formatted: entity.FormatMoney(cur, total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}
