package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/slipstream/internal/application/analytics"
)

// DashboardHandler expone el resumen por moneda de las facturas guardadas.
type DashboardHandler struct {
	summary *appanalytics.DashboardUseCase
}

func NewDashboardHandler(summary *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{summary: summary}
}

// GetSummary godoc
// @Summary      Totales cobrados y pendientes por moneda
// @Tags         stored-invoices
// @Produce      json
// @Success      200   {object} dto.InvoiceSummaryDTO
// @Router       /api/stored-invoices/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	out, err := h.summary.GetSummary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
