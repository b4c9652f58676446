package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"

	appanalytics "github.com/jhoicas/slipstream/internal/application/analytics"
	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
)

const readyTimeout = 3 * time.Second

// RouterDeps dependencias para el router. Stored y Dashboard son nil sin persistencia;
// Payment nil deja las sesiones sin pago en segundo plano y no monta /pay.
type RouterDeps struct {
	Editor    *billing.EditorUseCase
	View      *billing.ViewUseCase
	Link      *billing.PaymentLinkBuilder
	Payment   *billing.PaymentUseCase
	PDF       *billing.PDFUseCase
	Identity  *billing.IdentityUseCase
	Stored    *billing.StoredInvoiceUseCase
	Dashboard *appanalytics.DashboardUseCase
	Sessions  *reconcile.Registry

	// Origen de confianza con el que se reenvía el resultado del proveedor a las sesiones.
	TrustedOrigin string
	// URL pública de la vista de factura.
	BaseURL *url.URL
	// Ready comprueba dependencias externas para /ready; nil = siempre listo.
	Ready   func(ctx context.Context) error
	Metrics http.Handler
	Log     zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Ready != nil {
		app.Get("/ready", func(c *fiber.Ctx) error {
			ctx, cancel := context.WithTimeout(c.UserContext(), readyTimeout)
			defer cancel()
			if err := deps.Ready(ctx); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "NOT_READY", Message: err.Error()})
			}
			return c.JSON(fiber.Map{"status": "ready"})
		})
	}
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	api := app.Group("/api", IdentityMiddleware(deps.Identity))

	// Identidad del proveedor
	identityHandler := NewIdentityHandler(deps.Identity)
	api.Get("/identity", identityHandler.Me)
	api.Get("/preferences/:address", identityHandler.Preferences)

	// Facturas en la URL
	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Editor, deps.View, deps.Link, deps.Payment, deps.PDF, deps.BaseURL)
	invoices.Post("/draft", invoiceHandler.Draft)
	invoices.Post("/encode", invoiceHandler.Encode)
	invoices.Get("/view", invoiceHandler.View)
	invoices.Post("/items/amount", invoiceHandler.Amount)
	invoices.Post("/selection", invoiceHandler.Selection)
	invoices.Post("/payment-link", invoiceHandler.PaymentLink)
	if deps.Payment != nil {
		invoices.Post("/pay", invoiceHandler.Pay)
	}
	if deps.PDF != nil {
		invoices.Get("/pdf", invoiceHandler.PDF)
		invoices.Get("/qr", invoiceHandler.QR)
	}

	// Sesiones de reconciliación
	sessions := api.Group("/sessions")
	sessionHandler := NewSessionHandler(deps.Sessions, deps.Payment, deps.TrustedOrigin, deps.BaseURL, deps.Log)
	sessions.Post("/", sessionHandler.Open)
	sessions.Get("/:id", sessionHandler.Get)
	sessions.Post("/:id/payment", sessionHandler.BeginPayment)
	sessions.Post("/:id/cancel", sessionHandler.Cancel)
	sessions.Post("/:id/messages", sessionHandler.Message)
	sessions.Delete("/:id", sessionHandler.Close)

	// Facturas guardadas (solo con persistencia)
	if deps.Stored != nil {
		stored := api.Group("/stored-invoices")
		if deps.Dashboard != nil {
			dashboardHandler := NewDashboardHandler(deps.Dashboard)
			stored.Get("/summary", dashboardHandler.GetSummary)
		}
		storedHandler := NewStoredInvoiceHandler(deps.Stored)
		stored.Post("/", storedHandler.Create)
		stored.Get("/:shortId", storedHandler.Get)
		stored.Put("/:shortId", RequireVerified(), storedHandler.Update)
		stored.Post("/:shortId/paid", storedHandler.MarkPaid)
	}
}
