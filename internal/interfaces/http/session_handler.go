package http

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain"
)

// SessionHandler sesiones de reconciliación montadas en el servidor: cada una es una vista
// de factura con su Location, su listener de mensajes y sus timers.
type SessionHandler struct {
	registry *reconcile.Registry
	payment  *billing.PaymentUseCase // nil: /payment solo abre el overlay
	origin   string                  // origen con el que se reenvía el resultado del proveedor
	baseURL  *url.URL
	log      zerolog.Logger
}

// NewSessionHandler construye el handler.
func NewSessionHandler(registry *reconcile.Registry, payment *billing.PaymentUseCase, origin string, baseURL *url.URL, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		payment:  payment,
		origin:   origin,
		baseURL:  baseURL,
		log:      log.With().Str("component", "session_handler").Logger(),
	}
}

// Open godoc
// @Summary      Monta una sesión de reconciliación
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OpenSessionRequest  true  "URL de la factura"
// @Success      201   {object} dto.SessionDTO
// @Failure      400   {object} dto.ErrorResponse
// @Failure      503   {object} dto.ErrorResponse
// @Router       /api/sessions [post]
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	var in dto.OpenSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	s, err := h.registry.Open(in.URL)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sessionDTO(s.Snapshot()))
}

// Get godoc
// @Summary      Estado de la sesión
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      200   {object} dto.SessionDTO
// @Failure      404   {object} dto.ErrorResponse
// @Router       /api/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sessionDTO(s.Snapshot()))
}

// BeginPayment godoc
// @Summary      Abre el overlay de pago
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Success      202   {object} dto.SessionDTO
// @Failure      409   {object} dto.ErrorResponse
// @Failure      422   {object} dto.ErrorResponse
// @Router       /api/sessions/{id}/payment [post]
func (h *SessionHandler) BeginPayment(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := s.BeginPayment(); err != nil {
		return writeError(c, err)
	}
	if h.payment != nil {
		go h.pay(s)
	}
	return c.Status(fiber.StatusAccepted).JSON(sessionDTO(s.Snapshot()))
}

func (h *SessionHandler) pay(s *reconcile.Session) {
	res, err := h.payment.Pay(context.Background(), s.Snapshot().Invoice, h.baseURL)
	if err != nil {
		if cerr := s.CancelPayment(err); cerr != nil {
			h.log.Debug().Err(cerr).Str("session_id", s.ID()).Msg("cancelación descartada")
		}
		return
	}
	delivered := s.Post(reconcile.Message{
		Origin: h.origin,
		Data:   reconcile.MessageData{Type: reconcile.MessageTypePaymentComplete, TxHash: res.TxHash},
	})
	h.log.Debug().Str("session_id", s.ID()).Int("delivered", delivered).Msg("resultado del proveedor reenviado")
}

// Cancel godoc
// @Summary      Cancelación o timeout del proveedor
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Param        body  body  dto.CancelRequest  false  "Motivo"
// @Success      200   {object} dto.SessionDTO
// @Failure      409   {object} dto.ErrorResponse
// @Router       /api/sessions/{id}/cancel [post]
func (h *SessionHandler) Cancel(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.CancelRequest
	_ = c.BodyParser(&in)
	cause := domain.ErrPaymentCancelled
	if strings.EqualFold(strings.TrimSpace(in.Reason), "timeout") {
		cause = domain.ErrPaymentTimeout
	}
	if err := s.CancelPayment(fmt.Errorf("%w: %w", domain.ErrProviderError, cause)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(sessionDTO(s.Snapshot()))
}

// Message godoc
// @Summary      Entrega un mensaje entre contextos
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id  path  string  true  "ID de la sesión"
// @Param        body  body  dto.MessageRequest  true  "Mensaje"
// @Success      200   {object} dto.MessageResponse
// @Failure      404   {object} dto.ErrorResponse
// @Router       /api/sessions/{id}/messages [post]
func (h *SessionHandler) Message(c *fiber.Ctx) error {
	s, err := h.session(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.MessageRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	delivered := s.Post(reconcile.Message{
		Origin: in.Origin,
		Data:   reconcile.MessageData{Type: in.Data.Type, TxHash: in.Data.TxHash},
	})
	return c.JSON(dto.MessageResponse{Delivered: delivered, Session: sessionDTO(s.Snapshot())})
}

// Close godoc
// @Summary      Desmonta la sesión
// @Tags         sessions
// @Param        id  path  string  true  "ID de la sesión"
// @Success      204
// @Failure      404   {object} dto.ErrorResponse
// @Router       /api/sessions/{id} [delete]
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	if !h.registry.Close(c.Params("id")) {
		return writeError(c, domain.ErrNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) session(c *fiber.Ctx) (*reconcile.Session, error) {
	s, ok := h.registry.Get(c.Params("id"))
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func sessionDTO(snap reconcile.Snapshot) dto.SessionDTO {
	out := dto.SessionDTO{
		ID:            snap.ID,
		State:         string(snap.State),
		URL:           snap.URL,
		ReadOnly:      snap.ReadOnly,
		Fallback:      snap.Fallback,
		OverlayOpen:   snap.OverlayOpen,
		Reloads:       snap.Reloads,
		PendingTimers: snap.PendingTimers,
		LastOutcome:   string(snap.LastOutcome),
		Closed:        snap.Closed,
	}
	if snap.Invoice != nil {
		inv := dto.FromInvoice(snap.Invoice)
		totals := dto.Totals(snap.Invoice)
		out.Invoice, out.Totals = &inv, &totals
	}
	switch {
	case snap.LastError == nil:
	case errors.Is(snap.LastError, domain.ErrProviderError):
		out.LastError = billing.ProviderMessage(snap.LastError)
	default:
		out.LastError = snap.LastError.Error()
	}
	return out
}
