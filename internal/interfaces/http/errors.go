package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain"
)

// writeError traduce errores de dominio a status y código estable.
func writeError(c *fiber.Ctx, err error) error {
	if fields, ok := billing.FieldErrors(err); ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Code: "NOT_SHAREABLE", Message: err.Error(), Fields: fields,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	message := err.Error()
	switch {
	case errors.Is(err, domain.ErrProviderError):
		status, code, message = fiber.StatusBadGateway, "PROVIDER_ERROR", billing.ProviderMessage(err)
	case errors.Is(err, domain.ErrMalformedToken):
		status, code = fiber.StatusBadRequest, "MALFORMED_TOKEN"
	case errors.Is(err, domain.ErrInvalidPayload):
		status, code = fiber.StatusBadRequest, "INVALID_PAYLOAD"
	case errors.Is(err, domain.ErrIncompleteSignal):
		status, code = fiber.StatusBadRequest, "INCOMPLETE_SIGNAL"
	case errors.Is(err, domain.ErrInvalidWallet):
		status, code = fiber.StatusBadRequest, "INVALID_WALLET"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotShareable):
		status, code = fiber.StatusUnprocessableEntity, "NOT_SHAREABLE"
	case errors.Is(err, domain.ErrNotPayable):
		status, code = fiber.StatusUnprocessableEntity, "NOT_PAYABLE"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUntrustedOrigin):
		status, code = fiber.StatusForbidden, "UNTRUSTED_ORIGIN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, reconcile.ErrRegistryFull):
		status, code = fiber.StatusServiceUnavailable, "TOO_MANY_SESSIONS"
	case errors.Is(err, reconcile.ErrSessionClosed):
		status, code = fiber.StatusGone, "SESSION_CLOSED"
	case errors.Is(err, domain.ErrReadOnly):
		status, code = fiber.StatusConflict, "READ_ONLY"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: message})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
