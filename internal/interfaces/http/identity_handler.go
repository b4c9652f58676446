package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/domain"
)

// IdentityHandler identidad del token del proveedor y preferencias publicadas.
type IdentityHandler struct {
	uc *billing.IdentityUseCase
}

// NewIdentityHandler construye el handler.
func NewIdentityHandler(uc *billing.IdentityUseCase) *IdentityHandler {
	return &IdentityHandler{uc: uc}
}

// Me godoc
// @Summary      Identidad del token del proveedor
// @Tags         identity
// @Security     Bearer
// @Produce      json
// @Success      200   {object} dto.IdentityDTO
// @Failure      401   {object} dto.ErrorResponse
// @Router       /api/identity [get]
func (h *IdentityHandler) Me(c *fiber.Ctx) error {
	id := GetIdentity(c)
	if id == nil {
		return writeError(c, domain.ErrUnauthorized)
	}
	return c.JSON(identityDTO(id))
}

// Preferences godoc
// @Summary      Preferencias de pago de una dirección
// @Tags         identity
// @Produce      json
// @Param        address  path  string  true  "Wallet o nombre ENS"
// @Success      200   {object} billing.Preferences
// @Failure      400   {object} dto.ErrorResponse
// @Router       /api/preferences/{address} [get]
func (h *IdentityHandler) Preferences(c *fiber.Ctx) error {
	p, err := h.uc.Preferences(c.UserContext(), c.Params("address"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(p)
}
