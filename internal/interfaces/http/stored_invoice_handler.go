package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
)

// StoredInvoiceHandler persistencia opcional de facturas por short id.
type StoredInvoiceHandler struct {
	uc *billing.StoredInvoiceUseCase
}

// NewStoredInvoiceHandler construye el handler.
func NewStoredInvoiceHandler(uc *billing.StoredInvoiceUseCase) *StoredInvoiceHandler {
	return &StoredInvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Guarda una factura sin pagar
// @Tags         stored-invoices
// @Accept       json
// @Produce      json
// @Param        body  body      dto.InvoiceRequest  true  "Factura"
// @Success      201   {object}  dto.StoredInvoiceDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stored-invoices [post]
func (h *StoredInvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, err := h.uc.Create(c.UserContext(), in.Invoice.ToEntity(), verifiedSubject(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromStored(rec))
}

// Get godoc
// @Summary      Obtiene una factura guardada
// @Tags         stored-invoices
// @Produce      json
// @Param        shortId  path  string  true  "Short id"
// @Success      200   {object} dto.StoredInvoiceDTO
// @Failure      404   {object} dto.ErrorResponse
// @Router       /api/stored-invoices/{shortId} [get]
func (h *StoredInvoiceHandler) Get(c *fiber.Ctx) error {
	rec, err := h.uc.Get(c.UserContext(), c.Params("shortId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStored(rec))
}

// Update godoc
// @Summary      Actualiza una factura sin pagar (solo su dueño)
// @Tags         stored-invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        shortId  path  string  true  "Short id"
// @Param        body  body  dto.InvoiceRequest  true  "Factura"
// @Success      200   {object} dto.StoredInvoiceDTO
// @Failure      401   {object} dto.ErrorResponse
// @Failure      403   {object} dto.ErrorResponse
// @Failure      409   {object} dto.ErrorResponse
// @Router       /api/stored-invoices/{shortId} [put]
func (h *StoredInvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, err := h.uc.Update(c.UserContext(), c.Params("shortId"), verifiedSubject(c), in.Invoice.ToEntity())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromStored(rec))
}

// MarkPaid godoc
// @Summary      Marca la factura como pagada (idempotente)
// @Tags         stored-invoices
// @Accept       json
// @Produce      json
// @Param        shortId  path  string  true  "Short id"
// @Param        body  body  dto.MarkPaidRequest  true  "Pago"
// @Success      200   {object} dto.MarkPaidResponse
// @Failure      404   {object} dto.ErrorResponse
// @Router       /api/stored-invoices/{shortId}/paid [post]
func (h *StoredInvoiceHandler) MarkPaid(c *fiber.Ctx) error {
	var in dto.MarkPaidRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	rec, applied, err := h.uc.MarkPaid(c.UserContext(), c.Params("shortId"), in.TxHash)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MarkPaidResponse{Applied: applied, Stored: dto.FromStored(rec)})
}

// verifiedSubject subject de la identidad solo si la firma se verificó.
func verifiedSubject(c *fiber.Ctx) string {
	if id := GetIdentity(c); id != nil && id.Verified() {
		return id.Subject
	}
	return ""
}
