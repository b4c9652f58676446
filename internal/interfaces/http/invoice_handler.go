package http

import (
	"fmt"
	"mime"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
)

// InvoiceHandler editor, vista y pago de facturas codificadas en la URL.
type InvoiceHandler struct {
	editor  *billing.EditorUseCase
	view    *billing.ViewUseCase
	link    *billing.PaymentLinkBuilder
	payment *billing.PaymentUseCase
	pdf     *billing.PDFUseCase
	baseURL *url.URL
}

// NewInvoiceHandler construye el handler. baseURL es la URL pública de la vista de factura.
func NewInvoiceHandler(
	editor *billing.EditorUseCase,
	view *billing.ViewUseCase,
	link *billing.PaymentLinkBuilder,
	payment *billing.PaymentUseCase,
	pdf *billing.PDFUseCase,
	baseURL *url.URL,
) *InvoiceHandler {
	return &InvoiceHandler{editor: editor, view: view, link: link, payment: payment, pdf: pdf, baseURL: baseURL}
}

// Draft godoc
// @Summary      Crea un borrador con una línea vacía
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Success      201   {object} dto.DraftResponse
// @Failure      401   {object} dto.ErrorResponse
// @Router       /api/invoices/draft [post]
func (h *InvoiceHandler) Draft(c *fiber.Ctx) error {
	id := GetIdentity(c)
	inv := h.editor.NewDraft(id)
	return c.Status(fiber.StatusCreated).JSON(dto.DraftResponse{
		Invoice:  dto.FromInvoice(inv),
		Identity: identityDTO(id),
	})
}

// Encode godoc
// @Summary      Valida y codifica la factura en un link
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceRequest  true  "Factura"
// @Success      200   {object} dto.EncodeResponse
// @Failure      400   {object} dto.ErrorResponse
// @Failure      422   {object} dto.ValidationErrorResponse
// @Router       /api/invoices/encode [post]
func (h *InvoiceHandler) Encode(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	token, u, err := h.editor.Share(in.Invoice.ToEntity(), h.baseURL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.EncodeResponse{Token: token, URL: u.String()})
}

// View godoc
// @Summary      Abre un link y aplica la redirección del proveedor
// @Tags         invoices
// @Produce      json
// @Param        data  query  string  true  "Token de la factura"
// @Param        txHash  query  string  false  "Hash de la transacción"
// @Param        chainId  query  string  false  "Cadena"
// @Param        amount  query  string  false  "Monto pagado"
// @Success      200   {object} dto.ViewResponse
// @Router       /api/invoices/view [get]
func (h *InvoiceHandler) View(c *fiber.Ctx) error {
	u := *h.baseURL
	u.RawQuery = string(c.Request().URI().QueryString())

	res, err := h.view.View(u.String())
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ViewResponse{
		Invoice:    dto.FromInvoice(res.Invoice),
		Totals:     dto.Totals(res.Invoice),
		ReadOnly:   res.ReadOnly,
		Fallback:   res.Fallback,
		Outcome:    string(res.Outcome),
		ReplaceURL: res.ReplaceURL,
	}
	if r := h.link.Receipt(res.Invoice); r != nil {
		out.Receipt = &dto.ReceiptDTO{URL: r.URL, ShareText: r.ShareText, Telegram: r.Telegram, WhatsApp: r.WhatsApp}
	}
	return c.JSON(out)
}

// Amount godoc
// @Summary      Sanea la entrada de un monto
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AmountRequest  true  "Entrada"
// @Success      200   {object} dto.AmountResponse
// @Router       /api/invoices/items/amount [post]
func (h *InvoiceHandler) Amount(c *fiber.Ctx) error {
	var in dto.AmountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	amount, display := h.editor.SanitizeAmount(in.Input)
	return c.JSON(dto.AmountResponse{Amount: amount, Display: display})
}

// Selection godoc
// @Summary      Selecciona o quita un token o cadena
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SelectionRequest  true  "Selección"
// @Success      200   {object} dto.SelectionResponse
// @Failure      400   {object} dto.ErrorResponse
// @Router       /api/invoices/selection [post]
func (h *InvoiceHandler) Selection(c *fiber.Ctx) error {
	var in dto.SelectionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	sel, err := h.editor.ToggleSelection(in.Kind, in.Current, in.Value)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SelectionResponse{Selection: sel})
}

// PaymentLink godoc
// @Summary      Link al checkout del proveedor
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceRequest  true  "Factura"
// @Success      200   {object} dto.PaymentLinkResponse
// @Failure      422   {object} dto.ErrorResponse
// @Router       /api/invoices/payment-link [post]
func (h *InvoiceHandler) PaymentLink(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	link, err := h.link.Build(in.Invoice.ToEntity(), h.baseURL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PaymentLinkResponse{URL: link})
}

// Pay godoc
// @Summary      Pide el pago al proveedor
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceRequest  true  "Factura"
// @Success      200   {object} dto.PayResponse
// @Failure      422   {object} dto.ErrorResponse
// @Failure      502   {object} dto.ErrorResponse
// @Router       /api/invoices/pay [post]
func (h *InvoiceHandler) Pay(c *fiber.Ctx) error {
	var in dto.InvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.payment.Pay(c.UserContext(), in.Invoice.ToEntity(), h.baseURL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.PayResponse{TxHash: res.TxHash, ChainID: res.ChainID})
}

// PDF godoc
// @Summary      Descarga la factura en PDF
// @Tags         invoices
// @Produce      application/pdf
// @Param        data  query  string  true  "Token de la factura"
// @Success      200   {file} binary
// @Failure      400   {object} dto.ErrorResponse
// @Router       /api/invoices/pdf [get]
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	doc, filename, err := h.pdf.DownloadInvoicePDF(c.UserContext(), c.Query(codec.ParamData))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	return c.Send(doc)
}

// QR godoc
// @Summary      QR del link compartido
// @Tags         invoices
// @Produce      image/png
// @Param        data  query  string  true  "Token de la factura"
// @Param        size  query  int  false  "Lado en píxeles" default(256)
// @Success      200   {file} binary
// @Failure      400   {object} dto.ErrorResponse
// @Router       /api/invoices/qr [get]
func (h *InvoiceHandler) QR(c *fiber.Ctx) error {
	size := 0
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return writeError(c, fmt.Errorf("%w: size", domain.ErrInvalidInput))
		}
		size = n
	}
	png, err := h.pdf.QRCode(c.Query(codec.ParamData), size)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
