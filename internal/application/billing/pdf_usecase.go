package billing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// DefaultQRSize lado en píxeles del PNG del QR.
const DefaultQRSize = 256

// PDFUseCase genera la versión imprimible y el QR de una factura compartida.
type PDFUseCase struct {
	generator InvoicePDFGenerator
	qr        QRGenerator
	baseURL   *url.URL
}

// NewPDFUseCase baseURL es la URL pública de la app (los links se arman como baseURL?data=).
func NewPDFUseCase(generator InvoicePDFGenerator, qr QRGenerator, baseURL string) (*PDFUseCase, error) {
	u, err := url.Parse(baseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("pdf: APP_BASE_URL inválida: %q", baseURL)
	}
	return &PDFUseCase{generator: generator, qr: qr, baseURL: u}, nil
}

// DownloadInvoicePDF decodifica el token y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)
//   - domain.ErrMalformedToken / domain.ErrInvalidPayload si el token no es válido.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, token string) (pdfBytes []byte, filename string, err error) {
	inv, shareURL, err := uc.resolve(token)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, shareURL)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, Filename(inv), nil
}

// QRCode PNG con el link compartido de la factura.
func (uc *PDFUseCase) QRCode(token string, size int) ([]byte, error) {
	_, shareURL, err := uc.resolve(token)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > 2048 {
		return nil, fmt.Errorf("%w: tamaño máximo 2048", domain.ErrInvalidInput)
	}
	return uc.qr.PNG(shareURL, size)
}

func (uc *PDFUseCase) resolve(token string) (*entity.Invoice, string, error) {
	if token == "" {
		return nil, "", fmt.Errorf("%w: falta el parámetro data", domain.ErrInvalidInput)
	}
	inv, err := codec.Decode(token)
	if err != nil {
		return nil, "", err
	}
	return inv, codec.ShareURL(uc.baseURL, token).String(), nil
}

// Filename nombre del archivo PDF: hasta 8 caracteres [A-Za-z0-9-] del invoiceId, que viene
// del token y no es confiable. Sin ninguno queda "invoice.pdf".
func Filename(inv *entity.Invoice) string {
	var b strings.Builder
	for _, r := range inv.InvoiceID {
		if b.Len() == 8 {
			break
		}
		if r == '-' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "invoice.pdf"
	}
	return fmt.Sprintf("invoice_%s.pdf", b.String())
}
