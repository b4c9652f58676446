package billing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// Preferences tokens y cadenas aceptados por el beneficiario; {"all"} = sin restricción.
type Preferences struct {
	Address string   `json:"address,omitempty"`
	Tokens  []string `json:"tokens"`
	Chains  []string `json:"chains"`
}

// PaymentRequest pedido de pago al proveedor.
type PaymentRequest struct {
	Amount      decimal.Decimal
	Currency    entity.Currency
	Memo        string
	Preferences Preferences
	RedirectURL string
}

// PaymentResult respuesta del proveedor tras ejecutar el pago.
type PaymentResult struct {
	TxHash  string
	ChainID int
}

// PaymentProvider ejecuta el pago fuera de banda. Puede fallar con
// domain.ErrPaymentCancelled o domain.ErrPaymentTimeout; es un colaborador no confiable.
type PaymentProvider interface {
	RequestPayment(ctx context.Context, recipient string, req PaymentRequest) (*PaymentResult, error)
}

// PreferencesSource consulta las preferencias de pago publicadas para una dirección.
type PreferencesSource interface {
	Preferences(ctx context.Context, address string) (*Preferences, error)
}

// InvoicePDFGenerator genera la representación imprimible de la factura.
// shareURL se imprime como QR para abrir la factura desde el papel.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(ctx context.Context, inv *entity.Invoice, shareURL string) ([]byte, error)
}

// QRGenerator genera un PNG con el contenido indicado.
type QRGenerator interface {
	PNG(content string, size int) ([]byte, error)
}

// IDGenerator genera short ids para la persistencia opcional.
type IDGenerator interface {
	NewID() string
}
