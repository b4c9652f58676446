package dto

import (
	"time"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// ── Factura ───────────────────────────────────────────────────────────────────

// PartyDTO emisor o destinatario (texto libre multilínea).
type PartyDTO struct {
	Details string `json:"details"`
}

// LineItemDTO línea de la factura. DisplayAmount es solo de presentación.
type LineItemDTO struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	DisplayAmount string `json:"displayAmount,omitempty"`
}

// InvoiceDTO mismo shape que el token ?data=; los campos de pago solo se leen si isPaid.
type InvoiceDTO struct {
	InvoiceID      string        `json:"invoiceId"`
	Items          []LineItemDTO `json:"items"`
	CompanyInfo    PartyDTO      `json:"companyInfo"`
	RecipientInfo  PartyDTO      `json:"recipientInfo"`
	Currency       string        `json:"currency"`
	WalletAddress  string        `json:"walletAddress,omitempty"`
	SelectedTokens []string      `json:"selectedTokens"`
	SelectedChains []string      `json:"selectedChains"`
	IsPaid         bool          `json:"isPaid"`
	PaidAt         *time.Time    `json:"paidAt,omitempty"`
	TxHash         string        `json:"txHash,omitempty"`
}

// TotalsDTO total calculado; nunca viaja en el token.
type TotalsDTO struct {
	GrandTotal      string `json:"grandTotal"`
	Formatted       string `json:"formatted"`
	FormattedPaidAt string `json:"formattedPaidAt,omitempty"`
}

// FromInvoice convierte la entidad al DTO de respuesta.
func FromInvoice(inv *entity.Invoice) InvoiceDTO {
	if inv == nil {
		return InvoiceDTO{}
	}
	items := make([]LineItemDTO, 0, len(inv.Items))
	for _, it := range inv.Items {
		display := it.DisplayAmount
		if display == "" {
			display = entity.FormatAmount(it.Amount)
		}
		items = append(items, LineItemDTO{
			ID: it.ID, Description: it.Description, Amount: it.Amount, DisplayAmount: display,
		})
	}
	out := InvoiceDTO{
		InvoiceID:      inv.InvoiceID,
		Items:          items,
		CompanyInfo:    PartyDTO{Details: inv.CompanyInfo.Details},
		RecipientInfo:  PartyDTO{Details: inv.RecipientInfo.Details},
		Currency:       string(inv.Currency),
		WalletAddress:  inv.WalletAddress,
		SelectedTokens: append([]string{}, inv.SelectedTokens...),
		SelectedChains: append([]string{}, inv.SelectedChains...),
		IsPaid:         inv.IsPaid,
	}
	if inv.IsPaid {
		out.PaidAt, out.TxHash = inv.PaidAt, inv.TxHash
	}
	return out
}

// ToEntity convierte el DTO de entrada a entidad. Montos se sanean; selecciones se
// normalizan; moneda desconocida cae a USD.
func (d InvoiceDTO) ToEntity() *entity.Invoice {
	cur, ok := entity.ParseCurrency(d.Currency)
	if !ok {
		cur = entity.DefaultCurrency
	}
	items := make([]entity.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		li := entity.LineItem{ID: it.ID, Description: it.Description, Amount: entity.SanitizeAmount(it.Amount)}
		if li.ID == "" {
			li.ID = entity.NewLineItem().ID
		}
		items = append(items, li)
	}
	inv := &entity.Invoice{
		InvoiceID:      d.InvoiceID,
		Items:          items,
		CompanyInfo:    entity.PartyInfo{Details: d.CompanyInfo.Details},
		RecipientInfo:  entity.PartyInfo{Details: d.RecipientInfo.Details},
		Currency:       cur,
		WalletAddress:  d.WalletAddress,
		SelectedTokens: entity.NormalizeSelection(d.SelectedTokens),
		SelectedChains: entity.NormalizeSelection(d.SelectedChains),
	}
	if inv.InvoiceID == "" {
		inv.InvoiceID = entity.NewInvoice().InvoiceID
	}
	if d.IsPaid {
		inv.IsPaid, inv.PaidAt, inv.TxHash = true, d.PaidAt, d.TxHash
	}
	return inv
}

// Totals calcula los totales de presentación.
func Totals(inv *entity.Invoice) TotalsDTO {
	return TotalsDTO{
		GrandTotal:      inv.GrandTotal().StringFixed(2),
		Formatted:       inv.FormattedTotal(),
		FormattedPaidAt: inv.FormattedPaidAt(),
	}
}

// ── Editor ────────────────────────────────────────────────────────────────────

// DraftResponse borrador nuevo; Identity si vino token del proveedor.
type DraftResponse struct {
	Invoice  InvoiceDTO   `json:"invoice"`
	Identity *IdentityDTO `json:"identity,omitempty"`
}

// InvoiceRequest cuerpo con una factura.
type InvoiceRequest struct {
	Invoice InvoiceDTO `json:"invoice"`
}

// EncodeResponse token y link compartible.
type EncodeResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

// ValidationErrorResponse error de formulario con detalle por campo.
type ValidationErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  entity.FormErrors `json:"fields"`
}

// ViewResponse factura abierta desde un link. Receipt solo si está pagada con txHash.
type ViewResponse struct {
	Invoice    InvoiceDTO  `json:"invoice"`
	Totals     TotalsDTO   `json:"totals"`
	ReadOnly   bool        `json:"readOnly"`
	Fallback   bool        `json:"fallback"`
	Outcome    string      `json:"outcome,omitempty"`
	ReplaceURL string      `json:"replaceUrl,omitempty"`
	Receipt    *ReceiptDTO `json:"receipt,omitempty"`
}

// ReceiptDTO recibo en el proveedor y links para compartir el pago.
type ReceiptDTO struct {
	URL       string `json:"url"`
	ShareText string `json:"shareText"`
	Telegram  string `json:"telegram"`
	WhatsApp  string `json:"whatsapp"`
}

// AmountRequest entrada cruda de un monto.
type AmountRequest struct {
	Input string `json:"input"`
}

// AmountResponse monto canónico y su presentación.
type AmountResponse struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

// SelectionRequest (de)selección de un token o cadena.
type SelectionRequest struct {
	Kind    string   `json:"kind"` // tokens | chains
	Current []string `json:"current"`
	Value   string   `json:"value"`
}

// SelectionResponse selección resultante.
type SelectionResponse struct {
	Selection []string `json:"selection"`
}

// PaymentLinkResponse link al checkout del proveedor.
type PaymentLinkResponse struct {
	URL string `json:"url"`
}

// PayResponse resultado del proveedor; la factura sigue sin pagar hasta la reconciliación.
type PayResponse struct {
	TxHash  string `json:"txHash"`
	ChainID int    `json:"chainId"`
}

// ── Sesiones de reconciliación ────────────────────────────────────────────────

// OpenSessionRequest URL de la vista de factura (con ?data= y opcionalmente la señal).
type OpenSessionRequest struct {
	URL string `json:"url"`
}

// SessionDTO estado observable de una sesión.
type SessionDTO struct {
	ID            string      `json:"id"`
	State         string      `json:"state"`
	URL           string      `json:"url"`
	Invoice       *InvoiceDTO `json:"invoice,omitempty"`
	Totals        *TotalsDTO  `json:"totals,omitempty"`
	ReadOnly      bool        `json:"readOnly"`
	Fallback      bool        `json:"fallback"`
	OverlayOpen   bool        `json:"overlayOpen"`
	Reloads       int         `json:"reloads"`
	PendingTimers int         `json:"pendingTimers"`
	LastOutcome   string      `json:"lastOutcome,omitempty"`
	LastError     string      `json:"lastError,omitempty"`
	Closed        bool        `json:"closed"`
}

// MessageRequest mensaje entre contextos.
type MessageRequest struct {
	Origin string         `json:"origin"`
	Data   MessageDataDTO `json:"data"`
}

// MessageDataDTO contrato {type:"payment_complete", txHash}.
type MessageDataDTO struct {
	Type   string `json:"type"`
	TxHash string `json:"txHash"`
}

// MessageResponse número de listeners que recibieron el mensaje y estado resultante.
type MessageResponse struct {
	Delivered int        `json:"delivered"`
	Session   SessionDTO `json:"session"`
}

// CancelRequest motivo: cancelled | timeout.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// ── Facturas guardadas ────────────────────────────────────────────────────────

// StoredInvoiceDTO factura persistida por short id.
type StoredInvoiceDTO struct {
	ShortID   string     `json:"shortId"`
	Invoice   InvoiceDTO `json:"invoice"`
	Totals    TotalsDTO  `json:"totals"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// FromStored convierte la entidad persistida.
func FromStored(rec *entity.StoredInvoice) StoredInvoiceDTO {
	return StoredInvoiceDTO{
		ShortID:   rec.ShortID,
		Invoice:   FromInvoice(rec.Invoice),
		Totals:    Totals(rec.Invoice),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// MarkPaidRequest referencia del pago.
type MarkPaidRequest struct {
	TxHash string `json:"txHash"`
}

// MarkPaidResponse applied=false si ya estaba pagada.
type MarkPaidResponse struct {
	Applied bool             `json:"applied"`
	Stored  StoredInvoiceDTO `json:"stored"`
}

// ── Identidad ─────────────────────────────────────────────────────────────────

// IdentityDTO identidad del token del proveedor; trust=verified|unverified.
type IdentityDTO struct {
	Trust       string   `json:"trust"`
	Subject     string   `json:"subject"`
	ENS         string   `json:"ens,omitempty"`
	DisplayName string   `json:"displayName"`
	Tokens      []string `json:"tokens"`
	Chains      []string `json:"chains"`
}
