package billing

import (
	"net/url"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// Receipt links de una factura pagada: el recibo en el proveedor y los mensajes para
// compartirlo por Telegram y WhatsApp.
type Receipt struct {
	URL       string
	ShareText string
	Telegram  string
	WhatsApp  string
}

// Receipt arma los links del recibo sobre el host del proveedor (<scheme>://<host>/tx/<txHash>).
// nil si la factura no está pagada o el pago no trae txHash.
func (b *PaymentLinkBuilder) Receipt(inv *entity.Invoice) *Receipt {
	if inv == nil || !inv.IsPaid || strings.TrimSpace(inv.TxHash) == "" {
		return nil
	}
	base := b.payURL
	if u, err := url.Parse(b.payURL); err == nil && u.Host != "" {
		base = u.Scheme + "://" + u.Host
	}
	receiptURL := base + "/tx/" + url.PathEscape(strings.TrimSpace(inv.TxHash))
	text := "I just paid " + inv.Currency.Symbol() + inv.GrandTotal().StringFixed(2) + " via Slipstream."

	return &Receipt{
		URL:       receiptURL,
		ShareText: text,
		Telegram:  "https://t.me/share/url?url=" + escapeComponent(receiptURL) + "&text=" + escapeComponent(text),
		WhatsApp:  "https://wa.me/?text=" + escapeComponent(text+" Here's the receipt:\n"+receiptURL),
	}
}

// escapeComponent escapa un valor de query con %20 para los espacios, como esperan los
// enlaces de compartir.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
