package reconcile

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain"
)

// Source origen de una señal de pago completado.
type Source string

const (
	SourceRedirect Source = "redirect"
	SourceMessage  Source = "message"
)

// Parámetros de query que deja el proveedor al redirigir tras el pago.
const (
	ParamTxHash  = "txHash"
	ParamChainID = "chainId"
	ParamAmount  = "amount"
)

// RedirectSignal señal de pago recibida por redirección; los tres campos son obligatorios.
type RedirectSignal struct {
	TxHash  string
	ChainID string
	Amount  string
}

// ParseRedirect lee la señal de la query.
// Sin ningún parámetro devuelve (nil, nil); con solo parte de ellos, domain.ErrIncompleteSignal.
func ParseRedirect(q url.Values) (*RedirectSignal, error) {
	sig := RedirectSignal{
		TxHash:  strings.TrimSpace(q.Get(ParamTxHash)),
		ChainID: strings.TrimSpace(q.Get(ParamChainID)),
		Amount:  strings.TrimSpace(q.Get(ParamAmount)),
	}
	var missing []string
	if sig.TxHash == "" {
		missing = append(missing, ParamTxHash)
	}
	if sig.ChainID == "" {
		missing = append(missing, ParamChainID)
	}
	if sig.Amount == "" {
		missing = append(missing, ParamAmount)
	}
	switch len(missing) {
	case 0:
		return &sig, nil
	case 3:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: falta %s", domain.ErrIncompleteSignal, strings.Join(missing, ", "))
	}
}

// ── Mensajes entre contextos ────────────────────────────────────────────────

// MessageTypePaymentComplete tipo del mensaje que anuncia el pago.
const MessageTypePaymentComplete = "payment_complete"

// MessageData contenido del mensaje: {type, txHash}.
type MessageData struct {
	Type   string `json:"type"`
	TxHash string `json:"txHash"`
}

// Message mensaje con el origen declarado por el emisor.
type Message struct {
	Origin string
	Data   MessageData
}

// OriginGuard acepta solo mensajes del origen conocido del proveedor.
type OriginGuard struct {
	origin string
}

// NewOriginGuard crea el guard; "https://yodl.me/" y "https://yodl.me" son equivalentes.
func NewOriginGuard(origin string) OriginGuard {
	return OriginGuard{origin: normalizeOrigin(origin)}
}

// Allows compara el origen de forma exacta (esquema, host y puerto).
func (g OriginGuard) Allows(origin string) bool {
	return g.origin != "" && normalizeOrigin(origin) == g.origin
}

// Origin origen confiable configurado.
func (g OriginGuard) Origin() string { return g.origin }

func normalizeOrigin(o string) string {
	return strings.TrimRight(strings.TrimSpace(o), "/")
}
