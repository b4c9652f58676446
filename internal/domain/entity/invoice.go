package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/shopspring/decimal"
)

// PaidAtLayout formato de presentación de la fecha de pago (en-US, 12h).
const PaidAtLayout = "Jan 02, 2006, 03:04 PM"

// PartyInfo descriptor libre de una parte (emisor o destinatario).
type PartyInfo struct {
	Details string
}

// Invoice es la unidad que se serializa en el parámetro ?data= del link compartido.
type Invoice struct {
	InvoiceID     string // generado una vez; estable entre ediciones y recodificaciones
	Items         []LineItem
	CompanyInfo   PartyInfo
	RecipientInfo PartyInfo
	Currency      Currency
	WalletAddress string // dirección o nombre ENS del beneficiario
	// SelectedTokens / SelectedChains aceptados; {"All"} = sin restricción.
	SelectedTokens Selection
	SelectedChains Selection
	IsPaid         bool       // monótono false → true
	PaidAt         *time.Time // se fija una sola vez, al pasar a pagada
	TxHash         string     // referencia del proveedor; vacía mientras no esté pagada
}

// NewInvoice crea una factura vacía con una línea en blanco y un ID nuevo.
func NewInvoice() *Invoice {
	return &Invoice{
		InvoiceID:      uuid.New().String(),
		Items:          []LineItem{NewLineItem()},
		Currency:       DefaultCurrency,
		SelectedTokens: AllSelection(),
		SelectedChains: AllSelection(),
	}
}

// GrandTotal suma de los montos de todas las líneas; los no interpretables aportan cero.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range inv.Items {
		total = total.Add(it.Value())
	}
	return total
}

// FormattedTotal total con símbolo de moneda (ej. "€100.00").
func (inv *Invoice) FormattedTotal() string {
	return FormatMoney(inv.Currency, inv.GrandTotal())
}

// IsShareable: ambas partes informadas y al menos una línea con descripción y monto positivo.
func (inv *Invoice) IsShareable() bool {
	if strings.TrimSpace(inv.CompanyInfo.Details) == "" || strings.TrimSpace(inv.RecipientInfo.Details) == "" {
		return false
	}
	for _, it := range inv.Items {
		if it.IsComplete() {
			return true
		}
	}
	return false
}

// IsPayable: wallet informada y total positivo.
func (inv *Invoice) IsPayable() bool {
	return strings.TrimSpace(inv.WalletAddress) != "" && inv.GrandTotal().IsPositive()
}

// MarkPaid aplica el hecho de pago. Devuelve false (sin cambios) si ya estaba pagada.
func (inv *Invoice) MarkPaid(at time.Time, txHash string) bool {
	if inv.IsPaid {
		return false
	}
	paidAt := at.UTC()
	inv.IsPaid = true
	inv.PaidAt = &paidAt
	inv.TxHash = txHash
	return true
}

// FormattedPaidAt fecha de pago para presentación; "" si no está pagada.
func (inv *Invoice) FormattedPaidAt() string {
	if inv.PaidAt == nil {
		return ""
	}
	return inv.PaidAt.Format(PaidAtLayout)
}

// ── Edición (solo mientras no esté pagada) ───────────────────────────────────

// AddItem agrega una línea vacía al final.
func (inv *Invoice) AddItem() (LineItem, error) {
	if inv.IsPaid {
		return LineItem{}, domain.ErrReadOnly
	}
	it := NewLineItem()
	inv.Items = append(inv.Items, it)
	return it, nil
}

// RemoveItem elimina la línea con el ID indicado conservando el orden del resto.
func (inv *Invoice) RemoveItem(id string) error {
	if inv.IsPaid {
		return domain.ErrReadOnly
	}
	for i, it := range inv.Items {
		if it.ID == id {
			inv.Items = append(inv.Items[:i:i], inv.Items[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// SetItemDescription cambia la descripción de una línea.
func (inv *Invoice) SetItemDescription(id, description string) error {
	return inv.updateItem(id, func(it *LineItem) { it.Description = description })
}

// SetItemAmount sanea la entrada del usuario y la guarda como monto canónico.
func (inv *Invoice) SetItemAmount(id, raw string) error {
	return inv.updateItem(id, func(it *LineItem) {
		it.Amount = SanitizeAmount(raw)
		it.DisplayAmount = FormatAmount(it.Amount)
	})
}

func (inv *Invoice) updateItem(id string, fn func(*LineItem)) error {
	if inv.IsPaid {
		return domain.ErrReadOnly
	}
	for i := range inv.Items {
		if inv.Items[i].ID == id {
			fn(&inv.Items[i])
			return nil
		}
	}
	return domain.ErrNotFound
}

// ── Validación del formulario ────────────────────────────────────────────────

// ItemErrors campos faltantes de una línea.
type ItemErrors struct {
	Description bool `json:"description"`
	Amount      bool `json:"amount"`
}

// FormErrors errores por campo que muestra el formulario antes de compartir.
type FormErrors struct {
	CompanyDetails   bool                  `json:"company_details"`
	RecipientDetails bool                  `json:"recipient_details"`
	Items            map[string]ItemErrors `json:"items"`
}

// HasErrors indica si algún campo es inválido.
func (fe FormErrors) HasErrors() bool {
	if fe.CompanyDetails || fe.RecipientDetails {
		return true
	}
	for _, e := range fe.Items {
		if e.Description || e.Amount {
			return true
		}
	}
	return false
}

// Validate marca cada campo vacío: partes, y descripción/monto de cada línea.
func (inv *Invoice) Validate() FormErrors {
	fe := FormErrors{
		CompanyDetails:   strings.TrimSpace(inv.CompanyInfo.Details) == "",
		RecipientDetails: strings.TrimSpace(inv.RecipientInfo.Details) == "",
		Items:            make(map[string]ItemErrors, len(inv.Items)),
	}
	for _, it := range inv.Items {
		fe.Items[it.ID] = ItemErrors{
			Description: strings.TrimSpace(it.Description) == "",
			Amount:      strings.TrimSpace(it.Amount) == "",
		}
	}
	return fe
}
