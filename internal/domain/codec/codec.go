// Package codec serializa la factura en el token URL-safe del parámetro ?data= y la
// reconstruye tolerando payloads parciales o antiguos.
//
// Formato: JSON del registro canónico → base64 con alfabeto URL y padding.
// Decode acepta además los tokens heredados btoa(encodeURIComponent(json)).
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// ParamData nombre del parámetro de query que transporta el token.
const ParamData = "data"

// ── Registro canónico ────────────────────────────────────────────────────────

type record struct {
	InvoiceID      string       `json:"invoiceId"`
	Items          []itemRecord `json:"items"`
	CompanyInfo    partyRecord  `json:"companyInfo"`
	RecipientInfo  partyRecord  `json:"recipientInfo"`
	Currency       string       `json:"currency"`
	WalletAddress  string       `json:"walletAddress,omitempty"`
	SelectedTokens []string     `json:"selectedTokens"`
	SelectedChains []string     `json:"selectedChains"`
	IsPaid         bool         `json:"isPaid"`
	PaidAt         string       `json:"paidAt,omitempty"`
	TxHash         string       `json:"txHash,omitempty"`
}

type itemRecord struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type partyRecord struct {
	Details string `json:"details"`
}

// Marshal devuelve el registro JSON canónico (sin DisplayAmount).
// Lo usa también la persistencia, que guarda la misma forma de factura.
func Marshal(inv *entity.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("%w: factura nula", domain.ErrInvalidInput)
	}
	rec := record{
		InvoiceID:      inv.InvoiceID,
		Items:          make([]itemRecord, 0, len(inv.Items)),
		CompanyInfo:    partyRecord{Details: inv.CompanyInfo.Details},
		RecipientInfo:  partyRecord{Details: inv.RecipientInfo.Details},
		Currency:       string(inv.Currency),
		WalletAddress:  inv.WalletAddress,
		SelectedTokens: []string(entity.NormalizeSelection(inv.SelectedTokens)),
		SelectedChains: []string(entity.NormalizeSelection(inv.SelectedChains)),
		IsPaid:         inv.IsPaid,
		TxHash:         inv.TxHash,
	}
	if rec.Currency == "" {
		rec.Currency = string(entity.DefaultCurrency)
	}
	for _, it := range inv.Items {
		rec.Items = append(rec.Items, itemRecord{ID: it.ID, Description: it.Description, Amount: it.Amount})
	}
	if inv.PaidAt != nil {
		rec.PaidAt = inv.PaidAt.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(rec)
}

// Encode serializa la factura en un token apto para un parámetro de query.
func Encode(inv *entity.Invoice) (string, error) {
	raw, err := Marshal(inv)
	if err != nil {
		return "", fmt.Errorf("codec: serializar factura: %w", err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// Decode reconstruye la factura desde un token.
//
// Errores:
//   - domain.ErrMalformedToken  si el base64 no es reversible (caracteres inválidos, padding truncado).
//   - domain.ErrInvalidPayload  si el contenido no es un objeto JSON bien formado.
func Decode(token string) (*entity.Invoice, error) {
	raw, err := decodeBase64(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	raw, err = unescapeLegacy(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return Unmarshal(raw)
}

// DecodeURL extrae y decodifica el parámetro data de una URL; ok=false si no lo trae.
func DecodeURL(u *url.URL) (inv *entity.Invoice, ok bool, err error) {
	if u == nil {
		return nil, false, nil
	}
	token := u.Query().Get(ParamData)
	if token == "" {
		return nil, false, nil
	}
	inv, err = Decode(token)
	return inv, true, err
}

// ShareURL construye base?data=<token>, descartando cualquier otro parámetro de la base.
func ShareURL(base *url.URL, token string) *url.URL {
	next := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: base.Path}
	next.RawQuery = url.Values{ParamData: {token}}.Encode()
	return next
}

func decodeBase64(token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("token vacío")
	}
	// Los links heredados llevan base64 estándar sin escapar: el '+' llega como espacio.
	token = strings.ReplaceAll(token, " ", "+")
	if strings.ContainsAny(token, "+/") {
		return base64.StdEncoding.DecodeString(token)
	}
	return base64.URLEncoding.DecodeString(token)
}

// unescapeLegacy deshace encodeURIComponent de los tokens antiguos ("%7B%22items...").
func unescapeLegacy(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("%7B")) && !bytes.HasPrefix(trimmed, []byte("%7b")) {
		return raw, nil
	}
	s, err := url.PathUnescape(string(trimmed))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// ── Lectura tolerante ────────────────────────────────────────────────────────

// Unmarshal puebla la factura campo a campo con valores por defecto para lo ausente.
// Los campos desconocidos se ignoran.
func Unmarshal(raw []byte) (*entity.Invoice, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: JSON mal formado", domain.ErrInvalidPayload)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: se esperaba un objeto", domain.ErrInvalidPayload)
	}

	inv := &entity.Invoice{
		InvoiceID:      root.Get("invoiceId").String(),
		Items:          []entity.LineItem{},
		CompanyInfo:    partyOf(root.Get("companyInfo")),
		RecipientInfo:  partyOf(root.Get("recipientInfo")),
		Currency:       entity.DefaultCurrency,
		WalletAddress:  root.Get("walletAddress").String(),
		SelectedTokens: entity.NormalizeSelection(stringsOf(root.Get("selectedTokens"))),
		SelectedChains: entity.NormalizeSelection(stringsOf(root.Get("selectedChains"))),
		IsPaid:         root.Get("isPaid").Bool(),
	}
	if inv.InvoiceID == "" {
		inv.InvoiceID = uuid.New().String()
	}
	if c, ok := entity.ParseCurrency(root.Get("currency").String()); ok {
		inv.Currency = c
	}

	items := root.Get("items")
	if items.IsArray() {
		items.ForEach(func(_, v gjson.Result) bool {
			if !v.IsObject() {
				return true
			}
			it := entity.LineItem{
				ID:          v.Get("id").String(),
				Description: v.Get("description").String(),
				Amount:      amountOf(v.Get("amount")),
			}
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			inv.Items = append(inv.Items, it)
			return true
		})
	}

	if inv.IsPaid {
		inv.TxHash = root.Get("txHash").String()
		if ts := root.Get("paidAt").String(); ts != "" {
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				t = t.UTC()
				inv.PaidAt = &t
			}
		}
	}
	return inv, nil
}

// partyOf acepta {"details": "..."} y, en payloads antiguos, el string directo.
func partyOf(v gjson.Result) entity.PartyInfo {
	if v.Type == gjson.String {
		return entity.PartyInfo{Details: v.String()}
	}
	return entity.PartyInfo{Details: v.Get("details").String()}
}

// amountOf conserva el string canónico tal cual; un número JSON se sanea a canónico.
func amountOf(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return entity.SanitizeAmount(v.Raw)
	default:
		return ""
	}
}

func stringsOf(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	v.ForEach(func(_, e gjson.Result) bool {
		if e.Type == gjson.String {
			out = append(out, e.Str)
		}
		return true
	})
	return out
}
