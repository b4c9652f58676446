package billing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/pkg/wallet"
)

// ReturnButtonText texto del botón de regreso en la página del proveedor.
const ReturnButtonText = "Return to Invoice"

// PaymentLinkBuilder arma el link de pago del proveedor:
// <payURL>/<wallet>?amount=&currency=[&tokens=][&chains=]&buttonText=&redirectUrl=
type PaymentLinkBuilder struct {
	payURL string
}

// NewPaymentLinkBuilder payURL base del proveedor, ej. https://yodl.me.
func NewPaymentLinkBuilder(payURL string) *PaymentLinkBuilder {
	return &PaymentLinkBuilder{payURL: strings.TrimRight(payURL, "/")}
}

// Build devuelve el link para inv. returnBase es la URL de la factura; el proveedor
// redirige a returnBase?data=<token> agregando txHash, chainId y amount.
func (b *PaymentLinkBuilder) Build(inv *entity.Invoice, returnBase *url.URL) (string, error) {
	if inv == nil || returnBase == nil {
		return "", domain.ErrInvalidInput
	}
	if inv.IsPaid {
		return "", fmt.Errorf("%w: la factura ya está pagada", domain.ErrConflict)
	}
	if !inv.IsPayable() {
		return "", domain.ErrNotPayable
	}
	if err := wallet.Validate(inv.WalletAddress); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidWallet, err)
	}
	redirect, err := RedirectURL(inv, returnBase)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.payURL)
	sb.WriteString("/")
	sb.WriteString(url.PathEscape(strings.TrimSpace(inv.WalletAddress)))
	sb.WriteString("?amount=")
	sb.WriteString(inv.GrandTotal().String())
	sb.WriteString("&currency=")
	sb.WriteString(string(inv.Currency))
	if !inv.SelectedTokens.IsAll() {
		sb.WriteString("&tokens=")
		sb.WriteString(strings.Join(escapeAll(inv.SelectedTokens.Concrete()), ","))
	}
	if prefixes := chainPrefixes(inv.SelectedChains); len(prefixes) > 0 {
		sb.WriteString("&chains=")
		sb.WriteString(strings.Join(prefixes, ","))
	}
	sb.WriteString("&buttonText=")
	sb.WriteString(url.PathEscape(ReturnButtonText))
	sb.WriteString("&redirectUrl=")
	sb.WriteString(url.QueryEscape(redirect))
	return sb.String(), nil
}

// RedirectURL origin+path?data=<token> de la factura.
func RedirectURL(inv *entity.Invoice, base *url.URL) (string, error) {
	token, err := codec.Encode(inv)
	if err != nil {
		return "", err
	}
	return codec.ShareURL(base, token).String(), nil
}

func chainPrefixes(s entity.Selection) []string {
	if s.IsAll() {
		return nil
	}
	var out []string
	for _, c := range s.Concrete() {
		if p := entity.ChainPrefix(c); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func escapeAll(v []string) []string {
	out := make([]string, len(v))
	for i, s := range v {
		out[i] = url.QueryEscape(s)
	}
	return out
}
