package billing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/pkg/wallet"
)

// PaymentUseCase pide el pago al proveedor. Nunca modifica la factura: el paso a pagada
// llega después por redirección o mensaje.
type PaymentUseCase struct {
	provider PaymentProvider
	log      zerolog.Logger
}

// NewPaymentUseCase recibe el cliente del proveedor ya construido.
func NewPaymentUseCase(provider PaymentProvider, log zerolog.Logger) *PaymentUseCase {
	return &PaymentUseCase{provider: provider, log: log.With().Str("component", "payment").Logger()}
}

// Memo referencia enviada al proveedor.
func Memo(inv *entity.Invoice) string {
	return "Invoice " + inv.InvoiceID
}

// Pay solicita el pago del total a la wallet de la factura (nunca al texto del emisor).
//
// Retorna:
//   - domain.ErrConflict       si ya está pagada.
//   - domain.ErrNotPayable     sin wallet o total no positivo.
//   - domain.ErrInvalidWallet  si la wallet no es válida.
//   - domain.ErrProviderError  (envolviendo ErrPaymentCancelled / ErrPaymentTimeout) si el proveedor falla.
func (uc *PaymentUseCase) Pay(ctx context.Context, inv *entity.Invoice, returnBase *url.URL) (*PaymentResult, error) {
	if inv == nil || returnBase == nil {
		return nil, domain.ErrInvalidInput
	}
	if inv.IsPaid {
		return nil, fmt.Errorf("%w: la factura ya está pagada", domain.ErrConflict)
	}
	if !inv.IsPayable() {
		return nil, domain.ErrNotPayable
	}
	recipient := strings.TrimSpace(inv.WalletAddress)
	if err := wallet.Validate(recipient); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWallet, err)
	}
	redirect, err := RedirectURL(inv, returnBase)
	if err != nil {
		return nil, err
	}

	req := PaymentRequest{
		Amount:   inv.GrandTotal(),
		Currency: inv.Currency,
		Memo:     Memo(inv),
		Preferences: Preferences{
			Address: recipient,
			Tokens:  selectionValues(inv.SelectedTokens),
			Chains:  selectionValues(inv.SelectedChains),
		},
		RedirectURL: redirect,
	}
	res, err := uc.provider.RequestPayment(ctx, recipient, req)
	if err != nil {
		uc.log.Warn().Err(err).Str("invoice_id", inv.InvoiceID).Msg("pago no completado")
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderError, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: respuesta vacía", domain.ErrProviderError)
	}
	uc.log.Info().Str("invoice_id", inv.InvoiceID).Str("tx_hash", res.TxHash).Int("chain_id", res.ChainID).Msg("pago enviado")
	return res, nil
}

// ProviderMessage mensaje para el usuario según la causa del error del proveedor.
func ProviderMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrPaymentCancelled):
		return "Payment was cancelled by user"
	case errors.Is(err, domain.ErrPaymentTimeout):
		return "Payment request timed out after 5 minutes"
	default:
		return "Payment request failed"
	}
}

func selectionValues(s entity.Selection) []string {
	if s.IsAll() {
		return []string{"all"}
	}
	return s.Concrete()
}
