package billing_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

func TestPaymentLink_Build(t *testing.T) {
	b := billing.NewPaymentLinkBuilder("https://yodl.me/")
	inv := shareableInvoice()
	base := mustURL(t, "https://app.example/invoice?txHash=0x1")

	link, err := b.Build(inv, base)
	require.NoError(t, err)

	prefix := "https://yodl.me/" + testWallet + "?amount=120.5&currency=EUR&tokens=USDC,DAI&chains=base,arb1&buttonText=Return%20to%20Invoice&redirectUrl="
	require.True(t, strings.HasPrefix(link, prefix), link)

	redirect, err := url.QueryUnescape(strings.TrimPrefix(link, prefix))
	require.NoError(t, err)
	ru := mustURL(t, redirect)
	assert.Equal(t, "/invoice", ru.Path)
	assert.Empty(t, ru.Query().Get("txHash"))
	got, err := codec.Decode(ru.Query().Get("data"))
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceID, got.InvoiceID)
}

func TestPaymentLink_SinRestriccionesOmiteParametros(t *testing.T) {
	inv := shareableInvoice()
	inv.SelectedTokens = entity.AllSelection()
	inv.SelectedChains = entity.Selection{"all"}

	link, err := billing.NewPaymentLinkBuilder("https://yodl.me").Build(inv, mustURL(t, "https://app.example/"))
	require.NoError(t, err)
	assert.NotContains(t, link, "tokens=")
	assert.NotContains(t, link, "chains=")
}

func TestPaymentLink_Recibo(t *testing.T) {
	b := billing.NewPaymentLinkBuilder("https://yodl.me/pay")
	inv := shareableInvoice()
	assert.Nil(t, b.Receipt(inv), "sin pagar no hay recibo")

	require.True(t, inv.MarkPaid(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), ""))
	assert.Nil(t, b.Receipt(inv), "sin txHash no hay recibo")

	inv = shareableInvoice()
	require.True(t, inv.MarkPaid(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), "0xfeed"))
	r := b.Receipt(inv)
	require.NotNil(t, r)
	assert.Equal(t, "https://yodl.me/tx/0xfeed", r.URL)
	assert.Equal(t, "I just paid €120.50 via Slipstream.", r.ShareText)
	assert.Equal(t, "https://t.me/share/url?url=https%3A%2F%2Fyodl.me%2Ftx%2F0xfeed&text=I%20just%20paid%20%E2%82%AC120.50%20via%20Slipstream.", r.Telegram)
	assert.True(t, strings.HasPrefix(r.WhatsApp, "https://wa.me/?text=I%20just%20paid%20%E2%82%AC120.50%20via%20Slipstream.%20Here%27s%20the%20receipt%3A%0A"), r.WhatsApp)
}

func TestPaymentLink_NoPagable(t *testing.T) {
	inv := shareableInvoice()
	inv.WalletAddress = ""
	_, err := billing.NewPaymentLinkBuilder("https://yodl.me").Build(inv, mustURL(t, "https://app.example/"))
	assert.ErrorIs(t, err, domain.ErrNotPayable)
}

func TestPay_UsaWalletNoElEmisor(t *testing.T) {
	provider := &fakeProvider{result: &billing.PaymentResult{TxHash: "0xabc", ChainID: 8453}}
	uc := billing.NewPaymentUseCase(provider, zerolog.Nop())
	inv := shareableInvoice()
	inv.CompanyInfo.Details = "vitalik.eth"

	res, err := uc.Pay(context.Background(), inv, mustURL(t, "https://app.example/invoice"))
	require.NoError(t, err)
	assert.Equal(t, "0xabc", res.TxHash)

	assert.Equal(t, testWallet, provider.recipient)
	assert.True(t, decimal.RequireFromString("120.5").Equal(provider.req.Amount))
	assert.Equal(t, entity.CurrencyEUR, provider.req.Currency)
	assert.Equal(t, "Invoice "+inv.InvoiceID, provider.req.Memo)
	assert.Equal(t, []string{"USDC", "DAI"}, provider.req.Preferences.Tokens)
	assert.True(t, strings.HasPrefix(provider.req.RedirectURL, "https://app.example/invoice?data="))
	assert.False(t, inv.IsPaid, "pedir el pago no marca la factura")
}

func TestPay_ErroresDelProveedor(t *testing.T) {
	cases := []struct {
		cause error
		msg   string
	}{
		{domain.ErrPaymentCancelled, "Payment was cancelled by user"},
		{domain.ErrPaymentTimeout, "Payment request timed out after 5 minutes"},
		{fmt.Errorf("boom"), "Payment request failed"},
	}
	for _, tc := range cases {
		provider := &fakeProvider{err: tc.cause}
		inv := shareableInvoice()
		_, err := billing.NewPaymentUseCase(provider, zerolog.Nop()).Pay(context.Background(), inv, mustURL(t, "https://app.example/"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProviderError)
		assert.ErrorIs(t, err, tc.cause)
		assert.Equal(t, tc.msg, billing.ProviderMessage(err))
		assert.False(t, inv.IsPaid)
	}
}

func TestPay_Precondiciones(t *testing.T) {
	provider := &fakeProvider{}
	uc := billing.NewPaymentUseCase(provider, zerolog.Nop())
	base := mustURL(t, "https://app.example/")

	paid := shareableInvoice()
	paid.MarkPaid(time.Now(), "0x1")
	_, err := uc.Pay(context.Background(), paid, base)
	assert.ErrorIs(t, err, domain.ErrConflict)

	zero := shareableInvoice()
	zero.Items = []entity.LineItem{{ID: "x", Description: "gratis", Amount: "0"}}
	_, err = uc.Pay(context.Background(), zero, base)
	assert.ErrorIs(t, err, domain.ErrNotPayable)

	bad := shareableInvoice()
	bad.WalletAddress = "not a wallet"
	_, err = uc.Pay(context.Background(), bad, base)
	assert.ErrorIs(t, err, domain.ErrInvalidWallet)

	assert.Equal(t, 0, provider.calls)
}

func TestView(t *testing.T) {
	rec := reconcile.NewReconciler(reconcile.SystemClock{}, reconcile.NewOriginGuard("https://yodl.me"))
	uc := billing.NewViewUseCase(rec)

	token, err := codec.Encode(shareableInvoice())
	require.NoError(t, err)
	data := url.Values{"data": {token}}.Encode()

	res, err := uc.View("https://app.example/invoice?" + data + "&txHash=0xabc&chainId=1&amount=100")
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeApplied, res.Outcome)
	assert.True(t, res.ReadOnly)
	assert.True(t, res.Invoice.IsPaid)
	assert.Equal(t, "0xabc", res.Invoice.TxHash)
	assert.NotEmpty(t, res.ReplaceURL)
	assert.NotContains(t, res.ReplaceURL, "txHash")

	res, err = uc.View("https://app.example/invoice?" + data)
	require.NoError(t, err)
	assert.Equal(t, reconcile.OutcomeNoSignal, res.Outcome)
	assert.False(t, res.Invoice.IsPaid)
	assert.Empty(t, res.ReplaceURL)

	res, err = uc.View("https://app.example/invoice?data=%25%25&txHash=0xabc&chainId=1&amount=1")
	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.False(t, res.Invoice.IsPaid)

	res, err = uc.View("https://app.example/")
	require.NoError(t, err)
	assert.False(t, res.ReadOnly)

	_, err = uc.View("::")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
