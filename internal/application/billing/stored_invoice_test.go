package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

func TestStoredInvoice_Ciclo(t *testing.T) {
	ctx := context.Background()
	uc := billing.NewStoredInvoiceUseCase(newMemRepo(), &seqIDs{})

	created, err := uc.Create(ctx, shareableInvoice(), "0xOwner")
	require.NoError(t, err)
	assert.Equal(t, "id1", created.ShortID)

	got, err := uc.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Invoice.CompanyInfo.Details)

	edited := shareableInvoice()
	edited.InvoiceID = "otro-id"
	edited.RecipientInfo.Details = "Initech"
	edited.IsPaid = true
	edited.TxHash = "0xforjado"
	updated, err := uc.Update(ctx, "id1", "0xowner", edited)
	require.NoError(t, err)
	assert.Equal(t, created.Invoice.InvoiceID, updated.Invoice.InvoiceID, "el invoiceId es estable")
	assert.False(t, updated.Invoice.IsPaid, "el pago no se acepta por update")
	assert.Empty(t, updated.Invoice.TxHash)

	rec, applied, err := uc.MarkPaid(ctx, "id1", "0xabc")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, rec.Invoice.IsPaid)
	assert.Equal(t, "Initech", rec.Invoice.RecipientInfo.Details)

	rec, applied, err = uc.MarkPaid(ctx, "id1", "0xdef")
	require.NoError(t, err)
	assert.False(t, applied, "segunda marca es no-op")
	assert.Equal(t, "0xabc", rec.Invoice.TxHash)

	_, err = uc.Update(ctx, "id1", "0xOwner", shareableInvoice())
	assert.ErrorIs(t, err, domain.ErrReadOnly)
}

func TestStoredInvoice_SoloElDuenoEdita(t *testing.T) {
	ctx := context.Background()
	uc := billing.NewStoredInvoiceUseCase(newMemRepo(), &seqIDs{})

	_, err := uc.Create(ctx, shareableInvoice(), "0xOwner")
	require.NoError(t, err)
	_, err = uc.Create(ctx, shareableInvoice(), "")
	require.NoError(t, err)

	ajena := shareableInvoice()
	ajena.WalletAddress = "0x1111111111111111111111111111111111111111"
	_, err = uc.Update(ctx, "id1", "0x1111111111111111111111111111111111111111", ajena)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Update(ctx, "id1", "", ajena)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Update(ctx, "id2", "0xOwner", ajena)
	assert.ErrorIs(t, err, domain.ErrForbidden, "sin dueño no se edita")

	got, err := uc.Get(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, shareableInvoice().WalletAddress, got.Invoice.WalletAddress)
}

func TestStoredInvoice_NoExiste(t *testing.T) {
	ctx := context.Background()
	uc := billing.NewStoredInvoiceUseCase(newMemRepo(), &seqIDs{})

	_, err := uc.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = uc.MarkPaid(ctx, "nope", "0x1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Get(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Create(ctx, nil, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPDF_YQR(t *testing.T) {
	gen, qr := &fakePDF{}, &fakeQR{}
	uc, err := billing.NewPDFUseCase(gen, qr, "https://app.example/invoice")
	require.NoError(t, err)

	token, _, err := billing.NewEditorUseCase().Share(shareableInvoice(), mustURL(t, "https://app.example/invoice"))
	require.NoError(t, err)

	pdf, name, err := uc.DownloadInvoicePDF(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(pdf))
	assert.Equal(t, "invoice_11111111.pdf", name)
	assert.Equal(t, "Acme", gen.inv.CompanyInfo.Details)
	assert.Contains(t, gen.shareURL, "https://app.example/invoice?data=")

	_, err = uc.QRCode(token, 0)
	require.NoError(t, err)
	assert.Equal(t, billing.DefaultQRSize, qr.size)
	assert.Equal(t, gen.shareURL, qr.content)

	_, _, err = uc.DownloadInvoicePDF(context.Background(), "@@")
	assert.ErrorIs(t, err, domain.ErrMalformedToken)
	_, err = uc.QRCode("", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = billing.NewPDFUseCase(gen, qr, "no-absoluta")
	assert.Error(t, err)
}

func TestIdentity_Preferences(t *testing.T) {
	uc := billing.NewIdentityUseCase(nil, fakePrefs{prefs: &billing.Preferences{Tokens: []string{"USDC"}, Chains: []string{"all"}}})

	p, err := uc.Preferences(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, []string{"USDC"}, p.Tokens)

	_, err = uc.Preferences(context.Background(), "???")
	assert.ErrorIs(t, err, domain.ErrInvalidWallet)

	_, err = uc.Resolve("")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Resolve("garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestFilename_SoloCaracteresSeguros(t *testing.T) {
	cases := map[string]string{
		"11111111-2222":  "invoice_11111111.pdf",
		`a";x="y`:        "invoice_axy.pdf",
		"ñññ-ab\r\nc": "invoice_-abc.pdf",
		"日本語":            "invoice.pdf",
		"":               "invoice.pdf",
	}
	for id, want := range cases {
		assert.Equal(t, want, billing.Filename(&entity.Invoice{InvoiceID: id}), id)
	}
}
