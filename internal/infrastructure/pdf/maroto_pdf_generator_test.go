package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/infrastructure/pdf"
)

func invoice() *entity.Invoice {
	inv := entity.NewInvoice()
	inv.CompanyInfo.Details = "Acme Corp\nCalle 1"
	inv.RecipientInfo.Details = "Initech"
	inv.Currency = entity.CurrencyEUR
	inv.Items[0].Description = "Diseño"
	inv.Items[0].Amount = "100.50"
	inv.WalletAddress = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	return inv
}

func TestGenerateInvoicePDF_Pendiente(t *testing.T) {
	doc, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), invoice(), "https://app.example/invoice?data=abc")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
}

func TestGenerateInvoicePDF_PagadaSinQR(t *testing.T) {
	inv := invoice()
	inv.MarkPaid(time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC), "0xabc")
	doc, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(context.Background(), inv, "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
}

func TestGenerateInvoicePDF_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pdf.NewMarotoPDFGenerator().GenerateInvoicePDF(ctx, invoice(), "")
	assert.ErrorIs(t, err, context.Canceled)
}
