// Package pdf genera la versión imprimible de una factura Slipstream.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: INVOICE + id corto   │  Estado (UNPAID / PAID)      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FROM: emisor                 │  TO: destinatario            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Descripción | Monto                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAL + moneda, tokens y cadenas aceptados                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR del link compartido + wallet / tx de pago        │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 24, Green: 24, Blue: 27}
	colorGray    = &props.Color{Red: 113, Green: 113, Blue: 122}
	colorPaid    = &props.Color{Red: 22, Green: 163, Blue: 74}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateInvoicePDF genera el PDF y devuelve sus bytes. shareURL va como QR en el pie.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	ctx context.Context,
	invoice *entity.Invoice,
	shareURL string,
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice "+shortID(invoice.InvoiceID), true).
		WithAuthor(firstLine(invoice.CompanyInfo.Details), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableItemRows(invoice)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(invoice))
	m.AddRows(acceptedRow(invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(invoice, shareURL)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(invoice *entity.Invoice) core.Row {
	status, statusColor := "UNPAID", colorGray
	if invoice.IsPaid {
		status, statusColor = "PAID", colorPaid
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("INVOICE", props.Text{
				Style: fontstyle.Bold, Size: 16, Color: colorPrimary, Top: 1,
			}),
			text.New("#"+shortID(invoice.InvoiceID), props.Text{
				Size: 8, Top: 10, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right,
				Color: statusColor, Top: 2,
			}),
		),
	)
}

// partiesRow: emisor (izq) y destinatario (der); texto libre multilínea.
func partiesRow(invoice *entity.Invoice) core.Row {
	height := 10 + 4*float64(max(lineCount(invoice.CompanyInfo.Details), lineCount(invoice.RecipientInfo.Details)))
	party := func(label, details string) core.Col {
		return col.New(6).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorGray, Top: 1,
			}),
			text.New(nonEmpty(details, "-"), props.Text{Size: 9, Top: 6}),
		)
	}
	return row.New(height).Add(
		party("FROM", invoice.CompanyInfo.Details),
		party("TO", invoice.RecipientInfo.Details),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Description", 8, align.Left),
		h("Amount", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableItemRows: una fila por línea; las líneas sin monto salen como 0.00.
func tableItemRows(invoice *entity.Invoice) []core.Row {
	result := make([]core.Row, 0, len(invoice.Items))
	for i, it := range invoice.Items {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", i+1),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(8).Add(text.New(
				nonEmpty(it.Description, "-"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(3).Add(text.New(
				money(invoice.Currency, it.Value()),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

func totalRow(invoice *entity.Invoice) core.Row {
	return row.New(10).Add(
		col.New(6),
		col.New(3).Add(text.New("TOTAL:", props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(money(invoice.Currency, invoice.GrandTotal()), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 2,
		})),
	)
}

func acceptedRow(invoice *entity.Invoice) core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New("Accepted tokens: "+selectionText(invoice.SelectedTokens), props.Text{
			Size: 7.5, Color: colorGray, Top: 1,
		}),
		text.New("Accepted chains: "+selectionText(invoice.SelectedChains), props.Text{
			Size: 7.5, Color: colorGray, Top: 5,
		}),
	))
}

// footerRows: QR del link compartido; wallet de cobro o datos del pago.
func footerRows(invoice *entity.Invoice, shareURL string) []core.Row {
	var info []core.Component
	if invoice.IsPaid {
		info = append(info,
			text.New("Paid on "+invoice.FormattedPaidAt(), props.Text{
				Style: fontstyle.Bold, Size: 10, Color: colorPaid, Top: 4, Left: 3,
			}),
			text.New("Transaction: "+invoice.TxHash, props.Text{
				Size: 7, Color: colorGray, Top: 12, Left: 3,
			}),
		)
	} else {
		info = append(info,
			text.New("Pay to: "+nonEmpty(invoice.WalletAddress, "-"), props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 4, Left: 3,
			}),
			text.New("Scan the QR code to open and pay this invoice online.", props.Text{
				Size: 8, Color: colorGray, Top: 12, Left: 3,
			}),
		)
	}

	if shareURL == "" {
		return []core.Row{row.New(20).Add(col.New(12).Add(info...))}
	}
	return []core.Row{
		row.New(45).Add(
			col.New(4).Add(code.NewQr(shareURL, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(info...),
		),
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// money usa el código ISO: helvetica no tiene glifos para todos los símbolos (฿).
func money(c entity.Currency, v decimal.Decimal) string {
	return string(c) + " " + v.StringFixed(2)
}

func selectionText(s entity.Selection) string {
	if s.IsAll() {
		return "All"
	}
	return strings.Join(s.Concrete(), ", ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func lineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
