package main

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

func (c *cli) encodeCmd() *cobra.Command {
	var tokenOnly bool
	cmd := &cobra.Command{
		Use:   "encode [archivo.json|-]",
		Short: "Valida una factura JSON e imprime su link compartible",
		Example: `  slipstream encode invoice.json
  cat invoice.json | slipstream encode --token-only`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.readInvoice(args)
			if err != nil {
				return err
			}
			base, err := c.base()
			if err != nil {
				return err
			}
			token, u, err := billing.NewEditorUseCase().Share(inv, base)
			if err != nil {
				if fields, ok := billing.FieldErrors(err); ok {
					return fmt.Errorf("%w: %s", err, formatFields(fields))
				}
				return err
			}
			if tokenOnly {
				_, err = fmt.Fprintln(c.out, token)
				return err
			}
			_, err = fmt.Fprintln(c.out, u.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&tokenOnly, "token-only", false, "imprime solo el token")
	return cmd
}

func (c *cli) decodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|url>",
		Short: "Decodifica un token o link e imprime la factura",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(args[0])
			if u, err := url.Parse(token); err == nil && u.IsAbs() {
				token = u.Query().Get(codec.ParamData)
			}
			inv, err := codec.Decode(token)
			if err != nil {
				return err
			}
			return c.printJSON(struct {
				Invoice dto.InvoiceDTO `json:"invoice"`
				Totals  dto.TotalsDTO  `json:"totals"`
			}{dto.FromInvoice(inv), dto.Totals(inv)})
		},
	}
}

func (c *cli) reconcileCmd() *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "reconcile <url>",
		Short: "Aplica la señal de redirección (txHash, chainId, amount) de una URL",
		Long: `Aplica la señal que deja el proveedor al redirigir tras el pago. Si la factura
no estaba pagada imprime la URL sin los parámetros de la señal y con el token ya pagado.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec := reconcile.NewReconciler(reconcile.SystemClock{}, reconcile.NewOriginGuard(origin),
				reconcile.WithLogger(c.log.Component("reconcile")))
			res, err := billing.NewViewUseCase(rec).View(args[0])
			if err != nil {
				return err
			}
			return c.printJSON(dto.ViewResponse{
				Invoice:    dto.FromInvoice(res.Invoice),
				Totals:     dto.Totals(res.Invoice),
				ReadOnly:   res.ReadOnly,
				Fallback:   res.Fallback,
				Outcome:    string(res.Outcome),
				ReplaceURL: res.ReplaceURL,
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", envOr("YODL_ORIGIN", "https://yodl.me"), "origen confiable del proveedor")
	return cmd
}

func (c *cli) linkCmd() *cobra.Command {
	var payURL string
	cmd := &cobra.Command{
		Use:   "link [archivo.json|-]",
		Short: "Imprime el link al checkout del proveedor para una factura",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := c.readInvoice(args)
			if err != nil {
				return err
			}
			base, err := c.base()
			if err != nil {
				return err
			}
			link, err := billing.NewPaymentLinkBuilder(payURL).Build(inv, base)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, link)
			return err
		},
	}
	cmd.Flags().StringVar(&payURL, "pay-url", envOr("YODL_PAY_URL", "https://yodl.me"), "base de los links de pago")
	return cmd
}

// formatFields lista los campos vacíos en orden estable.
func formatFields(fe entity.FormErrors) string {
	var parts []string
	if fe.CompanyDetails {
		parts = append(parts, "companyInfo")
	}
	if fe.RecipientDetails {
		parts = append(parts, "recipientInfo")
	}
	ids := make([]string, 0, len(fe.Items))
	for id := range fe.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if e := fe.Items[id]; e.Description || e.Amount {
			parts = append(parts, "items["+id+"]")
		}
	}
	if len(parts) == 0 {
		return "se necesita al menos una línea completa"
	}
	return "campos vacíos: " + strings.Join(parts, ", ")
}
