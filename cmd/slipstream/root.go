package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/slipstream/internal/application/dto"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/pkg/logger"
)

var version = "0.1.0"

const defaultBaseURL = "http://localhost:8080/invoice"

// cli estado compartido por los subcomandos.
type cli struct {
	in       io.Reader
	out      io.Writer
	log      *logger.Logger
	baseURL  string
	logLevel string
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	c := &cli{in: in, out: out}
	root := &cobra.Command{
		Use:   "slipstream",
		Short: "Links de factura con estado en la URL",
		Long: `slipstream codifica facturas en links compartibles (?data=<token>),
los decodifica y aplica la señal de pago que deja el proveedor al redirigir.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.log = logger.New(logger.Config{Env: "development", Level: c.logLevel, Service: "slipstream-cli", Out: errOut})
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&c.baseURL, "base-url", envOr("APP_BASE_URL", defaultBaseURL), "URL pública de la vista de factura")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "nivel de log (trace, debug, info, warn, error)")

	root.AddCommand(
		c.encodeCmd(),
		c.decodeCmd(),
		c.reconcileCmd(),
		c.linkCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *cli) base() (*url.URL, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("--base-url debe ser una URL absoluta: %q", c.baseURL)
	}
	return u, nil
}

// readInvoice lee una factura JSON desde el archivo indicado o, con "-" o sin argumento, desde stdin.
func (c *cli) readInvoice(args []string) (*entity.Invoice, error) {
	r := c.in
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var in dto.InvoiceDTO
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("factura JSON inválida: %w", err)
	}
	return in.ToEntity(), nil
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
