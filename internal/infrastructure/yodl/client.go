package yodl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/infrastructure/cache"
)

// Verificar en tiempo de compilación que Client implementa los puertos.
var (
	_ billing.PaymentProvider   = (*Client)(nil)
	_ billing.PreferencesSource = (*Client)(nil)
)

const (
	DefaultAPIURL         = "https://yodl.me/api"
	DefaultPaymentTimeout = 5 * time.Minute
	healthTimeout         = 3 * time.Second
	preferencesKeyPrefix  = "prefs:"
)

// Observer recibe cada llamada al proveedor (métricas).
type Observer interface {
	ProviderRequest(operation, result string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ProviderRequest(string, string, time.Duration) {}

// Config parámetros del cliente.
type Config struct {
	APIURL         string
	PaymentTimeout time.Duration
	PreferencesTTL time.Duration
}

// Client adaptador HTTP del proveedor de pagos Yodl. Se construye explícitamente en main
// y se inyecta en los casos de uso.
type Client struct {
	apiURL         string
	paymentTimeout time.Duration
	prefsTTL       time.Duration
	httpClient     *http.Client
	prefsCache     cache.Cache[billing.Preferences]
	observer       Observer
	log            zerolog.Logger
}

// Option configura el Client.
type Option func(*Client)

// WithHTTPClient reemplaza el cliente HTTP (tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithPreferencesCache cachea las preferencias (memoria o Redis).
func WithPreferencesCache(pc cache.Cache[billing.Preferences]) Option {
	return func(c *Client) {
		if pc != nil {
			c.prefsCache = pc
		}
	}
}

// WithObserver registra duración y resultado de cada llamada.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger usa log como logger del componente.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log.With().Str("component", "yodl").Logger() }
}

// NewClient construye el adaptador. APIURL vacío usa DefaultAPIURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	api := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if api == "" {
		api = DefaultAPIURL
	}
	u, err := url.Parse(api)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("yodl: api url inválida %q", cfg.APIURL)
	}
	timeout := cfg.PaymentTimeout
	if timeout <= 0 {
		timeout = DefaultPaymentTimeout
	}
	c := &Client{
		apiURL:         api,
		paymentTimeout: timeout,
		prefsTTL:       cfg.PreferencesTTL,
		// Sin Timeout global: cada operación impone el suyo por contexto.
		httpClient: &http.Client{},
		prefsCache: cache.NoopCache[billing.Preferences]{},
		observer:   nopObserver{},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ── Estructuras internas del protocolo ───────────────────────────────────────

type paymentRequest struct {
	Recipient   string   `json:"recipient"`
	Amount      string   `json:"amount"`
	Currency    string   `json:"currency"`
	Memo        string   `json:"memo"`
	Tokens      []string `json:"tokens"`
	Chains      []string `json:"chains"`
	RedirectURL string   `json:"redirectUrl,omitempty"`
}

type paymentResponse struct {
	TxHash  string `json:"txHash"`
	ChainID int    `json:"chainId"`
}

type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type preferencesResponse struct {
	Tokens []string `json:"tokens"`
	Chains []string `json:"chains"`
}

// ── Implementación de los puertos ────────────────────────────────────────────

// RequestPayment pide el pago y espera la confirmación del usuario hasta PaymentTimeout.
// Cancelación del usuario y expiración se devuelven como domain.ErrPaymentCancelled y
// domain.ErrPaymentTimeout.
func (c *Client) RequestPayment(ctx context.Context, recipient string, req billing.PaymentRequest) (res *billing.PaymentResult, err error) {
	start := time.Now()
	defer func() { c.observer.ProviderRequest("payment", resultLabel(err), time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, c.paymentTimeout)
	defer cancel()

	payload := paymentRequest{
		Recipient:   recipient,
		Amount:      req.Amount.String(),
		Currency:    string(req.Currency),
		Memo:        req.Memo,
		Tokens:      orAll(req.Preferences.Tokens),
		Chains:      orAll(req.Preferences.Chains),
		RedirectURL: req.RedirectURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("yodl: serializar request: %w", err)
	}

	raw, status, err := c.do(ctx, http.MethodPost, c.apiURL+"/v1/payments", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return nil, paymentError(status, raw)
	}

	var out paymentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("yodl: deserializar respuesta: %w", err)
	}
	if strings.TrimSpace(out.TxHash) == "" {
		return nil, errors.New("yodl: respuesta sin txHash")
	}
	c.log.Debug().Str("memo", req.Memo).Str("tx_hash", out.TxHash).Msg("pago confirmado por el proveedor")
	return &billing.PaymentResult{TxHash: out.TxHash, ChainID: out.ChainID}, nil
}

// Preferences preferencias publicadas para address. Sin preferencias (404) devuelve {"all"}.
func (c *Client) Preferences(ctx context.Context, address string) (p *billing.Preferences, err error) {
	key := preferencesKeyPrefix + strings.ToLower(address)
	if cached, ok, cerr := c.prefsCache.Get(ctx, key); cerr == nil && ok {
		return &cached, nil
	} else if cerr != nil {
		c.log.Warn().Err(cerr).Msg("caché de preferencias no disponible")
	}

	start := time.Now()
	defer func() { c.observer.ProviderRequest("preferences", resultLabel(err), time.Since(start)) }()

	raw, status, err := c.do(ctx, http.MethodGet, c.apiURL+"/preferences/"+url.PathEscape(address), nil)
	if err != nil {
		return nil, err
	}
	out := billing.Preferences{Address: address}
	switch status {
	case http.StatusOK:
		var pr preferencesResponse
		if err := json.Unmarshal(raw, &pr); err != nil {
			return nil, fmt.Errorf("yodl: deserializar preferencias: %w", err)
		}
		out.Tokens, out.Chains = orAll(pr.Tokens), orAll(pr.Chains)
	case http.StatusNotFound:
		out.Tokens, out.Chains = orAll(nil), orAll(nil)
	default:
		return nil, fmt.Errorf("yodl: preferencias HTTP %d: %s", status, truncate(raw))
	}

	if err := c.prefsCache.Set(ctx, key, out, c.prefsTTL); err != nil {
		c.log.Warn().Err(err).Msg("no se pudo cachear preferencias")
	}
	return &out, nil
}

// Health comprueba que el proveedor responde (timeout 3 s).
func (c *Client) Health(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.observer.ProviderRequest("health", resultLabel(err), time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	_, status, err := c.do(ctx, http.MethodGet, c.apiURL+"/health", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("yodl: health HTTP %d", status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("yodl: crear HTTP request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("yodl: %w", domain.ErrPaymentTimeout)
		}
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("yodl: cancelado: %w", ctx.Err())
		}
		return nil, 0, fmt.Errorf("yodl: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, 0, fmt.Errorf("yodl: leer respuesta: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func paymentError(status int, raw []byte) error {
	var er errorResponse
	if json.Unmarshal(raw, &er) == nil && er.Error != nil {
		switch strings.ToLower(er.Error.Code) {
		case "cancelled", "canceled", "user_rejected":
			return fmt.Errorf("yodl: %w", domain.ErrPaymentCancelled)
		case "timeout":
			return fmt.Errorf("yodl: %w", domain.ErrPaymentTimeout)
		}
		return fmt.Errorf("yodl: error (%s): %s", er.Error.Code, er.Error.Message)
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("yodl: %w", domain.ErrPaymentTimeout)
	}
	return fmt.Errorf("yodl: HTTP %d: %s", status, truncate(raw))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrPaymentCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrPaymentTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func orAll(v []string) []string {
	if len(v) == 0 {
		return []string{"all"}
	}
	return v
}

func truncate(raw []byte) string {
	if len(raw) > 256 {
		return string(raw[:256]) + "…"
	}
	return string(raw)
}
