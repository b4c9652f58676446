package http_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	apphttp "github.com/jhoicas/slipstream/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/slipstream/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testOrigin   = "https://yodl.me"
	testAudience = "slipstream.yodl.eth"
	testWallet   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testBaseURL  = "https://slipstream.test/invoice"
)

type fakeProvider struct {
	mu     sync.Mutex
	calls  int
	result *billing.PaymentResult
	err    error
}

func (f *fakeProvider) RequestPayment(context.Context, string, billing.PaymentRequest) (*billing.PaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.result, f.err
}

func (f *fakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePrefs struct{}

func (fakePrefs) Preferences(_ context.Context, address string) (*billing.Preferences, error) {
	return &billing.Preferences{Address: address, Tokens: []string{"USDC"}, Chains: []string{"All"}}, nil
}

type testEnv struct {
	app      *fiber.App
	provider *fakeProvider
	key      *ecdsa.PrivateKey
	sessions *reconcile.Registry
}

type envSettings struct {
	timings  reconcile.Timings
	registry []reconcile.RegistryOption
	mutate   []func(*apphttp.RouterDeps)
}

type envOption func(*envSettings)

func withDeps(fn func(*apphttp.RouterDeps)) envOption {
	return func(s *envSettings) { s.mutate = append(s.mutate, fn) }
}

func withTimings(tm reconcile.Timings) envOption {
	return func(s *envSettings) { s.timings = tm }
}

func withRegistry(opts ...reconcile.RegistryOption) envOption {
	return func(s *envSettings) { s.registry = append(s.registry, opts...) }
}

// newTestEnv arma la API completa con proveedor falso y timers cortos.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	settings := envSettings{timings: reconcile.Timings{OverlayClose: 20 * time.Millisecond, Reload: 40 * time.Millisecond}}
	for _, opt := range opts {
		opt(&settings)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	verifier, err := pkgjwt.NewVerifier(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), testAudience)
	require.NoError(t, err)

	base, err := url.Parse(testBaseURL)
	require.NoError(t, err)

	provider := &fakeProvider{result: &billing.PaymentResult{TxHash: "0xabc", ChainID: 8453}}
	log := zerolog.Nop()
	rec := reconcile.NewReconciler(reconcile.SystemClock{}, reconcile.NewOriginGuard(testOrigin), reconcile.WithLogger(log))
	registry := reconcile.NewRegistry(rec, reconcile.SystemClock{}, settings.timings, log, settings.registry...)
	t.Cleanup(registry.CloseAll)

	pdfUC, err := billing.NewPDFUseCase(fakePDF{}, fakeQR{}, testBaseURL)
	require.NoError(t, err)

	deps := apphttp.RouterDeps{
		Editor:        billing.NewEditorUseCase(),
		View:          billing.NewViewUseCase(rec),
		Link:          billing.NewPaymentLinkBuilder("https://yodl.me/pay"),
		Payment:       billing.NewPaymentUseCase(provider, log),
		PDF:           pdfUC,
		Identity:      billing.NewIdentityUseCase(verifier, fakePrefs{}),
		Sessions:      registry,
		TrustedOrigin: testOrigin,
		BaseURL:       base,
		Log:           log,
	}
	for _, fn := range settings.mutate {
		fn(&deps)
	}

	app := fiber.New()
	apphttp.Router(app, deps)
	return &testEnv{app: app, provider: provider, key: key, sessions: registry}
}

type fakePDF struct{}

func (fakePDF) GenerateInvoicePDF(context.Context, *entity.Invoice, string) ([]byte, error) {
	return []byte("%PDF-1.4"), nil
}

type fakeQR struct{}

func (fakeQR) PNG(string, int) ([]byte, error) { return []byte{0x89, 'P', 'N', 'G'}, nil }

// token firma un token del proveedor para la audiencia de la app.
func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	return e.tokenFor(t, testWallet)
}

// tokenFor igual que token pero con otro subject.
func (e *testEnv) tokenFor(t *testing.T, subject string) string {
	t.Helper()
	claims := pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Audience:  gojwt.ClaimStrings{testAudience},
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		ENS:    "alice.eth",
		Tokens: []string{"USDC"},
	}
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodES256, claims).SignedString(e.key)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func payableInvoice() *entity.Invoice {
	return &entity.Invoice{
		InvoiceID:      "11111111-2222-3333-4444-555555555555",
		Items:          []entity.LineItem{{ID: "a", Description: "Consulting", Amount: "100"}},
		CompanyInfo:    entity.PartyInfo{Details: "Acme"},
		RecipientInfo:  entity.PartyInfo{Details: "Globex"},
		Currency:       entity.CurrencyUSD,
		WalletAddress:  testWallet,
		SelectedTokens: entity.AllSelection(),
		SelectedChains: entity.AllSelection(),
	}
}

// shareURL link de la vista con la factura codificada.
func shareURL(t *testing.T, inv *entity.Invoice) string {
	t.Helper()
	token, err := codec.Encode(inv)
	require.NoError(t, err)
	return fmt.Sprintf("%s?%s=%s", testBaseURL, codec.ParamData, url.QueryEscape(token))
}
