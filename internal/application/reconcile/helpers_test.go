package reconcile_test

import (
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

const (
	providerOrigin = "https://yodl.me"
	baseURL        = "https://app.example/invoice"
)

var paidAt = time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// ── Planificador manual ──────────────────────────────────────────────────────

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeHandle struct {
	s *fakeScheduler
	t *fakeTimer
}

func (h fakeHandle) Stop() bool {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	active := !h.t.stopped && !h.t.fired
	h.t.stopped = true
	return active
}

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) reconcile.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	f.timers = append(f.timers, t)
	return fakeHandle{s: f, t: t}
}

// active temporizadores programados que no se detuvieron ni dispararon.
func (f *fakeScheduler) active() []*fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].d < out[j].d })
	return out
}

// fireUntil dispara en orden los temporizadores activos con retardo <= d.
func (f *fakeScheduler) fireUntil(d time.Duration) {
	for _, t := range f.active() {
		if t.d > d {
			continue
		}
		f.mu.Lock()
		if t.stopped || t.fired {
			f.mu.Unlock()
			continue
		}
		t.fired = true
		f.mu.Unlock()
		t.fn()
	}
}

func (f *fakeScheduler) all() []*fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeTimer(nil), f.timers...)
}

// ── Métricas en memoria ──────────────────────────────────────────────────────

type recorded struct {
	source  reconcile.Source
	outcome reconcile.Outcome
}

type memRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (m *memRecorder) Reconciliation(source reconcile.Source, outcome reconcile.Outcome) {
	m.mu.Lock()
	m.seen = append(m.seen, recorded{source, outcome})
	m.mu.Unlock()
}

// ── Fixtures ─────────────────────────────────────────────────────────────────

func payableInvoice() *entity.Invoice {
	return &entity.Invoice{
		InvoiceID:      "inv-42",
		Items:          []entity.LineItem{{ID: "1", Description: "Consulting", Amount: "100"}},
		CompanyInfo:    entity.PartyInfo{Details: "Acme"},
		RecipientInfo:  entity.PartyInfo{Details: "Globex"},
		Currency:       entity.CurrencyUSD,
		WalletAddress:  "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		SelectedTokens: entity.AllSelection(),
		SelectedChains: entity.AllSelection(),
	}
}

// invoiceURL URL compartida de inv más parámetros extra (ej. la señal de redirección).
func invoiceURL(t *testing.T, inv *entity.Invoice, extra url.Values) string {
	t.Helper()
	token, err := codec.Encode(inv)
	require.NoError(t, err)
	q := url.Values{codec.ParamData: {token}}
	for k, v := range extra {
		q[k] = v
	}
	return baseURL + "?" + q.Encode()
}

func newLocation(t *testing.T, raw string) *reconcile.MemoryLocation {
	t.Helper()
	loc, err := reconcile.NewMemoryLocation(raw)
	require.NoError(t, err)
	return loc
}

func newReconciler(rec reconcile.Recorder) *reconcile.Reconciler {
	return reconcile.NewReconciler(fixedClock{paidAt}, reconcile.NewOriginGuard(providerOrigin), reconcile.WithRecorder(rec))
}

func decodeLocation(t *testing.T, loc reconcile.Location) *entity.Invoice {
	t.Helper()
	inv, ok, err := codec.DecodeURL(loc.Current())
	require.True(t, ok)
	require.NoError(t, err)
	return inv
}

func redirectParams(txHash, chainID, amount string) url.Values {
	q := url.Values{}
	if txHash != "" {
		q.Set(reconcile.ParamTxHash, txHash)
	}
	if chainID != "" {
		q.Set(reconcile.ParamChainID, chainID)
	}
	if amount != "" {
		q.Set(reconcile.ParamAmount, amount)
	}
	return q
}
