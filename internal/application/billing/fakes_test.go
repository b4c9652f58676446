package billing_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/slipstream/internal/application/billing"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/domain/repository"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func shareableInvoice() *entity.Invoice {
	return &entity.Invoice{
		InvoiceID: "11111111-2222-3333-4444-555555555555",
		Items: []entity.LineItem{
			{ID: "a", Description: "Consulting", Amount: "100"},
			{ID: "b", Description: "Hosting", Amount: "20.5"},
		},
		CompanyInfo:    entity.PartyInfo{Details: "Acme"},
		RecipientInfo:  entity.PartyInfo{Details: "Globex"},
		Currency:       entity.CurrencyEUR,
		WalletAddress:  testWallet,
		SelectedTokens: entity.Selection{"USDC", "DAI"},
		SelectedChains: entity.Selection{"Base", "Arbitrum"},
	}
}

// ── Proveedor de pagos ───────────────────────────────────────────────────────

type fakeProvider struct {
	recipient string
	req       billing.PaymentRequest
	calls     int
	result    *billing.PaymentResult
	err       error
}

func (f *fakeProvider) RequestPayment(_ context.Context, recipient string, req billing.PaymentRequest) (*billing.PaymentResult, error) {
	f.calls++
	f.recipient = recipient
	f.req = req
	return f.result, f.err
}

// ── Repositorio en memoria ───────────────────────────────────────────────────

type memRepo struct {
	mu   sync.Mutex
	rows   map[string][]byte
	meta   map[string][2]time.Time
	owners map[string]string
}

var _ repository.InvoiceRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string][]byte{}, meta: map[string][2]time.Time{}, owners: map[string]string{}}
}

func (m *memRepo) Create(_ context.Context, rec *entity.StoredInvoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[rec.ShortID]; ok {
		return fmt.Errorf("duplicado")
	}
	return m.put(rec)
}

func (m *memRepo) put(rec *entity.StoredInvoice) error {
	raw, err := codec.Marshal(rec.Invoice)
	if err != nil {
		return err
	}
	m.rows[rec.ShortID] = raw
	m.meta[rec.ShortID] = [2]time.Time{rec.CreatedAt, rec.UpdatedAt}
	m.owners[rec.ShortID] = rec.Owner
	return nil
}

func (m *memRepo) load(shortID string) (*entity.StoredInvoice, error) {
	raw, ok := m.rows[shortID]
	if !ok {
		return nil, nil
	}
	inv, err := codec.Unmarshal(raw)
	if err != nil {
		return nil, err
	}
	meta := m.meta[shortID]
	return &entity.StoredInvoice{ShortID: shortID, Owner: m.owners[shortID], Invoice: inv, CreatedAt: meta[0], UpdatedAt: meta[1]}, nil
}

func (m *memRepo) GetByShortID(_ context.Context, shortID string) (*entity.StoredInvoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(shortID)
}

func (m *memRepo) Update(_ context.Context, rec *entity.StoredInvoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.put(rec)
}

func (m *memRepo) MarkPaid(_ context.Context, shortID string, paidAt time.Time, txHash string) (*entity.StoredInvoice, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, err := m.load(shortID)
	if err != nil || rec == nil {
		return nil, false, err
	}
	if !rec.Invoice.MarkPaid(paidAt, txHash) {
		return rec, false, nil
	}
	rec.UpdatedAt = paidAt
	return rec, true, m.put(rec)
}

type seqIDs struct{ n int }

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("id%d", s.n)
}

// ── PDF / QR ─────────────────────────────────────────────────────────────────

type fakePDF struct {
	inv      *entity.Invoice
	shareURL string
}

func (f *fakePDF) GenerateInvoicePDF(_ context.Context, inv *entity.Invoice, shareURL string) ([]byte, error) {
	f.inv, f.shareURL = inv, shareURL
	return []byte("%PDF-1.4"), nil
}

type fakeQR struct {
	content string
	size    int
}

func (f *fakeQR) PNG(content string, size int) ([]byte, error) {
	f.content, f.size = content, size
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

type fakePrefs struct {
	prefs *billing.Preferences
	err   error
}

func (f fakePrefs) Preferences(context.Context, string) (*billing.Preferences, error) {
	return f.prefs, f.err
}
