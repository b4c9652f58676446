package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/infrastructure/postgres"
	"github.com/jhoicas/slipstream/pkg/config"
)

// Requiere TEST_DATABASE_URL; sin ella se omite.
func newRepo(t *testing.T) *postgres.InvoiceRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return postgres.NewInvoiceRepository(pool)
}

func storedInvoice() *entity.StoredInvoice {
	inv := entity.NewInvoice()
	inv.CompanyInfo.Details = "Acme"
	inv.RecipientInfo.Details = "Initech"
	inv.Currency = entity.CurrencyCHF
	inv.Items[0].Description = "Hosting"
	inv.Items[0].Amount = "42.10"
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.StoredInvoice{ShortID: uuid.NewString()[:11], Owner: "0xAbC", Invoice: inv, CreatedAt: now, UpdatedAt: now}
}

func TestInvoiceRepo_Ciclo(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	rec := storedInvoice()

	require.NoError(t, repo.Create(ctx, rec))
	assert.ErrorIs(t, repo.Create(ctx, rec), domain.ErrConflict)

	got, err := repo.GetByShortID(ctx, rec.ShortID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.Invoice.InvoiceID, got.Invoice.InvoiceID)
	assert.Equal(t, "0xAbC", got.Owner)
	assert.Equal(t, "42.1", got.Invoice.GrandTotal().String())

	got.Invoice.RecipientInfo.Details = "Globex"
	require.NoError(t, repo.Update(ctx, got))

	paidAt := time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)
	paid, applied, err := repo.MarkPaid(ctx, rec.ShortID, paidAt, "0xabc")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "Globex", paid.Invoice.RecipientInfo.Details)

	again, applied, err := repo.MarkPaid(ctx, rec.ShortID, paidAt.Add(time.Hour), "0xdef")
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "0xabc", again.Invoice.TxHash)
	assert.True(t, again.Invoice.PaidAt.Equal(paidAt))

	assert.ErrorIs(t, repo.Update(ctx, got), domain.ErrReadOnly)
}

func TestInvoiceRepo_NoExiste(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	got, err := repo.GetByShortID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, got)

	rec, applied, err := repo.MarkPaid(ctx, "no-existe", time.Now(), "0x1")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, applied)

	assert.ErrorIs(t, repo.Update(ctx, storedInvoice()), domain.ErrNotFound)
}
