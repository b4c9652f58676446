package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/domain/repository"
)

var (
	_ repository.InvoiceRepository   = (*InvoiceRepo)(nil)
	_ repository.AnalyticsRepository = (*InvoiceRepo)(nil)
)

// InvoiceRepo guarda la factura con el mismo JSON del token (columna data) y replica en
// columnas lo que se consulta: total, moneda y estado de pago. Las columnas de pago mandan
// sobre el JSON al leer.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const selectStored = `
	SELECT short_id, owner, data, is_paid, tx_hash, paid_at, created_at, updated_at
	FROM stored_invoices`

// Create inserta la factura; domain.ErrConflict si el short id ya existe.
func (r *InvoiceRepo) Create(ctx context.Context, rec *entity.StoredInvoice) error {
	data, err := codec.Marshal(rec.Invoice)
	if err != nil {
		return fmt.Errorf("serializar factura: %w", err)
	}
	inv := rec.Invoice
	query := `
		INSERT INTO stored_invoices (short_id, invoice_id, owner, data, currency, grand_total, is_paid, tx_hash, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err = r.q.Exec(ctx, query,
		rec.ShortID, inv.InvoiceID, nullIfEmpty(rec.Owner), data, string(inv.Currency), inv.GrandTotal(),
		inv.IsPaid, nullIfEmpty(inv.TxHash), utcPtr(inv.PaidAt),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: short id %s ya existe", domain.ErrConflict, rec.ShortID)
		}
		return fmt.Errorf("insert stored invoice: %w", err)
	}
	return nil
}

// GetByShortID devuelve (nil, nil) si no existe.
func (r *InvoiceRepo) GetByShortID(ctx context.Context, shortID string) (*entity.StoredInvoice, error) {
	rec, err := scanStored(r.q.QueryRow(ctx, selectStored+` WHERE short_id = $1`, shortID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stored invoice: %w", err)
	}
	return rec, nil
}

// Update reemplaza contenido y total. Solo toca facturas no pagadas: si el pago llegó
// entre la lectura y la escritura devuelve domain.ErrReadOnly.
func (r *InvoiceRepo) Update(ctx context.Context, rec *entity.StoredInvoice) error {
	data, err := codec.Marshal(rec.Invoice)
	if err != nil {
		return fmt.Errorf("serializar factura: %w", err)
	}
	query := `
		UPDATE stored_invoices
		SET data        = $2,
		    currency    = $3,
		    grand_total = $4,
		    updated_at  = $5
		WHERE short_id = $1 AND NOT is_paid`
	tag, err := r.q.Exec(ctx, query,
		rec.ShortID, data, string(rec.Invoice.Currency), rec.Invoice.GrandTotal(), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update stored invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var paid bool
		err := r.q.QueryRow(ctx, `SELECT is_paid FROM stored_invoices WHERE short_id = $1`, rec.ShortID).Scan(&paid)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update stored invoice: %w", err)
		}
		return domain.ErrReadOnly
	}
	return nil
}

// MarkPaid bloquea la fila, aplica el pago una sola vez y reescribe el JSON con los
// campos de pago. Devuelve (nil, false, nil) si no existe.
func (r *InvoiceRepo) MarkPaid(ctx context.Context, shortID string, paidAt time.Time, txHash string) (*entity.StoredInvoice, bool, error) {
	var (
		out     *entity.StoredInvoice
		applied bool
	)
	err := inTx(ctx, r.q, func(tx pgx.Tx) error {
		rec, err := scanStored(tx.QueryRow(ctx, selectStored+` WHERE short_id = $1 FOR UPDATE`, shortID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock stored invoice: %w", err)
		}
		out = rec
		if !rec.Invoice.MarkPaid(paidAt, txHash) {
			return nil
		}
		data, err := codec.Marshal(rec.Invoice)
		if err != nil {
			return fmt.Errorf("serializar factura: %w", err)
		}
		rec.UpdatedAt = paidAt.UTC()
		_, err = tx.Exec(ctx, `
			UPDATE stored_invoices
			SET data = $2, is_paid = TRUE, tx_hash = $3, paid_at = $4, updated_at = $5
			WHERE short_id = $1`,
			shortID, data, nullIfEmpty(rec.Invoice.TxHash), utcPtr(rec.Invoice.PaidAt), rec.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("mark stored invoice paid: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, applied, nil
}

// TotalsByCurrency suma los totales de facturas guardadas por moneda y estado de pago.
func (r *InvoiceRepo) TotalsByCurrency(ctx context.Context, paid bool) (map[entity.Currency]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT currency, COALESCE(SUM(grand_total), 0)
		FROM stored_invoices WHERE is_paid = $1
		GROUP BY currency`, paid)
	if err != nil {
		return nil, fmt.Errorf("totals by currency: %w", err)
	}
	defer rows.Close()
	out := make(map[entity.Currency]decimal.Decimal)
	for rows.Next() {
		var (
			cur   string
			total decimal.Decimal
		)
		if err := rows.Scan(&cur, &total); err != nil {
			return nil, fmt.Errorf("scan totals: %w", err)
		}
		out[entity.Currency(cur)] = total
	}
	return out, rows.Err()
}

func scanStored(row pgx.Row) (*entity.StoredInvoice, error) {
	var (
		rec    entity.StoredInvoice
		owner  *string
		data   []byte
		isPaid bool
		txHash *string
		paidAt *time.Time
	)
	if err := row.Scan(&rec.ShortID, &owner, &data, &isPaid, &txHash, &paidAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	inv, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("stored invoice %s: %w", rec.ShortID, err)
	}
	inv.IsPaid, inv.TxHash, inv.PaidAt = isPaid, "", nil
	if isPaid {
		inv.TxHash = derefStr(txHash)
		inv.PaidAt = utcPtr(paidAt)
	}
	rec.Owner = derefStr(owner)
	rec.Invoice = inv
	return &rec, nil
}
