package repository

import (
	"context"
	"time"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia de facturas por short id.
// GetByShortID devuelve (nil, nil) si no existe.
type InvoiceRepository interface {
	Create(ctx context.Context, rec *entity.StoredInvoice) error
	GetByShortID(ctx context.Context, shortID string) (*entity.StoredInvoice, error)
	// Update reemplaza el contenido de una factura aún no pagada.
	Update(ctx context.Context, rec *entity.StoredInvoice) error
	// MarkPaid aplica el pago de forma atómica e idempotente.
	// applied=false si la factura ya estaba pagada (se devuelve sin cambios).
	MarkPaid(ctx context.Context, shortID string, paidAt time.Time, txHash string) (rec *entity.StoredInvoice, applied bool, err error)
}
