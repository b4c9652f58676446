package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
	"github.com/jhoicas/slipstream/internal/domain/repository"
)

// StoredInvoiceUseCase persistencia opcional por short id, alternativa al estado en la URL.
type StoredInvoiceUseCase struct {
	repo repository.InvoiceRepository
	ids  IDGenerator
	now  func() time.Time
}

// NewStoredInvoiceUseCase construye el caso de uso.
func NewStoredInvoiceUseCase(repo repository.InvoiceRepository, ids IDGenerator) *StoredInvoiceUseCase {
	return &StoredInvoiceUseCase{repo: repo, ids: ids, now: time.Now}
}

// Create guarda una factura sin pagar y le asigna un short id. owner es el subject de una
// identidad verificada o vacío.
func (uc *StoredInvoiceUseCase) Create(ctx context.Context, inv *entity.Invoice, owner string) (*entity.StoredInvoice, error) {
	if inv == nil {
		return nil, domain.ErrInvalidInput
	}
	if inv.IsPaid {
		return nil, fmt.Errorf("%w: no se puede guardar una factura ya pagada", domain.ErrInvalidInput)
	}
	now := uc.now().UTC()
	rec := &entity.StoredInvoice{
		ShortID:   uc.ids.NewID(),
		Owner:     strings.TrimSpace(owner),
		Invoice:   inv,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("stored invoice: crear: %w", err)
	}
	return rec, nil
}

// Get recupera la factura; domain.ErrNotFound si no existe.
func (uc *StoredInvoiceUseCase) Get(ctx context.Context, shortID string) (*entity.StoredInvoice, error) {
	shortID = strings.TrimSpace(shortID)
	if shortID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.repo.GetByShortID(ctx, shortID)
	if err != nil {
		return nil, fmt.Errorf("stored invoice: obtener: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// Update reemplaza el contenido de una factura no pagada. Solo el dueño puede editarla
// (subject comparado sin distinguir mayúsculas). El invoiceId se conserva y los campos de
// pago no se aceptan desde el cliente.
func (uc *StoredInvoiceUseCase) Update(ctx context.Context, shortID, editor string, inv *entity.Invoice) (*entity.StoredInvoice, error) {
	if inv == nil {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.Get(ctx, shortID)
	if err != nil {
		return nil, err
	}
	editor = strings.TrimSpace(editor)
	if rec.Owner == "" || editor == "" || !strings.EqualFold(rec.Owner, editor) {
		return nil, fmt.Errorf("%w: %s no es dueño de %s", domain.ErrForbidden, editor, rec.ShortID)
	}
	if rec.Invoice.IsPaid {
		return nil, domain.ErrReadOnly
	}
	inv.InvoiceID = rec.Invoice.InvoiceID
	inv.IsPaid, inv.PaidAt, inv.TxHash = false, nil, ""
	rec.Invoice = inv
	rec.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("stored invoice: actualizar: %w", err)
	}
	return rec, nil
}

// MarkPaid aplica el pago; applied=false si ya estaba pagada (idempotente).
func (uc *StoredInvoiceUseCase) MarkPaid(ctx context.Context, shortID, txHash string) (*entity.StoredInvoice, bool, error) {
	shortID = strings.TrimSpace(shortID)
	if shortID == "" {
		return nil, false, domain.ErrInvalidInput
	}
	rec, applied, err := uc.repo.MarkPaid(ctx, shortID, uc.now(), strings.TrimSpace(txHash))
	if err != nil {
		return nil, false, fmt.Errorf("stored invoice: marcar pagada: %w", err)
	}
	if rec == nil {
		return nil, false, domain.ErrNotFound
	}
	return rec, applied, nil
}
