package billing

import (
	"fmt"

	"github.com/jhoicas/slipstream/internal/application/reconcile"
	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// ViewResult factura vista por el destinatario.
type ViewResult struct {
	Invoice  *entity.Invoice
	ReadOnly bool
	// Fallback el token no se pudo decodificar y se muestra una factura vacía.
	Fallback bool
	Outcome  reconcile.Outcome
	// ReplaceURL URL que debe sustituir a la actual (sin historial); vacía si no cambia.
	ReplaceURL string
}

// ViewUseCase abre un link compartido y aplica la señal de redirección si viene en la URL.
type ViewUseCase struct {
	rec *reconcile.Reconciler
}

// NewViewUseCase construye el caso de uso.
func NewViewUseCase(rec *reconcile.Reconciler) *ViewUseCase {
	return &ViewUseCase{rec: rec}
}

// View decodifica la URL y reconcilia el pago por redirección. Un token corrupto nunca
// es un error: se devuelve una factura vacía con Fallback=true.
func (uc *ViewUseCase) View(rawURL string) (*ViewResult, error) {
	loc, err := reconcile.NewMemoryLocation(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	res, err := uc.rec.HandleRedirect(loc)
	out := &ViewResult{Outcome: res.Outcome}
	if res.Outcome == reconcile.OutcomeApplied {
		out.ReplaceURL = res.URL.String()
	}
	if err != nil && !reconcile.IsDecodeError(err) {
		return nil, err
	}

	inv, ok, decErr := codec.DecodeURL(loc.Current())
	switch {
	case !ok:
		out.Invoice = entity.NewInvoice()
	case decErr != nil:
		out.Invoice, out.ReadOnly, out.Fallback = entity.NewInvoice(), true, true
	default:
		out.Invoice, out.ReadOnly = inv, true
	}
	return out, nil
}
