// Package reconcile incorpora la confirmación asíncrona de un pago (redirección o mensaje
// entre contextos) a la factura codificada en la URL, sin servidor coordinador.
package reconcile

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// Outcome resultado de procesar una señal.
type Outcome string

const (
	OutcomeApplied     Outcome = "applied"
	OutcomeAlreadyPaid Outcome = "already_paid"
	OutcomeAborted     Outcome = "aborted"    // token corrupto: estado intacto
	OutcomeNoInvoice   Outcome = "no_invoice" // la URL no trae ?data=
	OutcomeIgnored     Outcome = "ignored"
	OutcomeRejected    Outcome = "rejected" // origen no confiable
	OutcomeNoSignal    Outcome = "no_signal"
)

// Recorder recibe cada resultado (métricas).
type Recorder interface {
	Reconciliation(source Source, outcome Outcome)
}

type nopRecorder struct{}

func (nopRecorder) Reconciliation(Source, Outcome) {}

// Result efecto de una reconciliación.
type Result struct {
	Outcome Outcome
	Invoice *entity.Invoice // factura resultante; nil si no se pudo decodificar
	URL     *url.URL        // URL activa tras el paso
}

// Reconciler aplica Unpaid → Paid sobre el token de una Location.
type Reconciler struct {
	clock    Clock
	guard    OriginGuard
	recorder Recorder
	log      zerolog.Logger
}

// Option configura el Reconciler.
type Option func(*Reconciler)

// WithRecorder registra los resultados en r.
func WithRecorder(r Recorder) Option {
	return func(rc *Reconciler) {
		if r != nil {
			rc.recorder = r
		}
	}
}

// WithLogger usa log como logger del componente.
func WithLogger(log zerolog.Logger) Option {
	return func(rc *Reconciler) { rc.log = log.With().Str("component", "reconciler").Logger() }
}

// NewReconciler crea el reconciliador con el origen confiable del proveedor.
func NewReconciler(clock Clock, guard OriginGuard, opts ...Option) *Reconciler {
	r := &Reconciler{
		clock:    clock,
		guard:    guard,
		recorder: nopRecorder{},
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Guard origen confiable en uso.
func (r *Reconciler) Guard() OriginGuard { return r.guard }

// Complete incorpora un hecho de pago válido a la factura de loc:
//  1. decodifica el token activo (si falla, aborta sin tocar nada);
//  2. si ya está pagada no hace nada;
//  3. marca pagada con la hora actual y txHash (vacío si la señal no lo trae);
//  4. recodifica y reemplaza la URL en el mismo lugar.
func (r *Reconciler) Complete(loc Location, source Source, txHash string) (Result, error) {
	cur := loc.Current()
	inv, ok, err := codec.DecodeURL(cur)
	if !ok {
		return r.done(source, Result{Outcome: OutcomeNoInvoice, URL: cur}), nil
	}
	if err != nil {
		r.log.Error().Err(err).Str("source", string(source)).Msg("reconciliación abortada: token inválido")
		return r.done(source, Result{Outcome: OutcomeAborted, URL: cur}), err
	}
	if !inv.MarkPaid(r.clock.Now(), txHash) {
		r.log.Debug().Str("invoice_id", inv.InvoiceID).Str("source", string(source)).Msg("factura ya pagada, señal ignorada")
		return r.done(source, Result{Outcome: OutcomeAlreadyPaid, Invoice: inv, URL: cur}), nil
	}

	token, err := codec.Encode(inv)
	if err != nil {
		r.log.Error().Err(err).Str("invoice_id", inv.InvoiceID).Msg("reconciliación abortada: no se pudo recodificar")
		return r.done(source, Result{Outcome: OutcomeAborted, URL: cur}), err
	}
	next := codec.ShareURL(cur, token)
	loc.Replace(next)

	r.log.Info().
		Str("invoice_id", inv.InvoiceID).
		Str("source", string(source)).
		Str("tx_hash", txHash).
		Msg("pago reconciliado")
	return r.done(source, Result{Outcome: OutcomeApplied, Invoice: inv, URL: next}), nil
}

// HandleRedirect procesa los parámetros de redirección de la URL activa.
// Una señal incompleta se ignora y la factura conserva su estado.
func (r *Reconciler) HandleRedirect(loc Location) (Result, error) {
	cur := loc.Current()
	sig, err := ParseRedirect(cur.Query())
	if err != nil {
		r.log.Debug().Err(err).Msg("señal de redirección incompleta")
		return r.done(SourceRedirect, Result{Outcome: OutcomeIgnored, URL: cur}), nil
	}
	if sig == nil {
		return Result{Outcome: OutcomeNoSignal, URL: cur}, nil
	}
	return r.Complete(loc, SourceRedirect, sig.TxHash)
}

// HandleMessage procesa un mensaje entre contextos. Un origen distinto del proveedor se
// rechaza con domain.ErrUntrustedOrigin; otro tipo de mensaje se ignora.
func (r *Reconciler) HandleMessage(loc Location, msg Message) (Result, error) {
	if !r.guard.Allows(msg.Origin) {
		r.log.Warn().
			Str("origin", msg.Origin).
			Str("expected", r.guard.Origin()).
			Str("type", msg.Data.Type).
			Msg("mensaje descartado: origen no confiable")
		return r.done(SourceMessage, Result{Outcome: OutcomeRejected, URL: loc.Current()}),
			fmt.Errorf("%w: %q", domain.ErrUntrustedOrigin, msg.Origin)
	}
	if msg.Data.Type != MessageTypePaymentComplete {
		return r.done(SourceMessage, Result{Outcome: OutcomeIgnored, URL: loc.Current()}), nil
	}
	return r.Complete(loc, SourceMessage, msg.Data.TxHash)
}

func (r *Reconciler) done(source Source, res Result) Result {
	r.recorder.Reconciliation(source, res.Outcome)
	return res
}

// IsDecodeError indica si err proviene del token (malformado o payload inválido).
func IsDecodeError(err error) bool {
	return errors.Is(err, domain.ErrMalformedToken) || errors.Is(err, domain.ErrInvalidPayload)
}
