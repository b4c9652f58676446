package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/codec"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// ErrSessionClosed la sesión ya fue desmontada.
var ErrSessionClosed = errors.New("sesión cerrada")

// Timings retardos tras un pago aplicado: cierre del overlay y recarga de la vista.
type Timings struct {
	OverlayClose time.Duration
	Reload       time.Duration
}

// DefaultTimings 4,8 s para cerrar el overlay y 5 s para recargar.
var DefaultTimings = Timings{OverlayClose: 4800 * time.Millisecond, Reload: 5000 * time.Millisecond}

// SessionConfig dependencias de una sesión.
type SessionConfig struct {
	ID         string
	Location   Location
	Window     *Window
	Reconciler *Reconciler
	Scheduler  Scheduler
	Timings    Timings
	Logger     zerolog.Logger
}

// Session es la vista de una factura abierta: monta el listener de mensajes, aplica la
// señal de redirección y gestiona los dos temporizadores posteriores al pago.
// Todos los callbacks (montaje, mensajes, temporizadores, desmontaje) se serializan en mu.
type Session struct {
	mu sync.Mutex

	id      string
	loc     Location
	window  *Window
	rec     *Reconciler
	sched   Scheduler
	timings Timings
	log     zerolog.Logger

	state       State
	invoice     *entity.Invoice
	readOnly    bool
	fallback    bool
	overlayOpen bool
	reloads     int
	lastOutcome Outcome
	lastErr     error

	// gen invalida temporizadores reemplazados o cancelados que ya estaban disparando.
	gen          uint64
	overlayTimer Timer
	reloadTimer  Timer
	unsubscribe  func()
	mounted      bool
	torn         bool
}

// NewSession crea una sesión sin montar.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Window == nil {
		cfg.Window = NewWindow()
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemClock{}
	}
	if cfg.Timings == (Timings{}) {
		cfg.Timings = DefaultTimings
	}
	return &Session{
		id:      cfg.ID,
		loc:     cfg.Location,
		window:  cfg.Window,
		rec:     cfg.Reconciler,
		sched:   cfg.Scheduler,
		timings: cfg.Timings,
		log:     cfg.Logger.With().Str("component", "session").Str("session_id", cfg.ID).Logger(),
	}
}

// Subscription alcance de la sesión montada; Cancel la desmonta.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Cancel limpia ambos temporizadores y da de baja el listener. Idempotente.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Mount renderiza desde la URL, aplica la señal de redirección si existe y registra el
// listener de mensajes. La señal de redirección y los mensajes pueden disparar cada uno a
// lo sumo una transición; el chequeo de "ya pagada" hace irrelevante su orden.
func (s *Session) Mount() (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return nil, ErrSessionClosed
	}
	if s.mounted {
		return nil, fmt.Errorf("%w: sesión ya montada", domain.ErrConflict)
	}
	s.mounted = true
	s.render()

	res, err := s.rec.HandleRedirect(s.loc)
	s.absorb(res, err)

	s.unsubscribe = s.window.Subscribe(s.onMessage)
	return &Subscription{cancel: s.teardown}, nil
}

// Post publica un mensaje en la ventana de la sesión, como haría el frame del proveedor.
func (s *Session) Post(msg Message) (delivered int) {
	return s.window.Post(msg)
}

func (s *Session) onMessage(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return
	}
	res, err := s.rec.HandleMessage(s.loc, msg)
	s.absorb(res, err)
}

// absorb incorpora el resultado de una reconciliación. Requiere mu.
func (s *Session) absorb(res Result, err error) {
	s.lastOutcome = res.Outcome
	s.lastErr = err
	switch res.Outcome {
	case OutcomeApplied:
		s.invoice = res.Invoice
		s.readOnly = true
		s.fallback = false
		s.state, _ = s.state.Next(EventComplete)
		s.scheduleTransition()
	case OutcomeAlreadyPaid:
		s.state, _ = s.state.Next(EventComplete)
	}
}

// scheduleTransition reemplaza los temporizadores pendientes en vez de acumularlos. Requiere mu.
func (s *Session) scheduleTransition() {
	s.stopTimers()
	s.gen++
	gen := s.gen
	s.overlayTimer = s.sched.AfterFunc(s.timings.OverlayClose, func() { s.fireOverlayClose(gen) })
	s.reloadTimer = s.sched.AfterFunc(s.timings.Reload, func() { s.fireReload(gen) })
}

// stopTimers detiene ambos temporizadores e invalida los que ya estuvieran disparando. Requiere mu.
func (s *Session) stopTimers() {
	if s.overlayTimer != nil {
		s.overlayTimer.Stop()
		s.overlayTimer = nil
	}
	if s.reloadTimer != nil {
		s.reloadTimer.Stop()
		s.reloadTimer = nil
	}
	s.gen++
}

func (s *Session) fireOverlayClose(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn || gen != s.gen {
		return
	}
	s.overlayTimer = nil
	s.overlayOpen = false
}

func (s *Session) fireReload(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn || gen != s.gen {
		return
	}
	s.reloadTimer = nil
	s.reloads++
	s.render()
	s.log.Debug().Int("reloads", s.reloads).Msg("vista recargada desde la URL")
}

// render reconstruye la vista desde la URL activa. Un token inválido cae a una factura
// vacía en solo lectura, nunca a un error. Requiere mu.
func (s *Session) render() {
	inv, ok, err := codec.DecodeURL(s.loc.Current())
	switch {
	case !ok:
		s.invoice, s.readOnly, s.fallback = entity.NewInvoice(), false, false
	case err != nil:
		s.log.Warn().Err(err).Msg("token inválido, se muestra una factura vacía")
		s.invoice, s.readOnly, s.fallback = entity.NewInvoice(), true, true
	default:
		s.invoice, s.readOnly, s.fallback = inv, true, false
	}
	s.state = StateOf(s.invoice)
	s.overlayOpen = false
}

// BeginPayment pasa a PaymentPending y abre el overlay del proveedor.
// Solo una factura con wallet y total positivo es pagable.
func (s *Session) BeginPayment() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return ErrSessionClosed
	}
	if s.fallback || s.invoice == nil || !s.invoice.IsPayable() {
		return domain.ErrNotPayable
	}
	next, err := s.state.Next(EventBeginPayment)
	if err != nil {
		return err
	}
	s.state = next
	s.overlayOpen = true
	return nil
}

// CancelPayment vuelve a Unpaid tras cancelación o timeout del proveedor; la factura no cambia.
func (s *Session) CancelPayment(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return ErrSessionClosed
	}
	next, err := s.state.Next(EventCancel)
	if err != nil {
		return err
	}
	if s.state == StatePaymentPending {
		s.overlayOpen = false
		s.lastErr = cause
		s.log.Info().Err(cause).Msg("pago no completado")
	}
	s.state = next
	return nil
}

func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return
	}
	s.torn = true
	s.stopTimers()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Snapshot vista de la sesión en un instante.
type Snapshot struct {
	ID            string
	State         State
	URL           string
	Invoice       *entity.Invoice
	ReadOnly      bool
	Fallback      bool
	OverlayOpen   bool
	Reloads       int
	PendingTimers int
	LastOutcome   Outcome
	LastError     error
	Closed        bool
}

// Snapshot devuelve el estado actual.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := 0
	if s.overlayTimer != nil {
		pending++
	}
	if s.reloadTimer != nil {
		pending++
	}
	return Snapshot{
		ID:            s.id,
		State:         s.state,
		URL:           s.loc.Current().String(),
		Invoice:       s.invoice,
		ReadOnly:      s.readOnly,
		Fallback:      s.fallback,
		OverlayOpen:   s.overlayOpen,
		Reloads:       s.reloads,
		PendingTimers: pending,
		LastOutcome:   s.lastOutcome,
		LastError:     s.lastErr,
		Closed:        s.torn,
	}
}

// ID identificador de la sesión.
func (s *Session) ID() string { return s.id }
