package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/slipstream/internal/domain"
)

// ErrRegistryFull se alcanzó el máximo de sesiones abiertas.
var ErrRegistryFull = errors.New("demasiadas sesiones abiertas")

const (
	// DefaultIdleTTL una sesión sin accesos durante este tiempo se desmonta sola.
	DefaultIdleTTL = 15 * time.Minute
	// DefaultMaxSessions tope de sesiones abiertas a la vez.
	DefaultMaxSessions = 10000
)

type registryEntry struct {
	session *Session
	sub     *Subscription
	idle    Timer
	gen     uint64 // invalida un vencimiento que ya disparaba cuando se renovó
}

// Registry sesiones abiertas vía HTTP, por ID. Cada sesión vence tras IdleTTL sin accesos.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry

	rec         *Reconciler
	sched       Scheduler
	timings     Timings
	idleTTL     time.Duration
	maxSessions int
	log         zerolog.Logger
}

// RegistryOption ajusta límites del registro.
type RegistryOption func(*Registry)

// WithIdleTTL tiempo sin accesos tras el cual una sesión se desmonta.
func WithIdleTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.idleTTL = d
		}
	}
}

// WithMaxSessions tope de sesiones abiertas; Open devuelve ErrRegistryFull al superarlo.
func WithMaxSessions(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.maxSessions = n
		}
	}
}

// NewRegistry crea un registro vacío.
func NewRegistry(rec *Reconciler, sched Scheduler, timings Timings, log zerolog.Logger, opts ...RegistryOption) *Registry {
	if sched == nil {
		sched = SystemClock{}
	}
	r := &Registry{
		sessions:    make(map[string]*registryEntry),
		rec:         rec,
		sched:       sched,
		timings:     timings,
		idleTTL:     DefaultIdleTTL,
		maxSessions: DefaultMaxSessions,
		log:         log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open monta una sesión para rawURL (que puede traer ?data= y la señal de redirección).
func (r *Registry) Open(rawURL string) (*Session, error) {
	if r.Len() >= r.maxSessions {
		return nil, ErrRegistryFull
	}
	loc, err := NewMemoryLocation(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	s := NewSession(SessionConfig{
		ID:         uuid.New().String(),
		Location:   loc,
		Reconciler: r.rec,
		Scheduler:  r.sched,
		Timings:    r.timings,
		Logger:     r.log,
	})
	sub, err := s.Mount()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if len(r.sessions) >= r.maxSessions {
		r.mu.Unlock()
		sub.Cancel()
		return nil, ErrRegistryFull
	}
	e := &registryEntry{session: s, sub: sub}
	r.sessions[s.ID()] = e
	r.touchLocked(s.ID(), e)
	r.mu.Unlock()
	return s, nil
}

// Get busca una sesión abierta y renueva su vencimiento.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	r.touchLocked(id, e)
	return e.session, true
}

func (r *Registry) touchLocked(id string, e *registryEntry) {
	if e.idle != nil {
		e.idle.Stop()
	}
	e.gen++
	gen := e.gen
	e.idle = r.sched.AfterFunc(r.idleTTL, func() { r.expire(id, gen) })
}

func (r *Registry) expire(id string, gen uint64) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if !ok || e.gen != gen {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, id)
	r.mu.Unlock()
	e.sub.Cancel()
	r.log.Debug().Str("session_id", id).Dur("idle_ttl", r.idleTTL).Msg("sesión vencida por inactividad")
}

// Close desmonta y olvida la sesión; false si no existía.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		e.release()
	}
	return ok
}

// CloseAll desmonta todas las sesiones (apagado del servidor).
func (r *Registry) CloseAll() {
	r.mu.Lock()
	entries := r.sessions
	r.sessions = make(map[string]*registryEntry)
	r.mu.Unlock()
	for _, e := range entries {
		e.release()
	}
}

func (e *registryEntry) release() {
	if e.idle != nil {
		e.idle.Stop()
	}
	e.sub.Cancel()
}

// Len cantidad de sesiones abiertas.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
