package cache

import (
	"context"
	"sync"
	"time"
)

// Cache caché por clave string con TTL por entrada. Los errores solo vienen de backends remotos.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// DefaultMaxEntries tope de entradas de un TTLCache.
const DefaultMaxEntries = 10000

// TTLCache caché en memoria del proceso con tope de entradas. Al llenarse, Set barre las
// expiradas y, si no alcanza, desaloja la que vence antes.
type TTLCache[V any] struct {
	mu         sync.RWMutex
	items      map[string]cacheEntry[V]
	now        func() time.Time
	maxEntries int
}

var _ Cache[int] = (*TTLCache[int])(nil)

// TTLOption ajusta un TTLCache.
type TTLOption func(*ttlSettings)

type ttlSettings struct{ maxEntries int }

// WithMaxEntries tope de entradas; n <= 0 deja el valor por defecto.
func WithMaxEntries(n int) TTLOption {
	return func(s *ttlSettings) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// NewTTLCache construye un TTLCache vacío.
func NewTTLCache[V any](opts ...TTLOption) *TTLCache[V] {
	s := ttlSettings{maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&s)
	}
	return &TTLCache[V]{items: make(map[string]cacheEntry[V]), now: time.Now, maxEntries: s.maxEntries}
}

// Get devuelve el valor si existe y no expiró.
func (c *TTLCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	if c == nil {
		return zero, false, nil
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		_ = c.Delete(ctx, key)
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set guarda value; ttl <= 0 no expira.
func (c *TTLCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	now := c.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.items[key] = cacheEntry[V]{value: value, expiresAt: expiresAt}
	return nil
}

// evictLocked quita las entradas expiradas; si ninguna lo estaba, la que vence antes
// (las que no expiran se desalojan al final).
func (c *TTLCache[V]) evictLocked(now time.Time) {
	var (
		victim     string
		victimAt   time.Time
		haveVictim bool
	)
	for k, e := range c.items {
		if e.expiresAt.IsZero() {
			if !haveVictim {
				victim, haveVictim = k, true
			}
			continue
		}
		if now.After(e.expiresAt) {
			delete(c.items, k)
			continue
		}
		if !haveVictim || victimAt.IsZero() || e.expiresAt.Before(victimAt) {
			victim, victimAt, haveVictim = k, e.expiresAt, true
		}
	}
	if len(c.items) >= c.maxEntries && haveVictim {
		delete(c.items, victim)
	}
}

// Len cantidad de entradas guardadas, incluidas las expiradas aún no barridas.
func (c *TTLCache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Delete elimina la entrada.
func (c *TTLCache[V]) Delete(_ context.Context, key string) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// SetClock reemplaza la fuente de hora (tests).
func (c *TTLCache[V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// NoopCache nunca acierta y descarta escrituras.
type NoopCache[V any] struct{}

func (NoopCache[V]) Get(context.Context, string) (V, bool, error) {
	var zero V
	return zero, false, nil
}

func (NoopCache[V]) Set(context.Context, string, V, time.Duration) error { return nil }

func (NoopCache[V]) Delete(context.Context, string) error { return nil }
