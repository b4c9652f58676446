package reconcile

import (
	"fmt"
	"net/url"
	"sync"
)

// Location es la barra de direcciones: un registro de un solo escritor con la URL activa.
// Replace sustituye la URL en el mismo lugar, sin navegar ni agregar historial.
type Location interface {
	Current() *url.URL
	Replace(u *url.URL)
}

// MemoryLocation implementación en memoria de Location.
type MemoryLocation struct {
	mu           sync.Mutex
	current      url.URL
	replacements int
}

var _ Location = (*MemoryLocation)(nil)

// NewMemoryLocation parsea la URL inicial; debe ser absoluta.
func NewMemoryLocation(raw string) (*MemoryLocation, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("url inválida: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("url inválida: se requiere una URL absoluta")
	}
	return &MemoryLocation{current: *u}, nil
}

// Current devuelve una copia de la URL activa.
func (l *MemoryLocation) Current() *url.URL {
	l.mu.Lock()
	defer l.mu.Unlock()
	u := l.current
	return &u
}

// Replace sustituye la URL activa.
func (l *MemoryLocation) Replace(u *url.URL) {
	if u == nil {
		return
	}
	l.mu.Lock()
	l.current = *u
	l.replacements++
	l.mu.Unlock()
}

// Replacements cantidad de reemplazos aplicados.
func (l *MemoryLocation) Replacements() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.replacements
}
