package reconcile

import "sync"

// Window canal de mensajes entre contextos (el frame del proveedor publica aquí).
type Window struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(Message)
}

// NewWindow crea un canal sin suscriptores.
func NewWindow() *Window {
	return &Window{listeners: make(map[int]func(Message))}
}

// Subscribe registra fn y devuelve la función que la da de baja (idempotente).
func (w *Window) Subscribe(fn func(Message)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.next
	w.next++
	w.listeners[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

// Post entrega msg a los suscriptores actuales y devuelve cuántos lo recibieron.
// Los listeners se invocan fuera del lock.
func (w *Window) Post(msg Message) int {
	w.mu.Lock()
	fns := make([]func(Message), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(msg)
	}
	return len(fns)
}

// Listeners cantidad de suscriptores activos.
func (w *Window) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}
