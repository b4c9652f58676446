package reconcile

import "time"

// Clock fuente de la hora de pago.
type Clock interface {
	Now() time.Time
}

// Timer temporizador cancelable.
type Timer interface {
	Stop() bool
}

// Scheduler programa callbacks diferidos (cierre del overlay, recarga).
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemClock reloj y planificador reales.
type SystemClock struct{}

var (
	_ Clock     = SystemClock{}
	_ Scheduler = SystemClock{}
)

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) }
