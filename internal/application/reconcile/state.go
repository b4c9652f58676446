package reconcile

import (
	"fmt"

	"github.com/jhoicas/slipstream/internal/domain"
	"github.com/jhoicas/slipstream/internal/domain/entity"
)

// State estado de pago visto por la sesión.
type State string

const (
	StateUnpaid         State = "unpaid"
	StatePaymentPending State = "payment_pending"
	StatePaid           State = "paid" // terminal
)

// Event evento que mueve la máquina de estados.
type Event string

const (
	EventBeginPayment Event = "begin_payment"
	EventCancel       Event = "cancel" // cancelación o timeout del proveedor
	EventComplete     Event = "complete"
)

// StateOf estado inicial según la factura decodificada.
func StateOf(inv *entity.Invoice) State {
	if inv != nil && inv.IsPaid {
		return StatePaid
	}
	return StateUnpaid
}

// Next aplica el evento. Una vez Paid, Complete y Cancel son no-ops; iniciar otro pago es un conflicto.
func (s State) Next(e Event) (State, error) {
	switch s {
	case StateUnpaid:
		switch e {
		case EventBeginPayment:
			return StatePaymentPending, nil
		case EventCancel:
			return StateUnpaid, nil
		case EventComplete:
			return StatePaid, nil
		}
	case StatePaymentPending:
		switch e {
		case EventBeginPayment:
			return s, fmt.Errorf("%w: ya hay un pago en curso", domain.ErrConflict)
		case EventCancel:
			return StateUnpaid, nil
		case EventComplete:
			return StatePaid, nil
		}
	case StatePaid:
		switch e {
		case EventBeginPayment:
			return s, fmt.Errorf("%w: la factura ya está pagada", domain.ErrConflict)
		case EventCancel, EventComplete:
			return StatePaid, nil
		}
	}
	return s, fmt.Errorf("%w: transición %s desde %s", domain.ErrInvalidInput, e, s)
}
