package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("operación no permitida para esta identidad")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Factura
	ErrReadOnly      = errors.New("la factura es de solo lectura")
	ErrNotShareable  = errors.New("la factura no está completa para compartir")
	ErrNotPayable    = errors.New("la factura no se puede pagar: falta wallet o total no positivo")
	ErrInvalidWallet = errors.New("dirección de wallet o nombre ENS inválido")

	// Codec del token ?data=
	ErrMalformedToken = errors.New("token de factura malformado")
	ErrInvalidPayload = errors.New("contenido de factura inválido")

	// Conciliación de pagos
	ErrUntrustedOrigin  = errors.New("origen del mensaje no confiable")
	ErrIncompleteSignal = errors.New("parámetros de redirección incompletos")

	// Proveedor de pagos. ErrPaymentCancelled y ErrPaymentTimeout se envuelven siempre en ErrProviderError.
	ErrProviderError    = errors.New("error del proveedor de pagos")
	ErrPaymentCancelled = errors.New("el usuario canceló el pago")
	ErrPaymentTimeout   = errors.New("la solicitud de pago expiró")
)
