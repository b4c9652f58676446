package entity

import "time"

// StoredInvoice factura persistida por el colaborador opcional de almacenamiento,
// alternativa a llevar todo el estado en la URL. ShortID es el identificador corto del link.
// Owner es el subject verificado de quien la creó; vacío si se creó de forma anónima y
// entonces nadie puede editarla.
type StoredInvoice struct {
	ShortID   string
	Owner     string
	Invoice   *Invoice
	CreatedAt time.Time
	UpdatedAt time.Time
}
