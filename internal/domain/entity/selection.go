package entity

import "strings"

// SelectionAll es el centinela "sin restricción" de tokens/cadenas aceptados.
// Se compara sin distinguir mayúsculas: los links antiguos usan "all".
const SelectionAll = "All"

// Selection conjunto ordenado de tokens o cadenas aceptados.
// Invariante: nunca vacío y contiene el centinela si y solo si es exactamente {"All"}.
type Selection []string

// Catálogos ofrecidos al emisor.
var (
	AvailableTokens = []string{"USDC", "USDT", "USDGLO", "USDM", "DAI", "CRVUSD"}
	AvailableChains = []string{"Ethereum", "Arbitrum", "Optimism", "Base", "Polygon"}
)

// chainPrefixes prefijos de cadena que entiende el link de pago del proveedor.
var chainPrefixes = map[string]string{
	"Ethereum": "eth",
	"Arbitrum": "arb1",
	"Optimism": "oeth",
	"Base":     "base",
	"Polygon":  "pol",
}

// AllSelection devuelve {"All"}.
func AllSelection() Selection { return Selection{SelectionAll} }

// IsSentinel indica si v es el centinela (case-insensitive).
func IsSentinel(v string) bool { return strings.EqualFold(strings.TrimSpace(v), SelectionAll) }

// NormalizeSelection repara un conjunto que viola el invariante: vacío o centinela mezclado → {"All"}.
// Un conjunto válido se devuelve sin cambios (incluido el centinela en minúsculas heredado).
func NormalizeSelection(s []string) Selection {
	out := make(Selection, 0, len(s))
	for _, v := range s {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if IsSentinel(v) {
			if len(s) == 1 {
				return Selection{v}
			}
			return AllSelection()
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return AllSelection()
	}
	return out
}

// IsAll indica si el conjunto no restringe nada.
func (s Selection) IsAll() bool {
	for _, v := range s {
		if IsSentinel(v) {
			return true
		}
	}
	return len(s) == 0
}

// Contains indica si v pertenece al conjunto (comparación exacta de miembros concretos).
func (s Selection) Contains(v string) bool {
	for _, m := range s {
		if m == v {
			return true
		}
	}
	return false
}

// Toggle selecciona o deselecciona v y devuelve un nuevo conjunto:
//   - seleccionar el centinela limpia el resto;
//   - seleccionar un miembro concreto quita el centinela;
//   - deseleccionar el último miembro concreto repone el centinela.
func (s Selection) Toggle(v string) Selection {
	if IsSentinel(v) {
		return AllSelection()
	}
	concrete := s.Concrete()
	if Selection(concrete).Contains(v) {
		next := make(Selection, 0, len(concrete))
		for _, m := range concrete {
			if m != v {
				next = append(next, m)
			}
		}
		if len(next) == 0 {
			return AllSelection()
		}
		return next
	}
	return append(Selection(concrete), v)
}

// Concrete miembros distintos del centinela (copia).
func (s Selection) Concrete() []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if !IsSentinel(v) {
			out = append(out, v)
		}
	}
	return out
}

// IsKnownToken indica si el token está en el catálogo.
func IsKnownToken(v string) bool { return contains(AvailableTokens, v) }

// IsKnownChain indica si la cadena está en el catálogo.
func IsKnownChain(v string) bool { return contains(AvailableChains, v) }

// ChainPrefix prefijo del proveedor para una cadena ("Arbitrum" → "arb1"); "" si no existe.
func ChainPrefix(chain string) string { return chainPrefixes[chain] }

func contains(list []string, v string) bool {
	for _, m := range list {
		if m == v {
			return true
		}
	}
	return false
}
