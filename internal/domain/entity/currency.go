package entity

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency moneda fiat en la que se expresa la factura y se pide el pago.
type Currency string

// Monedas soportadas.
const (
	CurrencyCHF Currency = "CHF"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyTHB Currency = "THB"
	CurrencyBRL Currency = "BRL"
)

// DefaultCurrency se usa cuando el payload no trae moneda o trae una desconocida.
const DefaultCurrency = CurrencyUSD

var currencySymbols = map[Currency]string{
	CurrencyCHF: "CHF",
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
	CurrencyTHB: "฿",
	CurrencyBRL: "R$",
}

// Currencies devuelve las monedas soportadas en orden de presentación.
func Currencies() []Currency {
	return []Currency{CurrencyCHF, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyTHB, CurrencyBRL}
}

// ParseCurrency normaliza un código ISO; ok=false si no es una moneda soportada.
func ParseCurrency(s string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := currencySymbols[c]
	return c, ok
}

// Symbol símbolo de presentación ("€", "$", "CHF"...).
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatMoney formatea un monto en en-US con exactamente 2 decimales y el símbolo de la moneda.
// Ej: EUR 100 → "€100.00", USD 1234.5 → "$1,234.50". Parte entera y decimales salen del
// decimal, sin pasar por float64.
func FormatMoney(c Currency, amount decimal.Decimal) string {
	whole, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	return c.Symbol() + groupThousands(whole) + "." + frac
}

// groupThousands agrupa la parte entera con el separador en-US. Más allá de int64 agrupa
// a mano de a tres dígitos.
func groupThousands(whole string) string {
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		return moneyPrinter.Sprint(number.Decimal(n))
	}
	sign := ""
	if strings.HasPrefix(whole, "-") {
		sign, whole = "-", whole[1:]
	}
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
