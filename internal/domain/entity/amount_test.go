package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/slipstream/internal/domain/entity"
)

func TestSanitizeAmount(t *testing.T) {
	cases := map[string]string{
		"12,5":      "12.5",
		"1.234":     "1.23",
		"100.00":    "100.00",
		"1.2.3":     "1.23",
		"$ 1 000,9": "1000.9",
		"abc":       "",
		"":          "",
		".5":        ".5",
		"7.":        "7.",
		"-3":        "3",
	}
	for in, want := range cases {
		assert.Equal(t, want, entity.SanitizeAmount(in), "entrada %q", in)
	}
}

func TestParseAmount_NoInterpretableAportaCero(t *testing.T) {
	assert.True(t, entity.ParseAmount("abc").IsZero())
	assert.True(t, entity.ParseAmount("").IsZero())
	assert.True(t, entity.ParseAmount("-5").IsZero())
	assert.True(t, decimal.RequireFromString("12.5").Equal(entity.ParseAmount("12.5")))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234.50", entity.FormatAmount("1234.5"))
	assert.Equal(t, "0.00", entity.FormatAmount("0"))
	assert.Equal(t, "", entity.FormatAmount("abc"))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "€100.00", entity.FormatMoney(entity.CurrencyEUR, decimal.NewFromInt(100)))
	assert.Equal(t, "$1,234.50", entity.FormatMoney(entity.CurrencyUSD, decimal.RequireFromString("1234.5")))
	assert.Equal(t, "CHF0.00", entity.FormatMoney(entity.CurrencyCHF, decimal.Zero))
	assert.Equal(t, "R$9.99", entity.FormatMoney(entity.CurrencyBRL, decimal.RequireFromString("9.99")))
	assert.Equal(t, "$0.01", entity.FormatMoney(entity.CurrencyUSD, decimal.RequireFromString("0.005")))
}

func TestFormatMoney_MontosGrandesSinDerivaDeFloat(t *testing.T) {
	cases := map[string]string{
		"90071992547409.93":       "$90,071,992,547,409.93",
		"12345678901234567.89":    "$12,345,678,901,234,567.89",
		"123456789012345678901.5": "$123,456,789,012,345,678,901.50",
		"999.999":                 "$1,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, entity.FormatMoney(entity.CurrencyUSD, decimal.RequireFromString(in)), in)
	}
}

func TestParseCurrency(t *testing.T) {
	c, ok := entity.ParseCurrency("eur")
	assert.True(t, ok)
	assert.Equal(t, entity.CurrencyEUR, c)

	_, ok = entity.ParseCurrency("JPY")
	assert.False(t, ok)
	assert.Len(t, entity.Currencies(), 6)
}
