package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"nothsreports/internal/catalog"
)

var currencySymbols = map[string]string{
	"GBP": "£",
	"EUR": "€",
	"USD": "$",
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"count": Count,
		"price": Price,
		"lower": strings.ToLower,
		"first": catalog.IndexLetter,
		"add":   func(a, b int) int { return a + b },
	}
}

// Count formats integers with thousands separators. Strings are parsed
// first so legacy "12,345" values survive unchanged.
func Count(v any) string {
	switch t := v.(type) {
	case int:
		return catalog.FormatCount(t)
	case int64:
		return catalog.FormatCount(int(t))
	case float64:
		return catalog.FormatCount(int(t))
	case string:
		return catalog.FormatCount(catalog.ParseCount(t))
	case nil:
		return "0"
	default:
		return fmt.Sprint(t)
	}
}

// Price formats an amount to two decimal places prefixed with the currency
// symbol. Unknown currencies are appended as a code; unparsable amounts are
// returned as given.
func Price(amount, currency string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return ""
	}
	d, err := decimal.NewFromString(strings.TrimLeft(strings.ReplaceAll(amount, ",", ""), "£€$"))
	if err != nil {
		return amount
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "GBP"
	}
	if sym, ok := currencySymbols[currency]; ok {
		return sym + d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + currency
}
