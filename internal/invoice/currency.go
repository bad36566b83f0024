package invoice

import "github.com/shopspring/decimal"

// currencySymbols maps the currency codes the editor offers to their display
// symbols. Codes missing here fall back to a literal "<CODE> " prefix so an
// unrecognized currency still renders unambiguously.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"INR": "₹",
	"JPY": "¥",
	"NGN": "₦",
}

// CurrencyOption describes one selectable currency for the editor.
type CurrencyOption struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Label  string `json:"label"`
}

// CurrencyOptions returns the supported currency table in a stable order.
func CurrencyOptions() []CurrencyOption {
	codes := []string{"AUD", "CAD", "EUR", "GBP", "INR", "JPY", "NGN", "USD"}
	out := make([]CurrencyOption, 0, len(codes))
	for _, code := range codes {
		out = append(out, CurrencyOption{
			Code:   code,
			Symbol: currencySymbols[code],
			Label:  code + " (" + currencySymbols[code] + ")",
		})
	}
	return out
}

// CurrencySymbol returns the symbol for a code, or "<CODE> " when unknown.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return code + " "
}

// FormatMoney renders an amount for display: symbol prefix plus the amount
// rounded to cents, half away from zero. Rounding happens only here; the
// totals engine carries full precision.
func FormatMoney(amount float64, code string) string {
	// safeNum keeps decimal.NewFromFloat from panicking on non-finite input.
	d := decimal.NewFromFloat(safeNum(amount))
	return CurrencySymbol(code) + d.StringFixed(2)
}

// RoundCents returns the amount rounded to 2 decimal places, half away from
// zero, as presentation layers display it.
func RoundCents(amount float64) float64 {
	f, _ := decimal.NewFromFloat(safeNum(amount)).Round(2).Float64()
	return f
}
