package shipping

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const currencySymbol = "₦"

// FormatCurrency renders an amount in naira with thousands grouping and at
// most two fraction digits.
func FormatCurrency(amount decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	return currencySymbol + p.Sprint(number.Decimal(amount.Round(2).InexactFloat64(), number.MaxFractionDigits(2)))
}
