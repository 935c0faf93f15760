package render

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice formats amount in the site currency. Unknown currency codes fall back to USD.
func FormatPrice(amount float64, s Settings) string {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(s.Currency)))
	if err != nil {
		unit = currency.USD
	}
	tag := language.English
	if locale := strings.TrimSpace(s.Locale); locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			tag = parsed
		}
	}
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(amount)))
}
