package money

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultLocale   = "en-US"
	DefaultCurrency = "USD"
)

var symbols = map[currency.Unit]string{
	currency.USD: "$",
	currency.EUR: "€",
	currency.GBP: "£",
	currency.JPY: "¥",
	currency.INR: "₹",
}

// Format renders the amount for display, e.g. "$1,234.50" for en-US/USD.
// Unknown locales fall back to en-US; currencies without a known symbol are
// prefixed with their ISO code ("CHF 12.00").
func (m Money) Format(locale, currencyCode string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	prefix := currencyCode + " "
	if unit, err := currency.ParseISO(currencyCode); err == nil {
		if s, ok := symbols[unit]; ok {
			prefix = s
		} else {
			prefix = unit.String() + " "
		}
	}

	p := message.NewPrinter(tag)
	mag := uint64(m.Cents())
	if m.IsNegative() {
		mag = -mag
	}
	major, minor := mag/100, mag%100
	digits := p.Sprint(number.Decimal(major)) + decimalSeparator(p) + fmt.Sprintf("%02d", minor)

	if m.IsNegative() {
		return "-" + prefix + digits
	}
	return prefix + digits
}

// decimalSeparator returns the locale's decimal mark, "." or "," in practice.
func decimalSeparator(p *message.Printer) string {
	sample := p.Sprint(number.Decimal(15, number.Scale(1)))
	if i := strings.IndexAny(sample, ".,٫"); i >= 0 {
		_, size := utf8.DecodeRuneInString(sample[i:])
		return sample[i : i+size]
	}
	return "."
}
