// Package format renders prices for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FmtCurrency formats an amount in major units.
// Example: FmtCurrency(decimal.NewFromInt(120000), "INR") => "₹1,20,000"
func FmtCurrency(amount decimal.Decimal, currency string) string {
	switch strings.ToUpper(currency) {
	case "INR":
		r := amount.Abs().Round(3)
		return withSign(amount, "₹", indianGroup(r.Truncate(0).String())+fraction(r))
	case "JPY":
		return withSign(amount, "¥", thousandSep(amount.Abs().Round(0).String()))
	case "USD":
		s := amount.Abs().StringFixed(2)
		head, tail, _ := strings.Cut(s, ".")
		return withSign(amount, "$", thousandSep(head)+"."+tail)
	default:
		return strings.ToUpper(currency) + " " + amount.String()
	}
}

// PriceLabel turns a raw card price into the label stored on a cart line.
// Numeric input is shown in rupees; anything else, and zero, is returned as given.
func PriceLabel(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, raw)
	n, err := decimal.NewFromString(digits)
	if err != nil || n.IsZero() {
		return raw
	}
	return FmtCurrency(n, "INR")
}

func withSign(amount decimal.Decimal, symbol, body string) string {
	if amount.IsNegative() {
		return "-" + symbol + body
	}
	return symbol + body
}

// fraction returns the fractional digits of a non-negative amount as ".ddd" without trailing zeros.
func fraction(amount decimal.Decimal) string {
	frac := amount.Sub(amount.Truncate(0))
	if frac.IsZero() {
		return ""
	}
	return strings.TrimPrefix(strings.TrimRight(frac.String(), "0"), "0")
}

func thousandSep(s string) string {
	var b strings.Builder
	for i, c := range s {
		if i != 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String()
}

// indianGroup groups the last three digits, then every two: 12345678 => 1,23,45,678.
func indianGroup(s string) string {
	if len(s) <= 3 {
		return s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	for i, c := range head {
		if i != 0 && (len(head)-i)%2 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return b.String() + "," + tail
}
