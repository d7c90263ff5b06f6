package format

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPriceLabel(t *testing.T) {
	cases := map[string]string{
		"120000":      "₹1,20,000",
		"999":         "₹999",
		"1000":        "₹1,000",
		"12345678":    "₹1,23,45,678",
		"₹ 85,000":    "₹85,000",
		"1499.5":      "₹1,499.5",
		"10.12345":    "₹10.123",
		"0":           "0",
		"":            "",
		"Coming soon": "Coming soon",
		"-2500":       "-₹2,500",
	}
	for in, want := range cases {
		require.Equal(t, want, PriceLabel(in), in)
	}
}

func TestFmtCurrency(t *testing.T) {
	require.Equal(t, "₹1,20,000", FmtCurrency(decimal.NewFromInt(120000), "inr"))
	require.Equal(t, "¥12,345", FmtCurrency(decimal.NewFromInt(12345), "JPY"))
	require.Equal(t, "$1,234.50", FmtCurrency(decimal.RequireFromString("1234.5"), "USD"))
	require.Equal(t, "-$0.99", FmtCurrency(decimal.RequireFromString("-0.99"), "USD"))
	require.Equal(t, "EUR 10", FmtCurrency(decimal.NewFromInt(10), "eur"))
}
