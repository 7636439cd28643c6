package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyBRL formats an amount the way the shop prints it on tickets.
// Example: 1234.5 -> "R$ 1.234,50"
func FormatCurrencyBRL(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	formatted := amount.StringFixed(2)
	parts := strings.SplitN(formatted, ".", 2)
	integerPart, decimalPart := parts[0], parts[1]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + "R$ " + strings.Join(groups, ".") + "," + decimalPart
}
