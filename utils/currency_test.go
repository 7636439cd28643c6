package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrencyBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"7.5", "R$ 7,50"},
		{"999.999", "R$ 1.000,00"},
		{"1234.5", "R$ 1.234,50"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"-45.1", "-R$ 45,10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrencyBRL(decimal.RequireFromString(tt.in)), tt.in)
	}
}
