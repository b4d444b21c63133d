// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals. Parsing accepts both dot and comma
// separators and rounds half-up to two places.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two places. Zero is allowed; signs, exponents and stray characters
// are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	digits := 0
	for _, r := range s {
		if r == '.' {
			continue
		}
		if !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
		digits++
	}
	if digits == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(strings.TrimSuffix(s, "."))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with two decimals, e.g. "1100.00".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatRupees renders an amount for customer-facing output, e.g. "RS.1100.00".
func FormatRupees(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-RS." + d.Neg().StringFixed(2)
	}
	return "RS." + d.StringFixed(2)
}
