// Package core provides the ledger domain types and their validation.
//
// This file contains parsing for monetary amounts submitted at the HTTP
// boundary. Amounts are whole minor-currency units; there is no decimal
// input and no rounding anywhere in the ledger.
package core

import (
	"strconv"
	"unicode"
)

// ParseAmount converts a positive integer string to minor currency units.
// Any sign, decimal separator, or non-digit character is rejected, as is
// zero: an entry or charge of nothing is meaningless.
func ParseAmount(s string) (Money, error) {
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return Money{}, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if v <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: v}, nil
}
