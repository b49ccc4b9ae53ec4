package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal parses a user-entered amount. A single comma is read as the
// decimal separator ("12,34") unless it could be a thousands separator: a
// comma alongside a dot, several commas, or exactly three digits after the
// comma ("1,000") are rejected. NaN, infinities and anything non-numeric fail
// with a ValidationError naming field.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: field, Reason: "must not be empty"}
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		if strings.Count(s, ",") > 1 || strings.Contains(s, ".") || len(s)-i-1 == 3 {
			return decimal.Zero, &ValidationError{Field: field, Reason: quote(s) + " is ambiguous; write it without thousands separators"}
		}
		s = s[:i] + "." + s[i+1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: quote(s) + " is not a finite number"}
	}
	return d, nil
}
