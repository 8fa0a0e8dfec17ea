// Package core provides money parsing and handling utilities.
//
// This file contains the decimal helpers shared by the renderers, the
// inline balance editor and the development API.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount parses a positive decimal amount typed into a form.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. A
// comma followed by a group of three digits is a thousands separator, so
// "1,234" is 1234 and "1,234.56" is 1234.56.
// Zero, negative and malformed values return ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(normalizeSeparators(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseMetricInput parses the text of an inline-edited figure.
//
// Every rune other than digits, '.', ',' and '-' is dropped first, so currency
// symbols and thousands separators typed by the user are tolerated:
//
//	ParseMetricInput("$1,234.50") -> 1234.50, nil
//	ParseMetricInput("-20")       -> -20, nil
//	ParseMetricInput("abc")       -> error
func ParseMetricInput(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(normalizeSeparators(cleaned))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators rewrites commas so decimal.NewFromString can parse s.
// With a '.' present, or when every comma opens a three-digit group, commas
// are thousands separators and dropped. A lone comma otherwise is the
// decimal mark. Anything else is left for the parser to reject.
func normalizeSeparators(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	if strings.Contains(s, ".") {
		return strings.ReplaceAll(s, ",", "")
	}
	parts := strings.Split(s, ",")
	grouped := true
	for _, p := range parts[1:] {
		if len(p) != 3 {
			grouped = false
			break
		}
	}
	switch {
	case grouped:
		return strings.Join(parts, "")
	case len(parts) == 2:
		return parts[0] + "." + parts[1]
	default:
		return s
	}
}

// FormatCurrency renders an amount as US dollars, e.g. "$1,234.56" or "-$5.00".
func FormatCurrency(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
