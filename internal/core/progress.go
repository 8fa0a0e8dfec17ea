package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Progress is a part-of-whole ratio expressed in percent.
type Progress struct {
	percent decimal.Decimal
}

// NewProgress computes 100*part/whole. A non-positive whole yields zero.
func NewProgress(part, whole decimal.Decimal) Progress {
	if !whole.IsPositive() {
		return Progress{percent: decimal.Zero}
	}
	return Progress{percent: part.Mul(hundred).Div(whole)}
}

// Percent is the raw ratio; it exceeds 100 when over target.
func (p Progress) Percent() decimal.Decimal {
	return p.percent
}

// BarWidth is the percent clamped to [0, 100] so a bar never overflows.
func (p Progress) BarWidth() decimal.Decimal {
	switch {
	case p.percent.GreaterThan(hundred):
		return hundred
	case p.percent.IsNegative():
		return decimal.Zero
	default:
		return p.percent
	}
}

// Rounded is the unclamped percent rounded to the nearest integer, for labels.
func (p Progress) Rounded() int64 {
	return p.percent.Round(0).IntPart()
}

// Level buckets a budget's usage: under half, under 80% and the rest.
func (p Progress) Level() string {
	switch {
	case p.percent.LessThan(decimal.NewFromInt(50)):
		return "secondary"
	case p.percent.LessThan(decimal.NewFromInt(80)):
		return "warning"
	default:
		return "danger"
	}
}

// Ordinal formats a 1-based position with its English suffix (1st, 2nd, 11th, 23rd).
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}
