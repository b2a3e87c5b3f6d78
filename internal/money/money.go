// Package money represents currency amounts as integer minor units (cents).
//
// All ledger arithmetic goes through Money. Fractional inputs (entered text,
// percentages, floats from a client) are converted once, at the edge, with
// round-half-up to the nearest cent.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount is negative where that is not
// permitted, non-finite, or not a number at all.
var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in cents.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

var hundred = decimal.NewFromInt(100)

// FromCents wraps a signed cent count. Balances may be negative; use
// NonNegative for amounts that must not be.
func FromCents(cents int64) Money {
	return Money(cents)
}

// NonNegative returns the amount for cents, or ErrInvalidAmount when cents < 0.
func NonNegative(cents int64) (Money, error) {
	if cents < 0 {
		return 0, fmt.Errorf("%w: %d cents is negative", ErrInvalidAmount, cents)
	}
	return Money(cents), nil
}

// Positive returns the amount for cents, or ErrInvalidAmount when cents <= 0.
func Positive(cents int64) (Money, error) {
	if cents <= 0 {
		return 0, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}
	return Money(cents), nil
}

// FromFloat converts a major-unit value (12.34 dollars) to cents.
// NaN, infinities and negative values are rejected.
func FromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v is not a finite number", ErrInvalidAmount, v)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %v is negative", ErrInvalidAmount, v)
	}
	return fromDecimal(decimal.NewFromFloat(v))
}

// Parse reads entered currency text such as "12.5", "$1,234.56" or " 3 ".
// Currency symbols, spaces and grouping commas are ignored.
func Parse(text string) (Money, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', '₹', ',', ' ', '\t':
			return -1
		}
		return r
	}, text)
	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, text)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, text)
	}
	return fromDecimal(d)
}

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// fromDecimal rounds a major-unit decimal half away from zero to cents.
// Values outside the int64 cent range are rejected.
func fromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d)
	}
	return Money(cents.IntPart()), nil
}

// Cents returns the raw cent count.
func (m Money) Cents() int64 { return int64(m) }

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// MulRatio returns m * numerator / denominator rounded half-up (half away
// from zero for negative results). It panics on a zero denominator.
func (m Money) MulRatio(numerator, denominator int64) Money {
	if denominator == 0 {
		panic("money: zero denominator")
	}
	if denominator < 0 {
		numerator, denominator = -numerator, -denominator
	}
	product := int64(m) * numerator
	if product < 0 {
		return -Money((-product*2 + denominator) / (2 * denominator))
	}
	return Money((product*2 + denominator) / (2 * denominator))
}

// MulPercent returns m * percent / 100 rounded half-up to the cent.
func (m Money) MulPercent(percent decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(percent).Div(hundred).Round(0).IntPart())
}

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// String formats the amount as US dollars, e.g. "$4.50" or "-$4.50".
func (m Money) String() string {
	return m.Format(DefaultLocale, DefaultCurrency)
}
