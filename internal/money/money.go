// Package money provides a fixed-precision money type stored as integer cents.
//
// All arithmetic inside the ledger happens on cents, so sums and differences are
// exact. Rounding happens only where an amount is divided or scaled, and always
// uses a single rule: round half away from zero (the "half-up" rule for money).
// Floats and decimal strings are converted at the boundary with shopspring/decimal.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents (1/100 of the currency unit).
type Money int64

// Cent is the smallest representable amount and the significance threshold
// used when deciding whether a balance still needs settling.
const Cent Money = 1

// Zero is the zero amount.
const Zero Money = 0

var hundred = decimal.NewFromInt(100)

// ErrInvalidAmount is returned by Parse for malformed input.
var ErrInvalidAmount = errors.New("invalid amount")

// FromFloat converts a float to cents, rounding half away from zero.
// The float is read through its shortest decimal representation, so 33.335
// becomes 33.34 rather than whatever its binary approximation would give.
func FromFloat(f float64) Money {
	return FromDecimal(decimal.NewFromFloat(f))
}

// FromDecimal converts a decimal amount to cents, rounding half away from zero.
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

// Parse reads a decimal string such as "12.34" or "12,34".
func Parse(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d), nil
}

// Decimal returns the amount as a decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Float64 returns the amount in currency units, for display and JSON only.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with exactly two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Times multiplies by an integer count. No rounding is involved.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// Div divides by n and rounds half away from zero. n must be positive.
func (m Money) Div(n int) Money {
	return divRound(int64(m), int64(n))
}

// Scale returns m * num / den rounded half away from zero. It is used to
// prorate a share by an unpaid fraction without leaving integer arithmetic.
// den must be non-zero.
func (m Money) Scale(num, den Money) Money {
	r := m.Decimal().Mul(num.Decimal()).Div(den.Decimal())
	return FromDecimal(r)
}

// Percent returns pct percent of m rounded half away from zero.
func (m Money) Percent(pct float64) Money {
	r := m.Decimal().Mul(decimal.NewFromFloat(pct)).Div(hundred)
	return FromDecimal(r)
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// divRound performs integer division with half-away-from-zero rounding.
func divRound(num, den int64) Money {
	if den < 0 {
		num, den = -num, -den
	}
	q := num / den
	r := num % den
	if r < 0 {
		r = -r
	}
	if 2*r >= den {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return Money(q)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	*m = FromDecimal(d)
	return nil
}
