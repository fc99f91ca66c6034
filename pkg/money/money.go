// Package money provides a two-decimal currency amount backed by shopspring/decimal.
//
// Every constructor and arithmetic method rounds its result to exactly two
// fractional digits using round-half-away-from-zero, so repeated additions and
// subtractions never accumulate binary floating point drift.
package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// Places is the number of fractional digits every Money value carries.
	Places = 2

	// MaxIntegerDigits matches the NUMERIC(12,2) columns amounts are stored in.
	MaxIntegerDigits = 10

	// maxScale bounds how many fractional digits an input may spell out.
	maxScale = 32
)

var (
	ErrInvalid    = errors.New("invalid money amount")
	ErrOutOfRange = errors.New("amount out of range")
)

var (
	// Zero is the zero amount.
	Zero = Money{}

	// Tolerance is the absolute difference accepted when comparing amounts
	// that went through independent two-decimal rounding.
	Tolerance = decimal.New(1, -Places)

	hundred = decimal.NewFromInt(100)
)

// Money is an immutable amount with two fractional digits.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// FromDecimal rounds d to two places.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(Places)}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Places)}
}

// CheckRange rejects values with more than MaxIntegerDigits integer digits
// or more than 32 fractional digits. It only inspects the coefficient and
// exponent, so it never expands a value like 1e1000000000.
func CheckRange(d decimal.Decimal) error {
	if d.IsZero() {
		return nil
	}
	exp := int64(d.Exponent())
	if exp < -maxScale || int64(d.NumDigits())+exp > MaxIntegerDigits {
		return ErrOutOfRange
	}
	return nil
}

// Parse reads a decimal string such as "12.5" or "-3.333". Values outside
// CheckRange fail with both ErrInvalid and ErrOutOfRange.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	if err := CheckRange(d); err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	// 9999999999.995 only overflows once rounded
	m := FromDecimal(d)
	if err := CheckRange(m.d); err != nil {
		return Zero, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return m, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Sum adds all amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, m := range amounts {
		total = total.Add(m)
	}
	return total
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func (m Money) Add(o Money) Money { return FromDecimal(m.d.Add(o.d)) }
func (m Money) Sub(o Money) Money { return FromDecimal(m.d.Sub(o.d)) }
func (m Money) Neg() Money { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// Mul multiplies by an integer count.
func (m Money) Mul(n int64) Money {
	return FromDecimal(m.d.Mul(decimal.NewFromInt(n)))
}

// DivInt divides by n and rounds to two places. n must be non-zero.
func (m Money) DivInt(n int) Money {
	return Money{d: m.d.DivRound(decimal.NewFromInt(int64(n)), Places)}
}

// Percent returns round(m * pct / 100, 2).
func (m Money) Percent(pct decimal.Decimal) Money {
	return Money{d: m.d.Mul(pct).DivRound(hundred, Places)}
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) Sign() int { return m.d.Sign() }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

// WithinTolerance reports whether |m - d| <= 0.01. d may carry more than
// two fractional digits, e.g. an unrounded per-person share.
func (m Money) WithinTolerance(d decimal.Decimal) bool {
	return m.d.Sub(d).Abs().LessThanOrEqual(Tolerance)
}

// String renders exactly two fractional digits.
func (m Money) String() string { return m.d.StringFixed(Places) }

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted numeric string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	parsed, err := Parse(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	*m = FromDecimal(d)
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
