// Package money provides a fixed-point currency amount.
package money

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a currency value in minor units (1/100 of the unit).
// JSON encodes it as a decimal number with two fractional digits.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// MaxAmount is the largest single amount accepted on input (NUMERIC(10,2)).
const MaxAmount Amount = 99_999_999_99

// ErrOverflow is returned when a value or a sum leaves the int64 range.
var ErrOverflow = errors.New("amount out of range")

var errPrecision = errors.New("amount supports at most two decimal places")

// FromCents builds an Amount from minor units.
func FromCents(c int64) Amount { return Amount(c) }

// FromUnits builds an Amount from whole units.
func FromUnits(u int64) Amount { return Amount(u * 100) }

// Cents returns the amount in minor units.
func (a Amount) Cents() int64 { return int64(a) }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a < 0 }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a > 0 }

// String formats the amount as "-12.50".
func (a Amount) String() string {
	c := int64(a)
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// Parse reads a decimal string such as "200", "200.5" or "-12.25".
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && (!hasFrac || frac == "") || !digits(whole) || !digits(frac) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		if strings.TrimRight(frac[2:], "0") != "" {
			return 0, errPrecision
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	var units int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid amount %q", s)
		}
		units = n
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}

	if units > (math.MaxInt64-cents)/100 {
		return 0, fmt.Errorf("%w: %q", ErrOverflow, s)
	}
	total := units*100 + cents
	if neg {
		total = -total
	}
	return Amount(total), nil
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON renders the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", s)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Add returns a+b, or ErrOverflow when the result does not fit.
func Add(a, b Amount) (Amount, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b, or ErrOverflow when the result does not fit.
func Sub(a, b Amount) (Amount, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// Sum adds all amounts and fails instead of wrapping.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, x := range amounts {
		var err error
		if total, err = Add(total, x); err != nil {
			return 0, err
		}
	}
	return total, nil
}
