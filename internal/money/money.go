// Package money implements exact decimal currency amounts held as scaled
// integers (centavos). Balances may go negative; positivity of individual
// ledger amounts is enforced at the entry boundary, not here.
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidAmount reports an unparseable decimal amount.
var ErrInvalidAmount = errors.New("money: invalid amount")

// Money is a currency amount in minor units.
type Money struct {
	Cents int64
}

// Zero is the additive identity.
var Zero = Money{}

// FromCents wraps a raw minor-unit value.
func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m − other. The result may be negative.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Cmp compares two amounts: -1 when m < other, 0 when equal, 1 when greater.
func (m Money) Cmp(other Money) int {
	switch {
	case m.Cents < other.Cents:
		return -1
	case m.Cents > other.Cents:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether the amount equals zero.
func (m Money) IsZero() bool {
	return m.Cents == 0
}

// Positive reports whether the amount is strictly greater than zero.
func (m Money) Positive() bool {
	return m.Cents > 0
}

// Sum folds a sequence of amounts. An empty sequence sums to Zero.
func Sum(values ...Money) Money {
	var total Money
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// String renders the amount as an exact two-decimal string, e.g. "1234.56".
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// MarshalJSON encodes the amount as an exact decimal JSON number. The value
// is written digit by digit, never through float64.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both a bare decimal number and a quoted string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseDecimal converts a decimal string into Money with half-up rounding on
// the third decimal place. Both dot and comma decimal separators are accepted,
// including the thousands form "1.234,56"; negative values are allowed and
// callers that require positive amounts check afterwards.
func ParseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		// Decimal comma: any dots are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	negative := false
	switch {
	case strings.HasPrefix(s, "-"):
		negative = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Zero, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return Zero, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return Zero, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return Zero, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Zero, ErrInvalidAmount
	}

	// Two fractional digits, half-up rounding on the third.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := iv*100 + frac
	if negative {
		cents = -cents
	}
	return Money{Cents: cents}, nil
}
