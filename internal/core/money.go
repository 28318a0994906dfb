// Package core holds the ledger domain model and the pure aggregation
// functions computed over it. Nothing in this package performs I/O.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact amount in cents. All arithmetic happens on the integer
// cents value so repeated additions never accumulate floating-point drift.
type Money struct {
	Cents int64
}

// centsScale shifts a decimal amount into cents.
const centsScale = 2

// ParseAmount converts a user-entered decimal string into Money. Both dot
// and comma decimal separators are accepted; anything past two decimals is
// rounded half-up. Zero and negative amounts are rejected.
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
func ParseAmount(s string) (Money, error) {
	m, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

// ParseBudgetAmount is ParseAmount with zero allowed: a zero cap means "no
// budget set" rather than a budget of nothing.
func ParseBudgetAmount(s string) (Money, error) {
	m, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if m.Cents < 0 {
		return Money{}, ErrInvalidAmount
	}
	return m, nil
}

func parseDecimal(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: d.Shift(centsScale).Round(0).IntPart()}, nil
}

// Decimal returns the amount as a two-place decimal, for display and for
// the JSON wire format.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -centsScale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(centsScale)
}

// MarshalJSON writes the amount as a plain JSON number (12.34), matching
// the snapshot blob format shared with other household devices.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string and stores the
// exact cents value, rounding half-up past two decimals.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrInvalidAmount
	}
	m.Cents = d.Shift(centsScale).Round(0).IntPart()
	return nil
}
