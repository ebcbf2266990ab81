// Package core holds the domain model for the personal-finance ledger:
// money arithmetic, month keys, cards, transactions, installment debts,
// invoices and the installment schedule rules.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in cents. All ledger arithmetic is integer cents;
// floats appear only at the display boundary.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Both dot (12.34) and comma
// (12,34) separators are accepted. Negative and zero amounts are
// rejected: amounts are always positive, direction comes from the
// transaction kind.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidAmount
	}
	// A sign, a second separator or any other non-digit rejects.
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	var cents int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > math.MaxInt64/100 {
			return 0, ErrInvalidAmount
		}
		cents = v * 100
	}
	switch {
	case len(frac) >= 2:
		cents += int64(frac[0]-'0')*10 + int64(frac[1]-'0')
		if len(frac) > 2 && frac[2] >= '5' {
			cents++
		}
	case len(frac) == 1:
		cents += int64(frac[0]-'0') * 10
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m - o. Results may be negative: the ledger allows a card
// to go over limit and surfaces it instead of correcting it.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// MulInt returns m * n.
func (m Money) MulInt(n int) Money {
	return Money{Cents: m.Cents * int64(n)}
}

// DivInt returns m / n rounded half-up. n <= 0 yields zero, not a
// panic; callers validate installment counts before dividing.
func (m Money) DivInt(n int) Money {
	if n <= 0 {
		return Money{}
	}
	return Money{Cents: (m.Cents + int64(n)/2) / int64(n)}
}

// Min returns the smaller of m and o.
func (m Money) Min(o Money) Money {
	if o.Cents < m.Cents {
		return o
	}
	return m
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Reais returns the value in reais as a float64, for display only.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// FormatBRL renders the amount as "R$ 1234.56".
func (m Money) FormatBRL() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("R$ %s%d.%02d", sign, c/100, c%100)
}
