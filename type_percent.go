package diary

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a percentage, 10 means 10%.
//
// Margin rates are annual percentages; they are kept as decimals so that a
// rate of 16.5 stays exactly 16.5 through interest computations.
type Percent struct {
	value decimal.Decimal
}

// P returns a Percent.
func P[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Percent {
	return Percent{value: newDecimal(value)}
}

// ParsePercent parses a percentage such as "16.5" or "16.5%".
func ParsePercent(s string) (Percent, error) {
	if n := len(s); n > 0 && s[n-1] == '%' {
		s = s[:n-1]
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{}, fmt.Errorf("invalid percent %q: %w", s, err)
	}
	return Percent{value: v}, nil
}

func (p Percent) Decimal() decimal.Decimal  { return p.value }
func (p Percent) Equal(q Percent) bool      { return p.value.Equal(q.value) }
func (p Percent) IsPositive() bool          { return p.value.IsPositive() }
func (p Percent) IsZero() bool              { return p.value.IsZero() }
func (p Percent) LessThan(q Percent) bool   { return p.value.LessThan(q.value) }
func (p Percent) Fraction() decimal.Decimal { return p.value.Div(hundred) }

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

// MarshalJSON writes the percentage as a plain JSON number.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.value.String()), nil
}

func (p *Percent) UnmarshalJSON(data []byte) error {
	return p.value.UnmarshalJSON(data)
}

var hundred = decimal.NewFromInt(100)
