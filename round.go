package diary

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds x to 2 decimal places, ties away from zero.
// Negative figures such as losses round away from zero too: -2.505 gives -2.51.
//
// It is applied to every currency figure the engine produces, never to the
// intermediate products that feed it.
func Round2(x decimal.Decimal) decimal.Decimal { return x.Round(2) }

// Round2Float is Round2 for figures computed in floating point (statistics).
// It fails on NaN and infinities.
func Round2Float(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "not a finite number"}
	}
	return Round2(decimal.NewFromFloat(f)), nil
}
