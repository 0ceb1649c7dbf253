package diary

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromUint64(uint64(v))
	case uint32:
		return decimal.NewFromUint64(uint64(v))
	case uint64:
		return decimal.NewFromUint64(v)
	default:
		panic("unsupported type")
	}
}

// Quantity is a number of units of a security. Margin trades are always
// expressed in whole units.
type Quantity int64

// Q returns a Quantity, it is the counterpart of M and P for units.
func Q(n int64) Quantity { return Quantity(n) }

func (q Quantity) IsPositive() bool          { return q > 0 }
func (q Quantity) Decimal() decimal.Decimal  { return decimal.NewFromInt(int64(q)) }
func (q Quantity) String() string            { return fmt.Sprintf("%d", int64(q)) }
func (q Quantity) Ratio(of Quantity) decimal.Decimal {
	return q.Decimal().Div(of.Decimal())
}
