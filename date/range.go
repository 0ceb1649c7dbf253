package date

import (
	"fmt"
	"iter"
)

// Range represents a range of dates, both boundaries included.
type Range struct{ From, To Date }

// NewRange return the standard period range containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days iterates over every day of the range.
func (r Range) Days() iter.Seq[Date] { return Days(r.From, r.To) }

// Periods iterates over the consecutive standard ranges of the given period
// that intersect r, in chronological order.
func (r Range) Periods(p Period) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		if r.From.IsZero() || r.To.IsZero() {
			return
		}
		for d := r.From.StartOf(p); !d.After(r.To); d = d.EndOf(p).Add(1) {
			if !yield(NewRange(d, p)) {
				return
			}
		}
	}
}

// String returns "from..to".
func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }

// Identifier compute a short identifier for a standard period range starting at r.From.
func (r Range) Identifier(p Period) string {
	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		year, week := r.From.time().ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case Monthly:
		return r.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	case Yearly:
		return r.From.Format("2006")
	default:
		panic("unknown period")
	}
}
