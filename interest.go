package diary

import (
	"github.com/etnz/diary/date"
	"github.com/shopspring/decimal"
)

var daysPerYear = decimal.NewFromInt(365)

// DailyInterest is the flat borrowing cost of one day:
// totalCost × rate / 100 / 365, rounded to 2 decimals.
func DailyInterest(totalCost Money, rate Percent) (Money, error) {
	if totalCost.IsNegative() {
		return Money{}, invalid("total cost", "must not be negative")
	}
	if !rate.IsPositive() {
		return Money{}, invalid("margin rate", "must be positive")
	}
	if totalCost.IsZero() {
		return M(0, totalCost.Currency()), nil
	}
	daily := totalCost.value.Mul(rate.Fraction()).Div(daysPerYear)
	return Money{value: Round2(daily), cur: totalCost.cur}, nil
}

// TotalInterest is daily × whole days from entry to end, rounded.
//
// ok is false when end is absent. Same-day and end-before-entry accrue nothing.
func TotalInterest(daily Money, entry, end date.Date) (total Money, ok bool) {
	if end.IsZero() {
		return Money{}, false
	}
	days := date.DaysBetween(entry, end)
	if days <= 0 {
		return M(0, daily.Currency()), true
	}
	return daily.Times(Quantity(days)).Round2(), true
}

// InterestDay is the interest charged on one calendar day.
type InterestDay struct {
	Date   date.Date
	Amount Money
}

func (d InterestDay) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", d.Date)
	w.Append("amount", d.Amount)
	return w.MarshalJSON()
}

// DailyInterestSeries lists one entry per calendar day from entry to end, both
// included, each carrying the flat daily amount.
//
// The series has one more entry than the number of days TotalInterest
// charges for: it is a calendar of the holding period, not a ledger.
func DailyInterestSeries(entry, end date.Date, daily Money) []InterestDay {
	var series []InterestDay
	for d := range date.Days(entry, end) {
		series = append(series, InterestDay{Date: d, Amount: daily})
	}
	return series
}

// Accrual computes the borrowing cost of a position.
type Accrual interface {
	// Daily returns the interest charged for the given day.
	Daily(p Position, on date.Date) (Money, error)
	// Total returns the interest accrued from the entry date to end.
	Total(p Position, end date.Date) (Money, bool, error)
	// Series returns the per-day interest from entry date to end, both included.
	Series(p Position, end date.Date) ([]InterestDay, error)
}

// FlatRate charges the position's current margin rate over the whole
// holding period, including days accrued before the rate was last changed.
type FlatRate struct{}

func (FlatRate) Daily(p Position, _ date.Date) (Money, error) {
	return DailyInterest(p.TotalCost(), p.MarginRate)
}

func (f FlatRate) Total(p Position, end date.Date) (Money, bool, error) {
	daily, err := f.Daily(p, p.EntryDate)
	if err != nil {
		return Money{}, false, err
	}
	total, ok := TotalInterest(daily, p.EntryDate, end)
	return total, ok, nil
}

func (f FlatRate) Series(p Position, end date.Date) ([]InterestDay, error) {
	daily, err := f.Daily(p, p.EntryDate)
	if err != nil {
		return nil, err
	}
	return DailyInterestSeries(p.EntryDate, end, daily), nil
}
