package diary

import (
	"fmt"

	"github.com/etnz/diary/date"
	"github.com/shopspring/decimal"
)

// RateChange is a margin rate that takes effect on a given day.
type RateChange struct {
	Effective date.Date `json:"date"`
	Rate      Percent   `json:"rate"`
}

// RateSchedule is an Accrual that tracks rate changes through time instead
// of overwriting the position's rate.
//
// A position pays its own rate until the first change effective during its
// holding period, then the latest change effective on each day. Each segment
// is charged its rounded daily interest, so an empty schedule yields exactly
// the FlatRate figures.
type RateSchedule struct {
	rates date.History[Percent]
}

// NewRateSchedule returns a schedule made of changes. A later change on the
// same day overwrites an earlier one.
func NewRateSchedule(changes ...RateChange) (*RateSchedule, error) {
	s := &RateSchedule{}
	for _, c := range changes {
		if c.Effective.IsZero() {
			return nil, invalid("rate change", "date is required")
		}
		if !c.Rate.IsPositive() {
			return nil, &ValidationError{Field: "rate change", Reason: fmt.Sprintf("rate on %s must be positive", c.Effective)}
		}
		s.rates.Append(c.Effective, c.Rate)
	}
	return s, nil
}

// Changes lists the schedule in chronological order.
func (s *RateSchedule) Changes() []RateChange {
	var changes []RateChange
	for on, r := range s.rates.Values() {
		changes = append(changes, RateChange{Effective: on, Rate: r})
	}
	return changes
}

// RateOn is the rate p pays on day d.
func (s *RateSchedule) RateOn(p Position, d date.Date) Percent {
	rate := p.MarginRate
	for _, r := range s.rates.Between(p.EntryDate, d) {
		rate = r
	}
	return rate
}

func (s *RateSchedule) Daily(p Position, on date.Date) (Money, error) {
	return DailyInterest(p.TotalCost(), s.RateOn(p, on))
}

func (s *RateSchedule) Total(p Position, end date.Date) (Money, bool, error) {
	if end.IsZero() {
		return Money{}, false, nil
	}
	if _, err := DailyInterest(p.TotalCost(), p.MarginRate); err != nil {
		return Money{}, false, err
	}
	total := M(0, p.Currency())
	if !end.After(p.EntryDate) {
		return total, true, nil
	}
	from := p.EntryDate
	flush := func(to date.Date) error {
		days := date.DaysBetween(from, to)
		if days <= 0 {
			return nil
		}
		daily, err := s.Daily(p, from)
		if err != nil {
			return err
		}
		total = total.Add(daily.Times(Quantity(days)))
		from = to
		return nil
	}
	for on := range s.rates.Between(p.EntryDate.Add(1), end.Add(-1)) {
		if err := flush(on); err != nil {
			return Money{}, false, err
		}
	}
	if err := flush(end); err != nil {
		return Money{}, false, err
	}
	return total.Round2(), true, nil
}

func (s *RateSchedule) Series(p Position, end date.Date) ([]InterestDay, error) {
	var series []InterestDay
	for d := range date.Days(p.EntryDate, end) {
		daily, err := s.Daily(p, d)
		if err != nil {
			return nil, err
		}
		series = append(series, InterestDay{Date: d, Amount: daily})
	}
	return series, nil
}

// Savings is what the latest rate cut effective during the holding period
// saved compared to the position's own rate, over the whole holding period.
// It is zero when no change applies or when the rate went up.
func (s *RateSchedule) Savings(p Position, end date.Date) (Money, error) {
	zero := M(0, p.Currency())
	if end.IsZero() || !end.After(p.EntryDate) {
		return zero, nil
	}
	current := s.RateOn(p, end)
	if !current.LessThan(p.MarginRate) {
		return zero, nil
	}
	cost := p.TotalCost().Decimal()
	diff := cost.Mul(p.MarginRate.Fraction().Sub(current.Fraction())).Div(daysPerYear)
	days := decimal.NewFromInt(int64(date.DaysBetween(p.EntryDate, end)))
	return Money{value: Round2(diff.Mul(days)), cur: p.Currency()}, nil
}
