package diary

import (
	"fmt"

	"github.com/etnz/diary/date"
)

// ClosureView is a closure with its allocated interest and realized profit.
type ClosureView struct {
	Closure  Closure
	Interest Money
	Profit   Money
}

func (v ClosureView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(v.Closure)
	w.Append("interest", v.Interest)
	w.Append("profit", v.Profit)
	return w.MarshalJSON()
}

// PositionView is everything derived from a position and its closures as of a date.
//
// Nothing in it is stored: it is recomputed from the inputs on every call.
type PositionView struct {
	Position Position
	AsOf     date.Date

	TotalCost     Money
	DailyInterest Money
	// TotalInterestToDate is the interest accrued from entry to InterestEnd.
	TotalInterestToDate Money
	InterestEnd         date.Date

	OpenQuantity   Quantity
	ClosedQuantity Quantity
	State          State

	Closures        []ClosureView
	AggregateProfit Money

	// FullProfit is the single-exit profit, only meaningful when HasFullProfit.
	FullProfit    Money
	HasFullProfit bool
}

// Trade returns the trade the view was computed from.
func (v PositionView) Trade() Trade {
	t := Trade{Position: v.Position}
	for _, c := range v.Closures {
		t.Closures = append(t.Closures, c.Closure)
	}
	return t
}

// ComputeView validates p and its closures then derives every figure of the
// position as of asOf.
//
// Interest to date runs until the exit date when set, until the last closure
// when closures cover the whole quantity, and until asOf otherwise.
func (e *Engine) ComputeView(p Position, closures []Closure, asOf date.Date) (PositionView, error) {
	if asOf.IsZero() {
		return PositionView{}, invalid("as-of date", "is required")
	}
	t, err := NewTrade(p, closures...)
	if err != nil {
		return PositionView{}, err
	}

	end := asOf
	switch {
	case p.HasExitDate():
		end = p.ExitDate
	case len(t.Closures) > 0 && t.IsFullyClosed():
		end = t.LastClosureDate()
	}

	v := PositionView{
		Position:       p,
		AsOf:           asOf,
		TotalCost:      p.TotalCost(),
		InterestEnd:    end,
		OpenQuantity:   t.OpenQuantity(),
		ClosedQuantity: t.ClosedQuantity(),
		State:          t.State(),
	}
	if v.DailyInterest, err = e.accrual.Daily(p, end); err != nil {
		return PositionView{}, err
	}
	if v.TotalInterestToDate, _, err = e.accrual.Total(p, end); err != nil {
		return PositionView{}, err
	}

	v.AggregateProfit = M(0, p.Currency())
	for _, c := range t.Closures {
		cv := ClosureView{Closure: c}
		if cv.Interest, err = e.ClosureInterest(p, c); err != nil {
			return PositionView{}, err
		}
		if cv.Profit, err = e.ClosureProfit(p, c); err != nil {
			return PositionView{}, err
		}
		v.AggregateProfit = v.AggregateProfit.Add(cv.Profit)
		v.Closures = append(v.Closures, cv)
	}

	if v.FullProfit, v.HasFullProfit, err = e.PositionProfit(p); err != nil {
		return PositionView{}, err
	}
	return v, nil
}

// Views computes the view of every trade as of asOf, in the order of trades.
func (e *Engine) Views(trades []Trade, asOf date.Date) ([]PositionView, error) {
	views := make([]PositionView, 0, len(trades))
	for _, t := range trades {
		v, err := e.ComputeView(t.Position, t.Closures, asOf)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", t.Position.ID, err)
		}
		views = append(views, v)
	}
	return views, nil
}

func (v PositionView) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("position", v.Position)
	w.Append("asOf", v.AsOf)
	w.Append("totalCost", v.TotalCost)
	w.Append("dailyInterest", v.DailyInterest)
	w.Append("totalInterestToDate", v.TotalInterestToDate)
	w.Append("interestEnd", v.InterestEnd)
	w.Append("openQuantity", v.OpenQuantity)
	w.Append("closedQuantity", v.ClosedQuantity)
	w.Append("state", v.State)
	w.Append("closures", v.closures())
	w.Append("aggregateProfit", v.AggregateProfit)
	if v.HasFullProfit {
		w.Append("fullProfit", v.FullProfit)
	}
	return w.MarshalJSON()
}

func (v PositionView) closures() []ClosureView {
	if v.Closures == nil {
		return []ClosureView{}
	}
	return v.Closures
}
