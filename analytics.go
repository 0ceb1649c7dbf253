package diary

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/etnz/diary/date"
	"gonum.org/v1/gonum/stat"
)

// Realization is a profit realized on a given day by a trade, either its
// single exit or one of its closures.
type Realization struct {
	Trade  *Trade
	Date   date.Date
	Profit Money
}

// Realizations lists what t realized: its exit when set, otherwise each closure.
func (e *Engine) Realizations(t *Trade) ([]Realization, error) {
	p := t.Position
	if p.HasExit() {
		profit, _, err := e.PositionProfit(p)
		if err != nil {
			return nil, err
		}
		return []Realization{{Trade: t, Date: p.ExitDate, Profit: profit}}, nil
	}
	var out []Realization
	for _, c := range t.Closures {
		profit, err := e.ClosureProfit(p, c)
		if err != nil {
			return nil, err
		}
		out = append(out, Realization{Trade: t, Date: c.Date, Profit: profit})
	}
	return out, nil
}

// RealizedProfit is the profit of a realized trade: its single exit profit,
// or the aggregate of its closures once they cover the whole quantity.
func (e *Engine) RealizedProfit(t Trade) (Money, bool, error) {
	switch {
	case t.Position.HasExit():
		return e.PositionProfit(t.Position)
	case len(t.Closures) > 0 && t.IsFullyClosed():
		profit, err := e.AggregateProfit(t)
		return profit, err == nil, err
	}
	return Money{}, false, nil
}

// Summary gathers headline statistics over a set of trades.
type Summary struct {
	Range         date.Range
	TotalTrades   int
	ClosedTrades  int
	WinningTrades int
	WinRate       Percent
	TotalProfit   Money
	MeanProfit    Money
	StdDevProfit  Money
}

// inRange reports whether d is in r, an empty range containing every date.
func inRange(r date.Range, d date.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// currencyOf returns the common currency of trades.
func currencyOf(trades []Trade) (string, error) {
	cur := ""
	for _, t := range trades {
		c := t.Position.Currency()
		if cur == "" {
			cur = c
		} else if c != "" && c != cur {
			return "", fmt.Errorf("cannot aggregate trades in %s and %s", cur, c)
		}
	}
	return cur, nil
}

// Summarize counts trades dated in r (realized trades by realization date,
// others by entry date) and describes the distribution of realized profits.
func (e *Engine) Summarize(trades []Trade, r date.Range) (Summary, error) {
	cur, err := currencyOf(trades)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Range:        r,
		WinRate:      P(0),
		TotalProfit:  M(0, cur),
		MeanProfit:   M(0, cur),
		StdDevProfit: M(0, cur),
	}
	var profits []float64
	for _, t := range trades {
		on := t.Position.EntryDate
		if t.IsRealized() {
			on = t.RealizedOn()
		}
		if !inRange(r, on) {
			continue
		}
		s.TotalTrades++
		profit, ok, err := e.RealizedProfit(t)
		if err != nil {
			return Summary{}, fmt.Errorf("position %s: %w", t.Position.ID, err)
		}
		if !ok {
			continue
		}
		s.ClosedTrades++
		if profit.IsPositive() {
			s.WinningTrades++
		}
		s.TotalProfit = s.TotalProfit.Add(profit)
		profits = append(profits, profit.Decimal().InexactFloat64())
	}
	if s.ClosedTrades == 0 {
		return s, nil
	}
	s.WinRate = P(Round2(newDecimal(s.WinningTrades * 100).Div(newDecimal(s.ClosedTrades))))
	s.MeanProfit = M(s.TotalProfit.Decimal().Div(newDecimal(s.ClosedTrades)), cur).Round2()
	if len(profits) > 1 {
		sd, err := Round2Float(stat.StdDev(profits, nil))
		if err != nil {
			return Summary{}, err
		}
		s.StdDevProfit = M(sd, cur)
	}
	return s, nil
}

// PeriodProfit is the profit realized during one standard period.
type PeriodProfit struct {
	Range  date.Range
	Period date.Period
	Profit Money
	Trades int
}

// Label identifies the period, e.g. 2024-01 for a month or 2024-Q1 for a quarter.
func (m PeriodProfit) Label() string { return m.Range.Identifier(m.Period) }

// MonthlyProfit is ProfitByPeriod over months.
func (e *Engine) MonthlyProfit(trades []Trade, r date.Range) ([]PeriodProfit, error) {
	return e.ProfitByPeriod(trades, r, date.Monthly)
}

// ProfitByPeriod returns every period intersecting r, in order, with the
// profit realized in it. Periods without realization are listed with a zero
// profit.
func (e *Engine) ProfitByPeriod(trades []Trade, r date.Range, period date.Period) ([]PeriodProfit, error) {
	cur, err := currencyOf(trades)
	if err != nil {
		return nil, err
	}
	var months []PeriodProfit
	index := make(map[string]int)
	for m := range r.Periods(period) {
		index[m.Identifier(period)] = len(months)
		months = append(months, PeriodProfit{Range: m, Period: period, Profit: M(0, cur)})
	}
	for i := range trades {
		realized, err := e.Realizations(&trades[i])
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", trades[i].Position.ID, err)
		}
		seen := make(map[int]bool)
		for _, z := range realized {
			if !r.Contains(z.Date) {
				continue
			}
			j := index[date.NewRange(z.Date, period).Identifier(period)]
			months[j].Profit = months[j].Profit.Add(z.Profit)
			if !seen[j] {
				seen[j] = true
				months[j].Trades++
			}
		}
	}
	return months, nil
}

// SymbolProfit is the realized profit of all trades on one symbol.
type SymbolProfit struct {
	Symbol string
	Trades int
	Profit Money
}

// ProfitBySymbol groups realized profit by symbol, most profitable first.
// Symbols that realized nothing are left out.
func (e *Engine) ProfitBySymbol(trades []Trade) ([]SymbolProfit, error) {
	cur, err := currencyOf(trades)
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string]*SymbolProfit)
	realized := make(map[string]bool)
	for i := range trades {
		t := &trades[i]
		s, ok := bySymbol[t.Position.Symbol]
		if !ok {
			s = &SymbolProfit{Symbol: t.Position.Symbol, Profit: M(0, cur)}
			bySymbol[t.Position.Symbol] = s
		}
		s.Trades++
		list, err := e.Realizations(t)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", t.Position.ID, err)
		}
		for _, z := range list {
			s.Profit = s.Profit.Add(z.Profit)
			realized[s.Symbol] = true
		}
	}
	var out []SymbolProfit
	for sym, s := range bySymbol {
		if realized[sym] {
			out = append(out, *s)
		}
	}
	slices.SortFunc(out, func(a, b SymbolProfit) int {
		if c := b.Profit.Decimal().Cmp(a.Profit.Decimal()); c != 0 {
			return c
		}
		return cmp.Compare(a.Symbol, b.Symbol)
	})
	return out, nil
}

// Impact is the borrowing burden of the positions still open.
type Impact struct {
	AsOf           date.Date
	OpenTrades     int
	TotalInvested  Money
	DailyInterest  Money
	InterestToDate Money
}

// RateImpact sums the cost and the interest accrued until asOf of every open position.
func (e *Engine) RateImpact(trades []Trade, asOf date.Date) (Impact, error) {
	cur, err := currencyOf(trades)
	if err != nil {
		return Impact{}, err
	}
	im := Impact{AsOf: asOf, TotalInvested: M(0, cur), DailyInterest: M(0, cur), InterestToDate: M(0, cur)}
	for _, t := range trades {
		if !isOpen(t) {
			continue
		}
		p := t.Position
		daily, err := e.accrual.Daily(p, asOf)
		if err != nil {
			return Impact{}, fmt.Errorf("position %s: %w", p.ID, err)
		}
		total, _, err := e.accrual.Total(p, asOf)
		if err != nil {
			return Impact{}, fmt.Errorf("position %s: %w", p.ID, err)
		}
		im.OpenTrades++
		im.TotalInvested = im.TotalInvested.Add(p.TotalCost())
		im.DailyInterest = im.DailyInterest.Add(daily)
		im.InterestToDate = im.InterestToDate.Add(total)
	}
	return im, nil
}
