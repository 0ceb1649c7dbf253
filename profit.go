package diary

// PositionProfit is (exit − entry) × quantity − interest from entry to exit.
//
// ok is false, with a nil error, when either exit field is missing: an open
// position has no profit yet, which is not the same as a zero profit.
func (e *Engine) PositionProfit(p Position) (profit Money, ok bool, err error) {
	if err := p.Validate(); err != nil {
		return Money{}, false, err
	}
	if !p.HasExit() {
		return Money{}, false, nil
	}
	interest, _, err := e.accrual.Total(p, p.ExitDate)
	if err != nil {
		return Money{}, false, err
	}
	gross := p.ExitPrice.Sub(p.EntryPrice).Times(p.Quantity)
	return gross.Sub(interest).Round2(), true, nil
}

// allocated is the unrounded share of the interest accrued until c.Date that
// c carries, pro rata of the closed quantity.
func (e *Engine) allocated(p Position, c Closure) (Money, error) {
	total, _, err := e.accrual.Total(p, c.Date)
	if err != nil {
		return Money{}, err
	}
	return total.Mul(c.Quantity.Ratio(p.Quantity)), nil
}

// ClosureInterest is the interest allocated to c, rounded.
func (e *Engine) ClosureInterest(p Position, c Closure) (Money, error) {
	if err := e.check(p, c); err != nil {
		return Money{}, err
	}
	a, err := e.allocated(p, c)
	if err != nil {
		return Money{}, err
	}
	return a.Round2(), nil
}

// ClosureProfit is (c.Price − entry) × c.Quantity minus the interest accrued
// from entry to c.Date scaled by c.Quantity / p.Quantity, rounded.
func (e *Engine) ClosureProfit(p Position, c Closure) (Money, error) {
	if err := e.check(p, c); err != nil {
		return Money{}, err
	}
	a, err := e.allocated(p, c)
	if err != nil {
		return Money{}, err
	}
	gross := c.Price.Sub(p.EntryPrice).Times(c.Quantity)
	return gross.Sub(a).Round2(), nil
}

// AggregateProfit sums the rounded profit of every closure of t.
func (e *Engine) AggregateProfit(t Trade) (Money, error) {
	sum := M(0, t.Position.Currency())
	for _, c := range t.Closures {
		profit, err := e.ClosureProfit(t.Position, c)
		if err != nil {
			return Money{}, err
		}
		sum = sum.Add(profit)
	}
	return sum, nil
}

// check validates a single closure in isolation, conservation aside.
func (e *Engine) check(p Position, c Closure) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := (Trade{Position: p}).ValidateClose(c.Quantity); err != nil {
		return err
	}
	return c.validate(p)
}
