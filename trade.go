package diary

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/etnz/diary/date"
)

// State is the lifecycle stage of a position. It only moves forward.
type State int

const (
	StateOpen State = iota
	StatePartiallyClosed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StatePartiallyClosed:
		return "partially-closed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

// Trade is a position together with the closures it owns, in recording order.
//
// A Trade is a value: Close returns a new Trade and leaves the receiver untouched.
type Trade struct {
	Position Position
	Closures []Closure
}

// NewTrade validates p and replays closures on it, in order.
func NewTrade(p Position, closures ...Closure) (Trade, error) {
	if err := p.Validate(); err != nil {
		return Trade{}, err
	}
	t := Trade{Position: p}
	for i, c := range closures {
		var err error
		if t, err = t.Close(c); err != nil {
			return Trade{}, fmt.Errorf("closure #%d: %w", i+1, err)
		}
	}
	return t, nil
}

// ClosedQuantity is the number of units covered by closures.
func (t Trade) ClosedQuantity() Quantity {
	var q Quantity
	for _, c := range t.Closures {
		q += c.Quantity
	}
	return q
}

// OpenQuantity is the number of units not yet covered by any closure.
func (t Trade) OpenQuantity() Quantity { return t.Position.Quantity - t.ClosedQuantity() }

// ValidateClose checks that requested units can be closed now.
//
// It is a pure function of the trade: a book appending closures concurrently
// must call it inside the same critical section as the append.
func (t Trade) ValidateClose(requested Quantity) error {
	if requested <= 0 {
		return fmt.Errorf("%w: requested %d", ErrInvalidQuantity, requested)
	}
	if open := t.OpenQuantity(); requested > open {
		return fmt.Errorf("%w: requested %d, open %d", ErrInsufficientOpenQuantity, requested, open)
	}
	return nil
}

// IsFullyClosed reports whether no unit remains open.
func (t Trade) IsFullyClosed() bool { return t.OpenQuantity() == 0 }

// State derives the lifecycle stage from the open quantity.
func (t Trade) State() State {
	switch open := t.OpenQuantity(); {
	case open <= 0:
		return StateClosed
	case open < t.Position.Quantity:
		return StatePartiallyClosed
	default:
		return StateOpen
	}
}

// Close returns a new trade with c appended, after checking c belongs to the
// position, is well formed and does not close more than the open quantity.
func (t Trade) Close(c Closure) (Trade, error) {
	if err := t.ValidateClose(c.Quantity); err != nil {
		return t, err
	}
	if err := c.validate(t.Position); err != nil {
		return t, err
	}
	return Trade{
		Position: t.Position,
		Closures: append(slices.Clip(t.Closures), c),
	}, nil
}

// LastClosureDate is the latest closure date, zero when there is no closure.
func (t Trade) LastClosureDate() date.Date {
	var last date.Date
	for _, c := range t.Closures {
		last = date.Max(last, c.Date)
	}
	return last
}

// IsRealized reports whether the trade has a realized outcome, either
// through its exit terms or by being fully closed through closures.
func (t Trade) IsRealized() bool {
	return t.Position.HasExit() || (len(t.Closures) > 0 && t.IsFullyClosed())
}

// RealizedOn is the date the trade was realized: the exit date when set,
// otherwise the last closure date. Zero for trades still running.
func (t Trade) RealizedOn() date.Date {
	switch {
	case t.Position.HasExitDate():
		return t.Position.ExitDate
	case len(t.Closures) > 0 && t.IsFullyClosed():
		return t.LastClosureDate()
	}
	return date.Date{}
}
