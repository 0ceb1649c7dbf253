package diary

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/etnz/diary/date"
)

// MaxSymbolLength is the longest ticker a position accepts.
const MaxSymbolLength = 10

// Position is a margin trade: units of a symbol bought at an entry price with
// borrowed money charged at an annual margin rate.
//
// Entry terms are immutable once the position is created. Exit terms are
// optional: a zero ExitPrice or ExitDate means the value is absent.
type Position struct {
	ID         string
	Symbol     string
	EntryPrice Money
	Quantity   Quantity
	EntryDate  date.Date
	MarginRate Percent
	ExitPrice  Money
	ExitDate   date.Date
	Notes      string
}

// NewPosition returns a validated position with a normalized symbol.
func NewPosition(symbol string, entryPrice Money, quantity Quantity, entryDate date.Date, rate Percent) (Position, error) {
	p := Position{
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Quantity:   quantity,
		EntryDate:  entryDate,
		MarginRate: rate,
	}
	p = p.Normalize()
	return p, p.Validate()
}

// Normalize upper-cases and trims the symbol.
func (p Position) Normalize() Position {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	return p
}

// Currency is the currency of the entry price.
func (p Position) Currency() string { return p.EntryPrice.Currency() }

// HasExitPrice reports whether an exit price is recorded.
func (p Position) HasExitPrice() bool { return p.ExitPrice != (Money{}) }

// HasExitDate reports whether an exit date is recorded.
func (p Position) HasExitDate() bool { return !p.ExitDate.IsZero() }

// HasExit reports whether the single exit model is in use (both exit fields present).
func (p Position) HasExit() bool { return p.HasExitPrice() && p.HasExitDate() }

// WithExit returns a copy of p with the exit terms set.
func (p Position) WithExit(price Money, on date.Date) Position {
	p.ExitPrice, p.ExitDate = price, on
	return p
}

// WithRate returns a copy of p with a new margin rate.
//
// The rate applies to the whole holding period, including days already accrued.
func (p Position) WithRate(rate Percent) Position {
	p.MarginRate = rate
	return p
}

// TotalCost is the amount borrowed: entry price times quantity, rounded.
func (p Position) TotalCost() Money { return p.EntryPrice.Times(p.Quantity).Round2() }

// Validate checks every field and reports all failures at once.
func (p Position) Validate() error {
	var errs []error
	switch {
	case p.Symbol == "":
		errs = append(errs, invalid("symbol", "must not be empty"))
	case utf8.RuneCountInString(p.Symbol) > MaxSymbolLength:
		errs = append(errs, invalid("symbol", "must be at most 10 characters"))
	}
	if !p.EntryPrice.IsPositive() {
		errs = append(errs, invalid("entry price", "must be positive"))
	}
	if p.Quantity < 1 {
		errs = append(errs, invalid("quantity", "must be at least 1"))
	}
	if p.EntryDate.IsZero() {
		errs = append(errs, invalid("entry date", "is required"))
	}
	if !p.MarginRate.IsPositive() {
		errs = append(errs, invalid("margin rate", "must be positive"))
	}
	if p.HasExitPrice() {
		if !p.ExitPrice.IsPositive() {
			errs = append(errs, invalid("exit price", "must be positive"))
		}
		if !sameCurrency(p.EntryPrice, p.ExitPrice) {
			errs = append(errs, invalid("exit price", "currency differs from entry price"))
		}
	}
	if p.HasExitDate() && !p.EntryDate.IsZero() && p.ExitDate.Before(p.EntryDate) {
		errs = append(errs, invalid("exit date", "is before entry date"))
	}
	return errors.Join(errs...)
}

func (p Position) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", p.ID)
	w.Append("symbol", p.Symbol)
	w.Append("entryPrice", p.EntryPrice)
	w.Append("quantity", p.Quantity)
	w.Append("entryDate", p.EntryDate)
	w.Append("marginRate", p.MarginRate)
	if p.HasExitPrice() {
		w.Append("exitPrice", p.ExitPrice)
	}
	w.Optional("exitDate", p.ExitDate)
	w.Optional("notes", p.Notes)
	return w.MarshalJSON()
}

func (p *Position) UnmarshalJSON(data []byte) error {
	var tmp struct {
		ID         string    `json:"id"`
		Symbol     string    `json:"symbol"`
		EntryPrice Money     `json:"entryPrice"`
		Quantity   Quantity  `json:"quantity"`
		EntryDate  date.Date `json:"entryDate"`
		MarginRate Percent   `json:"marginRate"`
		ExitPrice  *Money    `json:"exitPrice"`
		ExitDate   date.Date `json:"exitDate"`
		Notes      string    `json:"notes"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*p = Position{
		ID:         tmp.ID,
		Symbol:     tmp.Symbol,
		EntryPrice: tmp.EntryPrice,
		Quantity:   tmp.Quantity,
		EntryDate:  tmp.EntryDate,
		MarginRate: tmp.MarginRate,
		ExitDate:   tmp.ExitDate,
		Notes:      tmp.Notes,
	}
	if tmp.ExitPrice != nil {
		p.ExitPrice = tmp.ExitPrice.In(tmp.EntryPrice.Currency())
	}
	return nil
}
