package diary

import (
	"encoding/json"
	"errors"

	"github.com/etnz/diary/date"
)

// Closure is a partial or full exit of a position: some units sold at a price on a date.
type Closure struct {
	ID         string
	PositionID string
	Quantity   Quantity
	Price      Money
	Date       date.Date
	Notes      string
}

// NewClosure returns a closure of q units of the position identified by positionID.
func NewClosure(positionID string, q Quantity, price Money, on date.Date) Closure {
	return Closure{PositionID: positionID, Quantity: q, Price: price, Date: on}
}

// Proceeds is the amount received for the closed units.
func (c Closure) Proceeds() Money { return c.Price.Times(c.Quantity).Round2() }

// validate checks the closure fields against the position it closes.
// Quantity conservation is checked by the Trade.
func (c Closure) validate(p Position) error {
	var errs []error
	if c.PositionID != p.ID {
		errs = append(errs, invalid("closure", "belongs to position "+c.PositionID+" not "+p.ID))
	}
	if !c.Price.IsPositive() {
		errs = append(errs, invalid("closure price", "must be positive"))
	} else if !sameCurrency(c.Price, p.EntryPrice) {
		errs = append(errs, invalid("closure price", "currency differs from entry price"))
	}
	if c.Date.IsZero() {
		errs = append(errs, invalid("closure date", "is required"))
	} else if c.Date.Before(p.EntryDate) {
		errs = append(errs, invalid("closure date", "is before entry date"))
	}
	return errors.Join(errs...)
}

func (c Closure) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", c.ID)
	w.Optional("positionId", c.PositionID)
	w.Append("quantity", c.Quantity)
	w.Append("price", c.Price)
	w.Append("date", c.Date)
	w.Optional("notes", c.Notes)
	return w.MarshalJSON()
}

func (c *Closure) UnmarshalJSON(data []byte) error {
	var tmp struct {
		ID         string    `json:"id"`
		PositionID string    `json:"positionId"`
		Quantity   Quantity  `json:"quantity"`
		Price      Money     `json:"price"`
		Date       date.Date `json:"date"`
		Notes      string    `json:"notes"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	*c = Closure(tmp)
	return nil
}
