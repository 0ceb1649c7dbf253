package diary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/diary/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// CommandType is a typed string for identifying journal entries.
type CommandType string

// Command types used for identifying journal entries.
const (
	CmdOpen   CommandType = "open"
	CmdClose  CommandType = "close"
	CmdExit   CommandType = "exit"
	CmdRate   CommandType = "rate"
	CmdDelete CommandType = "delete"
)

// Entry is one line of the journal. The journal is append-only: history is
// only ever changed by appending a new entry.
type Entry interface {
	What() CommandType // What returns the command type of the entry (e.g., "open", "close").
	When() date.Date   // When returns the date on which the entry occurred.
}

type baseCmd struct {
	Command CommandType `json:"command"`
	Date    date.Date   `json:"date"`
	Memo    string      `json:"memo,omitempty"`
}

func (t baseCmd) What() CommandType { return t.Command }
func (t baseCmd) When() date.Date   { return t.Date }

// OpenEntry records a new position; its date is the entry date.
type OpenEntry struct {
	baseCmd
	ID       string          `json:"id"`
	Symbol   string          `json:"symbol"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
	Rate     decimal.Decimal `json:"rate"`
}

func NewOpenEntry(p Position) OpenEntry {
	return OpenEntry{
		baseCmd:  baseCmd{Command: CmdOpen, Date: p.EntryDate, Memo: p.Notes},
		ID:       p.ID,
		Symbol:   p.Symbol,
		Quantity: p.Quantity,
		Price:    p.EntryPrice.Decimal(),
		Currency: p.Currency(),
		Rate:     p.MarginRate.Decimal(),
	}
}

// Position returns the position the entry opens.
func (e OpenEntry) Position() Position {
	return Position{
		ID:         e.ID,
		Symbol:     e.Symbol,
		EntryPrice: M(e.Price, e.Currency),
		Quantity:   e.Quantity,
		EntryDate:  e.Date,
		MarginRate: P(e.Rate),
		Notes:      e.Memo,
	}
}

// CloseEntry records a closure; its date is the closure date.
type CloseEntry struct {
	baseCmd
	ID       string          `json:"id"`
	Position string          `json:"position"`
	Quantity Quantity        `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func NewCloseEntry(c Closure) CloseEntry {
	return CloseEntry{
		baseCmd:  baseCmd{Command: CmdClose, Date: c.Date, Memo: c.Notes},
		ID:       c.ID,
		Position: c.PositionID,
		Quantity: c.Quantity,
		Price:    c.Price.Decimal(),
	}
}

// Closure returns the closure, priced in the given currency.
func (e CloseEntry) Closure(currency string) Closure {
	return Closure{
		ID:         e.ID,
		PositionID: e.Position,
		Quantity:   e.Quantity,
		Price:      M(e.Price, currency),
		Date:       e.Date,
		Notes:      e.Memo,
	}
}

// ExitEntry sets the single exit terms of a position; its date is the exit date.
type ExitEntry struct {
	baseCmd
	Position string          `json:"position"`
	Price    decimal.Decimal `json:"price"`
}

func NewExitEntry(positionID string, price Money, on date.Date) ExitEntry {
	return ExitEntry{
		baseCmd:  baseCmd{Command: CmdExit, Date: on},
		Position: positionID,
		Price:    price.Decimal(),
	}
}

// RateEntry overwrites the margin rate of one position, or of every open
// position when Position is empty.
type RateEntry struct {
	baseCmd
	Position string          `json:"position,omitempty"`
	Rate     decimal.Decimal `json:"rate"`
}

func NewRateEntry(positionID string, rate Percent, on date.Date) RateEntry {
	return RateEntry{
		baseCmd:  baseCmd{Command: CmdRate, Date: on},
		Position: positionID,
		Rate:     rate.Decimal(),
	}
}

// DeleteEntry removes a position and all its closures.
type DeleteEntry struct {
	baseCmd
	Position string `json:"position"`
}

func NewDeleteEntry(positionID string, on date.Date) DeleteEntry {
	return DeleteEntry{
		baseCmd:  baseCmd{Command: CmdDelete, Date: on},
		Position: positionID,
	}
}

// DecodeJournal replays a JSONL journal into a new Book built with opts.
//
// Each entry is validated against the state left by the previous ones, so a
// journal that was edited by hand into an inconsistent state is rejected.
func DecodeJournal(r io.Reader, opts ...BookOption) (*Book, error) {
	book := NewBook(opts...)
	sink := book.journal
	book.journal = nil
	defer func() { book.journal = sink }()

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}
		e, err := decodeEntry(lineBytes)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := book.Apply(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return book, nil
}

func decodeEntry(lineBytes []byte) (Entry, error) {
	var identifier struct {
		Command CommandType `json:"command"`
	}
	if err := json.Unmarshal(lineBytes, &identifier); err != nil {
		return nil, fmt.Errorf("could not identify command in line %q: %w", string(lineBytes), err)
	}

	var e Entry
	var err error
	switch identifier.Command {
	case CmdOpen:
		var tmp OpenEntry
		err = json.Unmarshal(lineBytes, &tmp)
		e = tmp
	case CmdClose:
		var tmp CloseEntry
		err = json.Unmarshal(lineBytes, &tmp)
		e = tmp
	case CmdExit:
		var tmp ExitEntry
		err = json.Unmarshal(lineBytes, &tmp)
		e = tmp
	case CmdRate:
		var tmp RateEntry
		err = json.Unmarshal(lineBytes, &tmp)
		e = tmp
	case CmdDelete:
		var tmp DeleteEntry
		err = json.Unmarshal(lineBytes, &tmp)
		e = tmp
	default:
		err = fmt.Errorf("unknown journal command: %q", identifier.Command)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// EncodeEntry marshals a single entry to JSON and writes it to the writer,
// followed by a newline, in JSONL format.
func EncodeEntry(w io.Writer, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal %s entry: %w", e.What(), err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write %s entry: %w", e.What(), err)
	}
	return nil
}

// EncodeJournal writes the entries that rebuild b from scratch.
func EncodeJournal(w io.Writer, b *Book) error {
	for _, e := range b.Entries() {
		if err := EncodeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}
