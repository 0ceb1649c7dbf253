package diary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/diary/date"
	"github.com/shopspring/decimal"
)

// DefaultImportPath selects the rows of a bulk import document.
const DefaultImportPath = "$.trades[*]"

// ImportError is the failure of one imported row, numbered from 1.
type ImportError struct {
	Row int
	Err error
}

func (e *ImportError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e *ImportError) Unwrap() error { return e.Err }

// ImportPositions reads positions from the rows selected by path (a JSONPath
// expression, DefaultImportPath when empty) in a JSON document.
//
// A row is an object with symbol, entryPrice, quantity, marginRate (or
// marginAmount), entryDate and optional exitDate, exitPrice and notes.
// Numbers may be given as JSON numbers or strings. Valid rows are returned
// even when other rows fail; the failures are joined in the error, one
// *ImportError per row.
func ImportPositions(r io.Reader, path, currency string) ([]Position, error) {
	if path == "" {
		path = DefaultImportPath
	}
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse import document: %w", err)
	}
	selected, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("cannot select %q: %w", path, err)
	}
	rows, ok := selected.([]any)
	if !ok {
		rows = []any{selected}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows selected by %q", path)
	}

	var positions []Position
	var errs []error
	for i, row := range rows {
		p, err := importRow(row, currency)
		if err != nil {
			errs = append(errs, &ImportError{Row: i + 1, Err: err})
			continue
		}
		positions = append(positions, p)
	}
	return positions, errors.Join(errs...)
}

func importRow(row any, currency string) (Position, error) {
	obj, ok := row.(map[string]any)
	if !ok {
		return Position{}, fmt.Errorf("not an object: %v", row)
	}
	var errs []error
	field := func(keys ...string) (string, bool) {
		for _, k := range keys {
			switch v := obj[k].(type) {
			case json.Number:
				return v.String(), true
			case string:
				if s := strings.TrimSpace(v); s != "" {
					return s, true
				}
			}
		}
		return "", false
	}
	decimalField := func(name string, keys ...string) decimal.Decimal {
		s, ok := field(keys...)
		if !ok {
			errs = append(errs, invalid(name, "is required"))
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, &ValidationError{Field: name, Reason: "not a number", Err: err})
		}
		return d
	}
	dateField := func(name string, required bool, keys ...string) date.Date {
		s, ok := field(keys...)
		if !ok {
			if required {
				errs = append(errs, invalid(name, "is required"))
			}
			return date.Date{}
		}
		d, err := date.Parse(s)
		if err != nil {
			errs = append(errs, &ValidationError{Field: name, Reason: "not a date", Err: err})
		}
		return d
	}

	symbol, _ := field("symbol")
	p := Position{
		Symbol:     symbol,
		EntryPrice: M(decimalField("entry price", "entryPrice"), currency),
		EntryDate:  dateField("entry date", true, "entryDate"),
		MarginRate: P(decimalField("margin rate", "marginRate", "marginAmount")),
		ExitDate:   dateField("exit date", false, "exitDate"),
	}
	p.Notes, _ = field("notes")
	qty := decimalField("quantity", "quantity")
	if !qty.IsInteger() {
		errs = append(errs, invalid("quantity", "must be a whole number"))
	}
	p.Quantity = Quantity(qty.IntPart())
	if s, ok := field("exitPrice"); ok {
		if _, dated := field("exitDate"); !dated {
			errs = append(errs, invalid("exit price", "requires an exit date"))
		}
		price, err := ParseMoney(s, currency)
		if err != nil {
			errs = append(errs, &ValidationError{Field: "exit price", Reason: "not a number", Err: err})
		}
		p.ExitPrice = price
	}
	if err := errors.Join(errs...); err != nil {
		return Position{}, err
	}
	p = p.Normalize()
	return p, p.Validate()
}
