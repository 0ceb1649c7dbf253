package diary

import (
	"errors"
	"testing"
)

func TestNewPosition_Validation(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		price  Money
		qty    Quantity
		entry  string
		rate   Percent
	}{
		{name: "empty symbol", symbol: " ", price: USD(250), qty: 100, entry: "2024-01-01", rate: P(10)},
		{name: "long symbol", symbol: "ABCDEFGHIJK", price: USD(250), qty: 100, entry: "2024-01-01", rate: P(10)},
		{name: "long accented symbol", symbol: "ÉÉÉÉÉÉÉÉÉÉÉ", price: USD(250), qty: 100, entry: "2024-01-01", rate: P(10)},
		{name: "zero price", symbol: "AAPL", price: USD(0), qty: 100, entry: "2024-01-01", rate: P(10)},
		{name: "zero quantity", symbol: "AAPL", price: USD(250), qty: 0, entry: "2024-01-01", rate: P(10)},
		{name: "zero rate", symbol: "AAPL", price: USD(250), qty: 100, entry: "2024-01-01", rate: P(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPosition(tt.symbol, tt.price, tt.qty, day(tt.entry), tt.rate)
			if !IsValidationError(err) {
				t.Errorf("NewPosition() error = %v, want a ValidationError", err)
			}
		})
	}

	p, err := NewPosition(" aapl ", USD(250), 100, day("2024-01-01"), P(10))
	if err != nil {
		t.Fatalf("NewPosition() unexpected error: %v", err)
	}
	if p.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", p.Symbol)
	}
	assertMoney(t, "TotalCost()", p.TotalCost(), USD(25000))

	// the limit counts characters, not bytes
	if _, err := NewPosition("ÉÉÉÉÉÉÉÉÉÉ", USD(250), 100, day("2024-01-01"), P(10)); err != nil {
		t.Errorf("NewPosition() with a 10 character symbol unexpected error: %v", err)
	}
}

func TestPosition_ExitBeforeEntry(t *testing.T) {
	p := aapl(t).WithExit(USD(260), day("2023-12-31"))
	if err := p.Validate(); !IsValidationError(err) {
		t.Errorf("Validate() error = %v, want a ValidationError", err)
	}
}

func TestTrade_Lifecycle(t *testing.T) {
	tr, err := NewTrade(aapl(t))
	if err != nil {
		t.Fatalf("NewTrade() unexpected error: %v", err)
	}
	if tr.State() != StateOpen || tr.OpenQuantity() != 100 {
		t.Errorf("new trade: state %v open %d, want open 100", tr.State(), tr.OpenQuantity())
	}

	partial, err := tr.Close(closure(40, 255, "2024-01-06"))
	if err != nil {
		t.Fatalf("Close(40) unexpected error: %v", err)
	}
	if partial.State() != StatePartiallyClosed || partial.OpenQuantity() != 60 {
		t.Errorf("after 40: state %v open %d, want partially-closed 60", partial.State(), partial.OpenQuantity())
	}
	if len(tr.Closures) != 0 {
		t.Errorf("Close() modified its receiver")
	}

	closed, err := partial.Close(closure(60, 260, "2024-01-11"))
	if err != nil {
		t.Fatalf("Close(60) unexpected error: %v", err)
	}
	if !closed.IsFullyClosed() || closed.State() != StateClosed {
		t.Errorf("after 100: state %v, want closed", closed.State())
	}
	if got := closed.LastClosureDate(); got != day("2024-01-11") {
		t.Errorf("LastClosureDate() = %s, want 2024-01-11", got)
	}
	if !closed.IsRealized() || closed.RealizedOn() != day("2024-01-11") {
		t.Errorf("RealizedOn() = %s, want 2024-01-11", closed.RealizedOn())
	}
}

func TestTrade_ValidateClose(t *testing.T) {
	tr, err := NewTrade(aapl(t), closure(40, 255, "2024-01-06"))
	if err != nil {
		t.Fatalf("NewTrade() unexpected error: %v", err)
	}

	tests := []struct {
		requested Quantity
		want      error
	}{
		{requested: 150, want: ErrInsufficientOpenQuantity},
		{requested: 61, want: ErrInsufficientOpenQuantity},
		{requested: 0, want: ErrInvalidQuantity},
		{requested: -5, want: ErrInvalidQuantity},
		{requested: 60, want: nil},
		{requested: 1, want: nil},
	}
	for _, tt := range tests {
		err := tr.ValidateClose(tt.requested)
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateClose(%d) = %v, want %v", tt.requested, err, tt.want)
		}
	}
	if tr.OpenQuantity() != 60 {
		t.Errorf("ValidateClose() changed the open quantity to %d", tr.OpenQuantity())
	}
}

func TestTrade_CloseRejects(t *testing.T) {
	tr, _ := NewTrade(aapl(t))
	tests := []struct {
		name string
		c    Closure
	}{
		{name: "other position", c: NewClosure("P2", 10, USD(255), day("2024-01-06"))},
		{name: "before entry", c: closure(10, 255, "2023-12-31")},
		{name: "zero price", c: closure(10, 0, "2024-01-06")},
		{name: "other currency", c: NewClosure("P1", 10, M(255, "EUR"), day("2024-01-06"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tr.Close(tt.c); !IsValidationError(err) {
				t.Errorf("Close() error = %v, want a ValidationError", err)
			}
		})
	}
}

func TestNewTrade_Conservation(t *testing.T) {
	_, err := NewTrade(aapl(t), closure(60, 255, "2024-01-06"), closure(60, 260, "2024-01-11"))
	if !errors.Is(err, ErrInsufficientOpenQuantity) {
		t.Errorf("NewTrade() error = %v, want %v", err, ErrInsufficientOpenQuantity)
	}
}
