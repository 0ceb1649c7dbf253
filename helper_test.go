package diary

import (
	"testing"

	"github.com/etnz/diary/date"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// NO is a helper for test to create money from const with no currency set
func NO(v float64) Money { return M(v, "") }

// day is a shortcut for date.MustParse.
func day(s string) date.Date { return date.MustParse(s) }

// aapl is the reference position: 100 units at 250.00 on 2024-01-01, 10% margin.
func aapl(t *testing.T) Position {
	t.Helper()
	p, err := NewPosition("aapl", USD(250), 100, day("2024-01-01"), P(10))
	if err != nil {
		t.Fatalf("NewPosition() failed: %v", err)
	}
	p.ID = "P1"
	return p
}

// closure is a closure of the reference position.
func closure(q Quantity, price float64, on string) Closure {
	return NewClosure("P1", q, USD(price), day(on))
}

func assertMoney(t *testing.T, name string, got, want Money) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %v (%s), want %v", name, got.Decimal(), got.Currency(), want.Decimal())
	}
}
