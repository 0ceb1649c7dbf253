package diary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// sequence returns an ID generator yielding P1, P2, ...
func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newTestBook(t *testing.T, opts ...BookOption) *Book {
	t.Helper()
	return NewBook(append([]BookOption{WithIDs(sequence("P"))}, opts...)...)
}

func TestBook_OpenClose(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t)
	p, err := b.Open(ctx, Position{Symbol: "aapl", EntryPrice: USD(250), Quantity: 100, EntryDate: day("2024-01-01"), MarginRate: P(10)})
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	if p.ID != "P1" || p.Symbol != "AAPL" {
		t.Errorf("Open() = %s %s, want P1 AAPL", p.ID, p.Symbol)
	}

	c, err := b.Close(ctx, NewClosure(p.ID, 40, NO(255), day("2024-01-06")))
	if err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if c.ID == "" || c.Price.Currency() != "USD" {
		t.Errorf("Close() = %+v, want an ID and the position currency", c)
	}

	_, err = b.Close(ctx, NewClosure(p.ID, 150, USD(255), day("2024-01-06")))
	if !errors.Is(err, ErrInsufficientOpenQuantity) {
		t.Errorf("Close(150) error = %v, want %v", err, ErrInsufficientOpenQuantity)
	}

	tr, err := b.Trade(ctx, p.ID)
	if err != nil {
		t.Fatalf("Trade() unexpected error: %v", err)
	}
	if tr.OpenQuantity() != 60 {
		t.Errorf("OpenQuantity() = %d, want 60", tr.OpenQuantity())
	}

	if _, err := b.Trade(ctx, "missing"); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("Trade(missing) error = %v, want %v", err, ErrPositionNotFound)
	}
}

func TestBook_ConcurrentCloses(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t, WithIDs(NewID))
	p, err := b.Open(ctx, Position{Symbol: "AAPL", EntryPrice: USD(250), Quantity: 100, EntryDate: day("2024-01-01"), MarginRate: P(10)})
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Close(ctx, NewClosure(p.ID, 7, USD(255), day("2024-01-06"))); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	tr, _ := b.Trade(ctx, p.ID)
	if accepted != 14 || tr.OpenQuantity() != 2 {
		t.Errorf("accepted %d closes, open %d, want 14 and 2", accepted, tr.OpenQuantity())
	}
}

func TestBook_Rates(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t)
	open := func(symbol string) Position {
		p, err := b.Open(ctx, Position{Symbol: symbol, EntryPrice: USD(100), Quantity: 10, EntryDate: day("2024-01-01"), MarginRate: P(16)})
		if err != nil {
			t.Fatalf("Open(%s) unexpected error: %v", symbol, err)
		}
		return p
	}
	a, c, x := open("A"), open("C"), open("X")
	if _, err := b.Close(ctx, NewClosure(c.ID, 10, USD(110), day("2024-01-05"))); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if _, err := b.Exit(ctx, x.ID, USD(90), day("2024-01-07")); err != nil {
		t.Fatalf("Exit() unexpected error: %v", err)
	}

	n, err := b.ApplyRate(ctx, P(12), day("2024-02-01"))
	if err != nil {
		t.Fatalf("ApplyRate() unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("ApplyRate() changed %d positions, want 1", n)
	}
	for id, want := range map[string]Percent{a.ID: P(12), c.ID: P(16), x.ID: P(16)} {
		tr, _ := b.Trade(ctx, id)
		if !tr.Position.MarginRate.Equal(want) {
			t.Errorf("rate of %s = %v, want %v", id, tr.Position.MarginRate, want)
		}
	}

	if err := b.SetRate(ctx, x.ID, P(9), day("2024-02-01")); err != nil {
		t.Fatalf("SetRate() unexpected error: %v", err)
	}
	if err := b.SetRate(ctx, x.ID, P(0), day("2024-02-01")); !IsValidationError(err) {
		t.Errorf("SetRate(0) error = %v, want a ValidationError", err)
	}
}

func TestBook_Delete(t *testing.T) {
	ctx := context.Background()
	b := newTestBook(t)
	p1, _ := b.Open(ctx, Position{Symbol: "A", EntryPrice: USD(100), Quantity: 10, EntryDate: day("2024-01-01"), MarginRate: P(16)})
	p2, _ := b.Open(ctx, Position{Symbol: "B", EntryPrice: USD(100), Quantity: 10, EntryDate: day("2024-01-01"), MarginRate: P(16)})
	b.Close(ctx, NewClosure(p1.ID, 5, USD(110), day("2024-01-05")))

	if err := b.Delete(ctx, p1.ID, day("2024-01-10")); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	trades, _ := b.Trades(ctx)
	if len(trades) != 1 || trades[0].Position.ID != p2.ID {
		t.Errorf("Trades() after delete = %v, want only %s", trades, p2.ID)
	}
	if _, err := b.Close(ctx, NewClosure(p1.ID, 1, USD(110), day("2024-01-11"))); !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("Close() on a deleted position error = %v, want %v", err, ErrPositionNotFound)
	}
}

func TestBook_OpenRejectsInvalidExit(t *testing.T) {
	ctx := context.Background()
	var journal bytes.Buffer
	b := newTestBook(t, WithJournal(&journal))

	_, err := b.Open(ctx, aapl(t).WithExit(USD(260), day("2023-12-01")))
	if !IsValidationError(err) {
		t.Fatalf("Open() error = %v, want a ValidationError", err)
	}
	if trades, _ := b.Trades(ctx); len(trades) != 0 {
		t.Errorf("Trades() = %v, want none after a rejected open", trades)
	}
	if journal.Len() != 0 {
		t.Errorf("journal = %q, want it untouched", journal.String())
	}
}

var errDiskFull = errors.New("disk full")

// fullWriter fails every write.
type fullWriter struct{}

func (fullWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestBook_JournalFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	var journal bytes.Buffer
	b := newTestBook(t, WithJournal(&journal))
	p, err := b.Open(ctx, aapl(t))
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}

	b.journal = fullWriter{}
	if _, err := b.Open(ctx, Position{ID: "P2", Symbol: "MSFT", EntryPrice: USD(400), Quantity: 5, EntryDate: day("2024-01-02"), MarginRate: P(10)}); !errors.Is(err, errDiskFull) {
		t.Errorf("Open() error = %v, want %v", err, errDiskFull)
	}
	if _, err := b.Close(ctx, closure(40, 255, "2024-01-06")); !errors.Is(err, errDiskFull) {
		t.Errorf("Close() error = %v, want %v", err, errDiskFull)
	}
	if _, err := b.Exit(ctx, p.ID, USD(260), day("2024-01-10")); !errors.Is(err, errDiskFull) {
		t.Errorf("Exit() error = %v, want %v", err, errDiskFull)
	}
	if _, err := b.ApplyRate(ctx, P(7), day("2024-01-08")); !errors.Is(err, errDiskFull) {
		t.Errorf("ApplyRate() error = %v, want %v", err, errDiskFull)
	}
	if err := b.Delete(ctx, p.ID, day("2024-01-09")); !errors.Is(err, errDiskFull) {
		t.Errorf("Delete() error = %v, want %v", err, errDiskFull)
	}

	trades, _ := b.Trades(ctx)
	if len(trades) != 1 {
		t.Fatalf("len(Trades()) = %d, want 1", len(trades))
	}
	tr := trades[0]
	if len(tr.Closures) != 0 || tr.Position.HasExit() || !tr.Position.MarginRate.Equal(P(10)) {
		t.Errorf("trade = %+v, want it as opened", tr)
	}

	// the book still matches its journal
	replayed, err := DecodeJournal(strings.NewReader(journal.String()))
	if err != nil {
		t.Fatalf("DecodeJournal() unexpected error: %v", err)
	}
	if got, _ := replayed.Trades(ctx); len(got) != 1 || got[0].Position.ID != p.ID {
		t.Errorf("replayed Trades() = %v, want only %s", got, p.ID)
	}
}

func TestJournal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	var journal bytes.Buffer
	b := newTestBook(t, WithJournal(&journal))
	p, _ := b.Open(ctx, Position{Symbol: "AAPL", EntryPrice: USD(250), Quantity: 100, EntryDate: day("2024-01-01"), MarginRate: P(10), Notes: "breakout"})
	b.Close(ctx, NewClosure(p.ID, 40, USD(255), day("2024-01-06")))
	b.SetRate(ctx, p.ID, P(12), day("2024-01-08"))
	q, _ := b.Open(ctx, Position{Symbol: "MSFT", EntryPrice: USD(400), Quantity: 5, EntryDate: day("2024-01-02"), MarginRate: P(10)})
	b.Delete(ctx, q.ID, day("2024-01-09"))

	wantFirst := `{"command":"open","date":"2024-01-01","memo":"breakout","id":"P1","symbol":"AAPL","quantity":100,"price":250,"currency":"USD","rate":10}`
	if first, _, _ := strings.Cut(journal.String(), "\n"); first != wantFirst {
		t.Errorf("first journal line = %s\nwant %s", first, wantFirst)
	}

	replayed, err := DecodeJournal(strings.NewReader(journal.String()))
	if err != nil {
		t.Fatalf("DecodeJournal() unexpected error: %v", err)
	}
	trades, _ := replayed.Trades(ctx)
	if len(trades) != 1 {
		t.Fatalf("len(Trades()) = %d, want 1", len(trades))
	}
	tr := trades[0]
	if !tr.Position.MarginRate.Equal(P(12)) || tr.OpenQuantity() != 60 || tr.Position.Notes != "breakout" {
		t.Errorf("replayed trade = %+v", tr)
	}

	var compact bytes.Buffer
	if err := EncodeJournal(&compact, replayed); err != nil {
		t.Fatalf("EncodeJournal() unexpected error: %v", err)
	}
	if n := strings.Count(compact.String(), "\n"); n != 2 {
		t.Errorf("compact journal has %d lines, want 2:\n%s", n, compact.String())
	}
}

func TestDecodeJournal_Errors(t *testing.T) {
	tests := []struct {
		name    string
		journal string
		want    string
	}{
		{
			name:    "unknown command",
			journal: `{"command":"buy","date":"2024-01-01"}`,
			want:    "line 1: unknown journal command",
		},
		{
			name: "over close",
			journal: `{"command":"open","date":"2024-01-01","id":"P1","symbol":"AAPL","quantity":10,"price":250,"currency":"USD","rate":10}

{"command":"close","date":"2024-01-02","id":"C1","position":"P1","quantity":11,"price":255}`,
			want: "line 3:",
		},
		{
			name:    "unknown position",
			journal: `{"command":"exit","date":"2024-01-02","position":"P9","price":255}`,
			want:    "position not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJournal(strings.NewReader(tt.journal))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodeJournal() error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}
