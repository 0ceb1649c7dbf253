package diary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/etnz/diary/date"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Store keeps positions and their closures.
//
// Implementations serialize appends: Close reads the trade, validates the
// closure and appends it as a single atomic step.
type Store interface {
	Open(ctx context.Context, p Position) (Position, error)
	Close(ctx context.Context, c Closure) (Closure, error)
	Exit(ctx context.Context, positionID string, price Money, on date.Date) (Position, error)
	SetRate(ctx context.Context, positionID string, rate Percent, on date.Date) error
	ApplyRate(ctx context.Context, rate Percent, on date.Date) (int, error)
	Delete(ctx context.Context, positionID string, on date.Date) error
	Trade(ctx context.Context, positionID string) (Trade, error)
	Trades(ctx context.Context) ([]Trade, error)
}

// NewID returns a new sortable identifier for positions and closures.
func NewID() string { return ulid.Make().String() }

// Book is an in-memory Store, optionally backed by a JSONL journal.
//
// Every successful change is appended to the journal before the call
// returns. A Book is safe for concurrent use.
type Book struct {
	mu      sync.Mutex
	trades  []Trade
	index   map[string]int
	journal io.Writer
	newID   func() string
	log     zerolog.Logger
}

// BookOption configures a Book.
type BookOption func(*Book)

// WithJournal appends every applied entry to w.
func WithJournal(w io.Writer) BookOption { return func(b *Book) { b.journal = w } }

// WithLogger sets the logger, zerolog.Nop() by default.
func WithLogger(l zerolog.Logger) BookOption { return func(b *Book) { b.log = l } }

// WithIDs replaces the identifier generator.
func WithIDs(f func() string) BookOption { return func(b *Book) { b.newID = f } }

// NewBook returns an empty book.
func NewBook(opts ...BookOption) *Book {
	b := &Book{
		index: make(map[string]int),
		newID: NewID,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var _ Store = (*Book)(nil)

// Apply validates e against the current state, journals it and applies it.
func (b *Book) Apply(e Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commit(e)
}

// commit applies entries in order. The book changes only when every entry is
// valid and all of them were written to the journal in a single write.
func (b *Book) commit(entries ...Entry) error {
	trades := b.trades
	for _, e := range entries {
		var err error
		if trades, err = applyEntry(trades, e); err != nil {
			return err
		}
	}
	if b.journal != nil {
		var buf bytes.Buffer
		for _, e := range entries {
			if err := EncodeEntry(&buf, e); err != nil {
				return err
			}
		}
		if _, err := b.journal.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write %s entry: %w", entries[0].What(), err)
		}
	}
	b.trades = trades
	b.reindex()
	for _, e := range entries {
		b.log.Debug().Str("command", string(e.What())).Str("date", e.When().String()).Msg("entry applied")
	}
	return nil
}

// applyEntry returns trades with e applied. trades is never modified.
func applyEntry(trades []Trade, e Entry) ([]Trade, error) {
	switch v := e.(type) {
	case OpenEntry:
		p := v.Position().Normalize()
		if p.ID == "" {
			return nil, invalid("position id", "is required")
		}
		if indexOf(trades, p.ID) >= 0 {
			return nil, fmt.Errorf("position %s already exists", p.ID)
		}
		t, err := NewTrade(p)
		if err != nil {
			return nil, err
		}
		return append(slices.Clip(trades), t), nil

	case CloseEntry:
		i, err := find(trades, v.Position)
		if err != nil {
			return nil, err
		}
		t, err := trades[i].Close(v.Closure(trades[i].Position.Currency()))
		if err != nil {
			return nil, fmt.Errorf("closing %s: %w", v.Position, err)
		}
		return replace(trades, i, t), nil

	case ExitEntry:
		if v.Date.IsZero() {
			return nil, invalid("exit date", "is required")
		}
		i, err := find(trades, v.Position)
		if err != nil {
			return nil, err
		}
		t := trades[i]
		p := t.Position.WithExit(M(v.Price, t.Position.Currency()), v.Date)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		t.Position = p
		return replace(trades, i, t), nil

	case RateEntry:
		rate := P(v.Rate)
		if !rate.IsPositive() {
			return nil, invalid("margin rate", "must be positive")
		}
		if v.Position != "" {
			i, err := find(trades, v.Position)
			if err != nil {
				return nil, err
			}
			t := trades[i]
			t.Position = t.Position.WithRate(rate)
			return replace(trades, i, t), nil
		}
		out := slices.Clone(trades)
		for i, t := range out {
			if isOpen(t) {
				out[i].Position = t.Position.WithRate(rate)
			}
		}
		return out, nil

	case DeleteEntry:
		i, err := find(trades, v.Position)
		if err != nil {
			return nil, err
		}
		return slices.Delete(slices.Clone(trades), i, i+1), nil

	default:
		return nil, fmt.Errorf("unsupported entry %T", e)
	}
}

func replace(trades []Trade, i int, t Trade) []Trade {
	out := slices.Clone(trades)
	out[i] = t
	return out
}

func indexOf(trades []Trade, id string) int {
	return slices.IndexFunc(trades, func(t Trade) bool { return t.Position.ID == id })
}

func find(trades []Trade, id string) (int, error) {
	i := indexOf(trades, id)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrPositionNotFound, id)
	}
	return i, nil
}

// isOpen reports whether the trade still has units held and no exit terms.
func isOpen(t Trade) bool { return !t.Position.HasExitDate() && !t.IsFullyClosed() }

func (b *Book) find(id string) (int, error) {
	i, ok := b.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrPositionNotFound, id)
	}
	return i, nil
}

func (b *Book) reindex() {
	clear(b.index)
	for i, t := range b.trades {
		b.index[t.Position.ID] = i
	}
}

// Open records p, assigning it an ID when it has none.
func (b *Book) Open(_ context.Context, p Position) (Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID == "" {
		p.ID = b.newID()
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return Position{}, err
	}
	entries := []Entry{NewOpenEntry(p)}
	// exit terms given at opening are recorded as a separate entry
	if p.HasExit() {
		entries = append(entries, NewExitEntry(p.ID, p.ExitPrice, p.ExitDate))
	}
	if err := b.commit(entries...); err != nil {
		return Position{}, err
	}
	return b.trades[b.index[p.ID]].Position, nil
}

// Close appends c to its position after checking the open quantity, in one
// critical section.
func (b *Book) Close(_ context.Context, c Closure) (Closure, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.ID == "" {
		c.ID = b.newID()
	}
	if err := b.commit(NewCloseEntry(c)); err != nil {
		return Closure{}, err
	}
	t := b.trades[b.index[c.PositionID]]
	return t.Closures[len(t.Closures)-1], nil
}

func (b *Book) Exit(_ context.Context, positionID string, price Money, on date.Date) (Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.commit(NewExitEntry(positionID, price, on)); err != nil {
		return Position{}, err
	}
	return b.trades[b.index[positionID]].Position, nil
}

// SetRate overwrites the margin rate of one position.
func (b *Book) SetRate(_ context.Context, positionID string, rate Percent, on date.Date) error {
	if positionID == "" {
		return invalid("position id", "is required")
	}
	return b.Apply(NewRateEntry(positionID, rate, on))
}

// ApplyRate overwrites the margin rate of every open position and returns how many changed.
func (b *Book) ApplyRate(_ context.Context, rate Percent, on date.Date) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, t := range b.trades {
		if isOpen(t) {
			n++
		}
	}
	if err := b.commit(NewRateEntry("", rate, on)); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes a position and its closures.
func (b *Book) Delete(_ context.Context, positionID string, on date.Date) error {
	return b.Apply(NewDeleteEntry(positionID, on))
}

func (b *Book) Trade(_ context.Context, positionID string) (Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(positionID)
	if err != nil {
		return Trade{}, err
	}
	return b.trades[i], nil
}

// Trades returns every trade in opening order.
func (b *Book) Trades(_ context.Context) ([]Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.trades), nil
}

// Entries returns the shortest journal that rebuilds the book.
func (b *Book) Entries() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var entries []Entry
	for _, t := range b.trades {
		p := t.Position
		entries = append(entries, NewOpenEntry(p))
		for _, c := range t.Closures {
			entries = append(entries, NewCloseEntry(c))
		}
		if p.HasExit() {
			entries = append(entries, NewExitEntry(p.ID, p.ExitPrice, p.ExitDate))
		}
	}
	return entries
}
