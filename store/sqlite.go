// Package store keeps the diary in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/diary"
	"github.com/etnz/diary/date"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// SQLite is a diary.Store in a SQLite database.
//
// Every change runs in an immediate transaction: a close reads the trade,
// validates the closure and inserts it while holding the write lock. When the
// database is busy the whole transaction is retried.
type SQLite struct {
	db      *sql.DB
	log     zerolog.Logger
	newID   func() string
	retries int
	backoff time.Duration
}

var _ diary.Store = (*SQLite)(nil)

// Option configures a SQLite store.
type Option func(*SQLite)

// WithLogger sets the logger, zerolog.Nop() by default.
func WithLogger(l zerolog.Logger) Option { return func(s *SQLite) { s.log = l } }

// WithIDs replaces the identifier generator.
func WithIDs(f func() string) Option { return func(s *SQLite) { s.newID = f } }

// WithRetries sets how many times a busy transaction is attempted.
func WithRetries(n int) Option {
	return func(s *SQLite) {
		if n > 0 {
			s.retries = n
		}
	}
}

// NewSQLite opens (and creates if needed) the database at path.
func NewSQLite(path string, opts ...Option) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema in %s: %w", path, err)
	}
	s := &SQLite{
		db:      db,
		log:     zerolog.Nop(),
		newID:   diary.NewID,
		retries: 5,
		backoff: 20 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Shutdown closes the database.
func (s *SQLite) Shutdown() error { return s.db.Close() }

func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// inTx runs fn in a transaction, retrying it from the start while the database is busy.
func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.tx(ctx, fn)
		if err == nil || !isBusy(err) || attempt >= s.retries {
			return err
		}
		s.log.Warn().Err(err).Int("attempt", attempt).Msg("database busy, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
}

func (s *SQLite) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const selectPosition = `SELECT id, symbol, currency, entry_price, quantity, entry_date, margin_rate, exit_price, exit_date, notes FROM positions`

type scanner interface{ Scan(dest ...any) error }

func scanPosition(row scanner) (diary.Position, error) {
	var (
		p                       diary.Position
		cur, price, entry, rate string
		exitPrice, exitDate     sql.NullString
		qty                     int64
	)
	if err := row.Scan(&p.ID, &p.Symbol, &cur, &price, &qty, &entry, &rate, &exitPrice, &exitDate, &p.Notes); err != nil {
		return diary.Position{}, err
	}
	var err error
	if p.EntryPrice, err = diary.ParseMoney(price, cur); err != nil {
		return diary.Position{}, err
	}
	if p.EntryDate, err = date.Parse(entry); err != nil {
		return diary.Position{}, err
	}
	if p.MarginRate, err = diary.ParsePercent(rate); err != nil {
		return diary.Position{}, err
	}
	p.Quantity = diary.Quantity(qty)
	if exitPrice.Valid {
		if p.ExitPrice, err = diary.ParseMoney(exitPrice.String, cur); err != nil {
			return diary.Position{}, err
		}
	}
	if exitDate.Valid {
		if p.ExitDate, err = date.Parse(exitDate.String); err != nil {
			return diary.Position{}, err
		}
	}
	return p, nil
}

func (s *SQLite) closures(ctx context.Context, q querier, p diary.Position) ([]diary.Closure, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, quantity, price, closed_on, notes FROM closures WHERE position_id = ? ORDER BY rowid`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var closures []diary.Closure
	for rows.Next() {
		c := diary.Closure{PositionID: p.ID}
		var qty int64
		var price, on string
		if err := rows.Scan(&c.ID, &qty, &price, &on, &c.Notes); err != nil {
			return nil, err
		}
		c.Quantity = diary.Quantity(qty)
		if c.Price, err = diary.ParseMoney(price, p.Currency()); err != nil {
			return nil, err
		}
		if c.Date, err = date.Parse(on); err != nil {
			return nil, err
		}
		closures = append(closures, c)
	}
	return closures, rows.Err()
}

func (s *SQLite) loadTrade(ctx context.Context, q querier, id string) (diary.Trade, error) {
	p, err := scanPosition(q.QueryRowContext(ctx, selectPosition+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return diary.Trade{}, fmt.Errorf("%w: %q", diary.ErrPositionNotFound, id)
	}
	if err != nil {
		return diary.Trade{}, fmt.Errorf("reading position %s: %w", id, err)
	}
	closures, err := s.closures(ctx, q, p)
	if err != nil {
		return diary.Trade{}, fmt.Errorf("reading closures of %s: %w", id, err)
	}
	return diary.NewTrade(p, closures...)
}

func (s *SQLite) loadTrades(ctx context.Context, q querier) ([]diary.Trade, error) {
	rows, err := q.QueryContext(ctx, selectPosition+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing positions: %w", err)
	}
	var positions []diary.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("reading position: %w", err)
		}
		positions = append(positions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	trades := make([]diary.Trade, 0, len(positions))
	for _, p := range positions {
		closures, err := s.closures(ctx, q, p)
		if err != nil {
			return nil, fmt.Errorf("reading closures of %s: %w", p.ID, err)
		}
		t, err := diary.NewTrade(p, closures...)
		if err != nil {
			return nil, fmt.Errorf("position %s: %w", p.ID, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func nullable(present bool, v string) sql.NullString { return sql.NullString{String: v, Valid: present} }

func (s *SQLite) Open(ctx context.Context, p diary.Position) (diary.Position, error) {
	if p.ID == "" {
		p.ID = s.newID()
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return diary.Position{}, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO positions
			(id, symbol, currency, entry_price, quantity, entry_date, margin_rate, exit_price, exit_date, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Symbol, p.Currency(), p.EntryPrice.Decimal().String(), int64(p.Quantity),
			p.EntryDate.String(), p.MarginRate.Decimal().String(),
			nullable(p.HasExitPrice(), p.ExitPrice.Decimal().String()),
			nullable(p.HasExitDate(), p.ExitDate.String()),
			p.Notes,
		)
		return err
	})
	if err != nil {
		return diary.Position{}, fmt.Errorf("inserting position %s: %w", p.Symbol, err)
	}
	s.log.Debug().Str("position", p.ID).Str("symbol", p.Symbol).Msg("position opened")
	return p, nil
}

// Close appends c to its position. The open quantity is checked inside the
// same transaction as the insert.
func (s *SQLite) Close(ctx context.Context, c diary.Closure) (diary.Closure, error) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := s.loadTrade(ctx, tx, c.PositionID)
		if err != nil {
			return err
		}
		c.Price = c.Price.In(t.Position.Currency())
		if _, err := t.Close(c); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO closures (id, position_id, quantity, price, closed_on, notes)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, c.PositionID, int64(c.Quantity), c.Price.Decimal().String(), c.Date.String(), c.Notes,
		)
		return err
	})
	if err != nil {
		return diary.Closure{}, err
	}
	s.log.Debug().Str("position", c.PositionID).Stringer("quantity", c.Quantity).Msg("closure recorded")
	return c, nil
}

func (s *SQLite) Exit(ctx context.Context, positionID string, price diary.Money, on date.Date) (diary.Position, error) {
	var p diary.Position
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		t, err := s.loadTrade(ctx, tx, positionID)
		if err != nil {
			return err
		}
		if on.IsZero() {
			return &diary.ValidationError{Field: "exit date", Reason: "is required"}
		}
		p = t.Position.WithExit(price.In(t.Position.Currency()), on)
		if err := p.Validate(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE positions SET exit_price = ?, exit_date = ? WHERE id = ?`,
			p.ExitPrice.Decimal().String(), p.ExitDate.String(), p.ID)
		return err
	})
	if err != nil {
		return diary.Position{}, err
	}
	s.log.Debug().Str("position", positionID).Msg("exit recorded")
	return p, nil
}

// SetRate overwrites the margin rate of one position.
func (s *SQLite) SetRate(ctx context.Context, positionID string, rate diary.Percent, on date.Date) error {
	if !rate.IsPositive() {
		return &diary.ValidationError{Field: "margin rate", Reason: "must be positive"}
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE positions SET margin_rate = ? WHERE id = ?`, rate.Decimal().String(), positionID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %q", diary.ErrPositionNotFound, positionID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("position", positionID).Stringer("rate", rate).Stringer("on", on).Msg("margin rate overwritten")
	return nil
}

// ApplyRate overwrites the margin rate of every open position.
func (s *SQLite) ApplyRate(ctx context.Context, rate diary.Percent, on date.Date) (int, error) {
	if !rate.IsPositive() {
		return 0, &diary.ValidationError{Field: "margin rate", Reason: "must be positive"}
	}
	n := 0
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		n = 0
		trades, err := s.loadTrades(ctx, tx)
		if err != nil {
			return err
		}
		for _, t := range trades {
			if t.Position.HasExitDate() || t.IsFullyClosed() {
				continue
			}
			if _, err := tx.ExecContext(ctx, `UPDATE positions SET margin_rate = ? WHERE id = ?`, rate.Decimal().String(), t.Position.ID); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("positions", n).Stringer("rate", rate).Stringer("on", on).Msg("margin rate overwritten")
	return n, nil
}

// Delete removes a position; its closures go with it.
func (s *SQLite) Delete(ctx context.Context, positionID string, on date.Date) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM positions WHERE id = ?`, positionID)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", positionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", diary.ErrPositionNotFound, positionID)
	}
	s.log.Info().Str("position", positionID).Stringer("on", on).Msg("position deleted")
	return nil
}

func (s *SQLite) Trade(ctx context.Context, positionID string) (diary.Trade, error) {
	return s.loadTrade(ctx, s.db, positionID)
}

func (s *SQLite) Trades(ctx context.Context) ([]diary.Trade, error) {
	return s.loadTrades(ctx, s.db)
}
