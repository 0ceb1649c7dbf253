package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/diary"
	"github.com/etnz/diary/date"
	"github.com/google/subcommands"
)

// openCmd records a new margin position.
type openCmd struct {
	symbol    string
	price     string
	quantity  int64
	date      string
	rate      string
	currency  string
	exitPrice string
	exitDate  string
	notes     string
}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "record a new margin position" }
func (*openCmd) Usage() string {
	return `mtd open -s <symbol> -p <price> -q <quantity> -r <rate> [-d <date>] [-c <currency>] [-exit-price <price> -exit-date <date>] [-n <notes>]

  Records the purchase of quantity units of symbol at price, financed at the
  yearly margin rate (in percent). Prints the ID of the new position.
`
}

func (c *openCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.symbol, "s", "", "Ticker symbol, at most 10 characters.")
	f.StringVar(&c.price, "p", "", "Entry price per unit.")
	f.Int64Var(&c.quantity, "q", 0, "Number of units bought.")
	f.StringVar(&c.rate, "r", "", "Yearly margin rate in percent, e.g. 10 or 8.5%.")
	f.StringVar(&c.date, "d", "", "Entry date (YYYY-MM-DD), today by default.")
	f.StringVar(&c.currency, "c", "", "Currency of the prices, the configured currency by default.")
	f.StringVar(&c.exitPrice, "exit-price", "", "Exit price when the position is already sold.")
	f.StringVar(&c.exitDate, "exit-date", "", "Exit date when the position is already sold.")
	f.StringVar(&c.notes, "n", "", "Free text notes.")
}

func (c *openCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		cur := c.currency
		if cur == "" {
			cur = a.cfg.Currency
		}
		price, err := diary.ParseMoney(c.price, cur)
		if err != nil {
			return err
		}
		rate, err := diary.ParsePercent(c.rate)
		if err != nil {
			return err
		}
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		p, err := diary.NewPosition(c.symbol, price, diary.Q(c.quantity), on, rate)
		if err != nil {
			return err
		}
		p.Notes = c.notes
		if (c.exitPrice == "") != (c.exitDate == "") {
			return fmt.Errorf("-exit-price and -exit-date go together")
		}
		if c.exitPrice != "" {
			if p.ExitPrice, err = diary.ParseMoney(c.exitPrice, cur); err != nil {
				return err
			}
		}
		if p.ExitDate, err = parseDate(c.exitDate, date.Date{}); err != nil {
			return err
		}
		if p, err = a.store.Open(ctx, p); err != nil {
			return err
		}
		fmt.Printf("Opened position %s: %s %s at %s\n", p.ID, p.Quantity, p.Symbol, p.EntryPrice)
		return nil
	})
}

// closeCmd records a partial or total sale of a position.
type closeCmd struct {
	id       string
	quantity int64
	price    string
	date     string
	notes    string
}

func (*closeCmd) Name() string     { return "close" }
func (*closeCmd) Synopsis() string { return "record a partial or total sale of a position" }
func (*closeCmd) Usage() string {
	return `mtd close -id <position> -q <quantity> -p <price> [-d <date>] [-n <notes>]

  Sells quantity units of the position at price. The quantity cannot exceed the
  units still open.
`
}

func (c *closeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID.")
	f.Int64Var(&c.quantity, "q", 0, "Number of units sold.")
	f.StringVar(&c.price, "p", "", "Sale price per unit.")
	f.StringVar(&c.date, "d", "", "Sale date (YYYY-MM-DD), today by default.")
	f.StringVar(&c.notes, "n", "", "Free text notes.")
}

func (c *closeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		t, err := a.store.Trade(ctx, c.id)
		if err != nil {
			return err
		}
		price, err := diary.ParseMoney(c.price, t.Position.Currency())
		if err != nil {
			return err
		}
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		cl := diary.NewClosure(c.id, diary.Q(c.quantity), price, on)
		cl.Notes = c.notes
		if cl, err = a.store.Close(ctx, cl); err != nil {
			return err
		}
		profit, err := a.engine.ClosureProfit(t.Position, cl)
		if err != nil {
			return err
		}
		fmt.Printf("Closed %s units of %s (closure %s), profit %s\n", cl.Quantity, c.id, cl.ID, profit.SignedString())
		return nil
	})
}

// exitCmd sets the single exit of a position.
type exitCmd struct {
	id    string
	price string
	date  string
}

func (*exitCmd) Name() string     { return "exit" }
func (*exitCmd) Synopsis() string { return "record the exit price and date of a whole position" }
func (*exitCmd) Usage() string {
	return `mtd exit -id <position> -p <price> [-d <date>]

  Sells the whole position at once. Interest stops accruing on the exit date.
`
}

func (c *exitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID.")
	f.StringVar(&c.price, "p", "", "Exit price per unit.")
	f.StringVar(&c.date, "d", "", "Exit date (YYYY-MM-DD), today by default.")
}

func (c *exitCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		t, err := a.store.Trade(ctx, c.id)
		if err != nil {
			return err
		}
		price, err := diary.ParseMoney(c.price, t.Position.Currency())
		if err != nil {
			return err
		}
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		p, err := a.store.Exit(ctx, c.id, price, on)
		if err != nil {
			return err
		}
		profit, _, err := a.engine.PositionProfit(p)
		if err != nil {
			return err
		}
		fmt.Printf("Exited %s on %s, profit %s\n", p.ID, p.ExitDate, profit.SignedString())
		return nil
	})
}

// rateCmd overwrites margin rates.
type rateCmd struct {
	id   string
	rate string
	date string
}

func (*rateCmd) Name() string     { return "rate" }
func (*rateCmd) Synopsis() string { return "overwrite the margin rate of one or every open position" }
func (*rateCmd) Usage() string {
	return `mtd rate -r <rate> [-id <position>] [-d <date>]

  Overwrites the margin rate of the position, or of every open position when
  no ID is given. The new rate applies retroactively from the entry date.
`
}

func (c *rateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID, every open position when empty.")
	f.StringVar(&c.rate, "r", "", "Yearly margin rate in percent.")
	f.StringVar(&c.date, "d", "", "Date of the change (YYYY-MM-DD), today by default.")
}

func (c *rateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		rate, err := diary.ParsePercent(c.rate)
		if err != nil {
			return err
		}
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		if c.id != "" {
			if err := a.store.SetRate(ctx, c.id, rate, on); err != nil {
				return err
			}
			fmt.Printf("Margin rate of %s set to %s\n", c.id, rate)
			return nil
		}
		n, err := a.store.ApplyRate(ctx, rate, on)
		if err != nil {
			return err
		}
		fmt.Printf("Margin rate of %d open positions set to %s\n", n, rate)
		return nil
	})
}

// deleteCmd removes a position and its closures.
type deleteCmd struct {
	id string
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete a position and its closures" }
func (*deleteCmd) Usage() string {
	return `mtd delete -id <position>
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID.")
}

func (c *deleteCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if err := a.store.Delete(ctx, c.id, date.Today()); err != nil {
			return err
		}
		fmt.Printf("Deleted position %s\n", c.id)
		return nil
	})
}

// importCmd opens positions read from a JSON document.
type importCmd struct {
	path     string
	currency string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import positions from a JSON document" }
func (*importCmd) Usage() string {
	return `mtd import [-path <jsonpath>] [-c <currency>] <file.json>

  Opens a position for every row selected by the JSONPath expression. Rows
  with errors are reported and skipped, the others are imported.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "path", diary.DefaultImportPath, "JSONPath expression selecting the rows.")
	f.StringVar(&c.currency, "c", "", "Currency of the prices, the configured currency by default.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "import expects exactly one file")
		return subcommands.ExitUsageError
	}
	return run(ctx, func(a *app) error {
		in, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer in.Close()

		cur := c.currency
		if cur == "" {
			cur = a.cfg.Currency
		}
		positions, rowErr := diary.ImportPositions(in, c.path, cur)
		if rowErr != nil && len(positions) == 0 {
			return rowErr
		}
		if rowErr != nil {
			a.log.Warn().Err(rowErr).Msg("rows skipped")
		}
		for _, p := range positions {
			if _, err := a.store.Open(ctx, p); err != nil {
				return fmt.Errorf("importing %s: %w", p.Symbol, err)
			}
		}
		fmt.Printf("Imported %d positions\n", len(positions))
		return nil
	})
}
