package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/diary"
	"github.com/etnz/diary/agent"
	"github.com/etnz/diary/date"
	"github.com/etnz/diary/renderer"
	"github.com/google/subcommands"
)

type positionsCmd struct {
	date string
	open bool
}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list the positions of the diary" }
func (*positionsCmd) Usage() string {
	return `mtd positions [-d <date>] [-open]

  Lists every position with its state, interest accrued until the date and
  realized profit.
`
}

func (c *positionsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "As-of date (YYYY-MM-DD), today by default.")
	f.BoolVar(&c.open, "open", false, "List only the positions still held.")
}

func (c *positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		trades, err := a.store.Trades(ctx)
		if err != nil {
			return err
		}
		views, err := a.engine.Views(trades, on)
		if err != nil {
			return err
		}
		if c.open {
			kept := views[:0]
			for _, v := range views {
				if v.State != diary.StateClosed && !v.Position.HasExitDate() {
					kept = append(kept, v)
				}
			}
			views = kept
		}
		printMarkdown(renderer.TradesMarkdown(views))
		return nil
	})
}

type viewCmd struct {
	id      string
	date    string
	json    bool
	explain bool
}

func (*viewCmd) Name() string     { return "view" }
func (*viewCmd) Synopsis() string { return "display the accounting view of a position" }
func (*viewCmd) Usage() string {
	return `mtd view -id <position> [-d <date>] [-json] [-explain]

  Displays the total cost, daily interest, interest to date, closures with
  their interest and profit, and the single-exit profit of a position.
`
}

func (c *viewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID.")
	f.StringVar(&c.date, "d", "", "As-of date (YYYY-MM-DD), today by default.")
	f.BoolVar(&c.json, "json", false, "Print the view as JSON.")
	f.BoolVar(&c.explain, "explain", false, "Ask Gemini to comment the view.")
}

func (c *viewCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		t, err := a.store.Trade(ctx, c.id)
		if err != nil {
			return err
		}
		v, err := a.engine.ComputeView(t.Position, t.Closures, on)
		if err != nil {
			return err
		}

		if c.json {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
		printMarkdown(renderer.PositionMarkdown(v))

		if c.explain {
			client, err := newClient(ctx, a.cfg)
			if err != nil {
				return err
			}
			text, err := agent.Explain(ctx, client, a.cfg.GeminiModel, v)
			if err != nil {
				return err
			}
			printMarkdown(text)
		}
		return nil
	})
}

type interestCmd struct {
	id   string
	date string
}

func (*interestCmd) Name() string     { return "interest" }
func (*interestCmd) Synopsis() string { return "display the day by day interest of a position" }
func (*interestCmd) Usage() string {
	return `mtd interest -id <position> [-d <date>]

  Lists the interest charged every day from the entry date until the exit,
  the last closure of a fully closed position, or the date.
`
}

func (c *interestCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Position ID.")
	f.StringVar(&c.date, "d", "", "As-of date (YYYY-MM-DD), today by default.")
}

func (c *interestCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		t, err := a.store.Trade(ctx, c.id)
		if err != nil {
			return err
		}
		v, err := a.engine.ComputeView(t.Position, t.Closures, on)
		if err != nil {
			return err
		}
		series, err := a.engine.Accrual().Series(t.Position, v.InterestEnd)
		if err != nil {
			return err
		}
		printMarkdown(renderer.InterestMarkdown(t.Position, series, v.TotalInterestToDate))

		if s, ok := a.engine.Accrual().(*diary.RateSchedule); ok {
			saved, err := s.Savings(t.Position, v.InterestEnd)
			if err != nil {
				return err
			}
			fmt.Printf("Saved by the latest rate cut: %s\n", saved)
		}
		return nil
	})
}
