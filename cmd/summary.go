package cmd

import (
	"context"
	"flag"

	"github.com/etnz/diary/date"
	"github.com/etnz/diary/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	start string
	date  string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "display trading statistics over a period" }
func (*summaryCmd) Usage() string {
	return `mtd summary [-s <start>] [-d <date>]

  Counts the trades, closed and winning trades of the period and describes the
  distribution of realized profits. Without -s the period starts with the diary.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day of the period (YYYY-MM-DD).")
	f.StringVar(&c.date, "d", "", "Last day of the period (YYYY-MM-DD), today by default.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		r, err := parseRange(c.start, c.date)
		if err != nil {
			return err
		}
		trades, err := a.store.Trades(ctx)
		if err != nil {
			return err
		}
		s, err := a.engine.Summarize(trades, r)
		if err != nil {
			return err
		}
		printMarkdown(renderer.SummaryMarkdown(s))
		return nil
	})
}

type monthlyCmd struct {
	start  string
	date   string
	period string
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "display the realized profit of every month" }
func (*monthlyCmd) Usage() string {
	return `mtd monthly [-s <start>] [-d <date>] [-period <period>]

  Buckets realized profits by the month of the exit or closure, or by the day,
  week, quarter or year with -period. Every bucket of the range is listed, the
  range starting with the year of -d by default.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "First day of the period (YYYY-MM-DD), start of the year by default.")
	f.StringVar(&c.date, "d", "", "Last day of the period (YYYY-MM-DD), today by default.")
	f.StringVar(&c.period, "period", "monthly", "Bucket size: daily, weekly, monthly, quarterly or yearly.")
}

func (c *monthlyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		period, err := date.ParsePeriod(c.period)
		if err != nil {
			return err
		}
		r, err := parseRange(c.start, c.date)
		if err != nil {
			return err
		}
		if r.From.IsZero() {
			r.From = r.To.StartOf(date.Yearly)
		}
		trades, err := a.store.Trades(ctx)
		if err != nil {
			return err
		}
		buckets, err := a.engine.ProfitByPeriod(trades, r, period)
		if err != nil {
			return err
		}
		printMarkdown(renderer.PeriodMarkdown(period, buckets))
		return nil
	})
}

type symbolsCmd struct{}

func (*symbolsCmd) Name() string     { return "symbols" }
func (*symbolsCmd) Synopsis() string { return "display the realized profit of every symbol" }
func (*symbolsCmd) Usage() string {
	return `mtd symbols

  Sums realized profits by symbol, most profitable first.
`
}

func (*symbolsCmd) SetFlags(*flag.FlagSet) {}

func (*symbolsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		trades, err := a.store.Trades(ctx)
		if err != nil {
			return err
		}
		symbols, err := a.engine.ProfitBySymbol(trades)
		if err != nil {
			return err
		}
		printMarkdown(renderer.SymbolsMarkdown(symbols))
		return nil
	})
}

type impactCmd struct {
	date string
}

func (*impactCmd) Name() string     { return "impact" }
func (*impactCmd) Synopsis() string { return "display the cost of carrying the open positions" }
func (*impactCmd) Usage() string {
	return `mtd impact [-d <date>]

  Sums the amount invested in open positions, their daily interest and the
  interest they accrued until the date.
`
}

func (c *impactCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "As-of date (YYYY-MM-DD), today by default.")
}

func (c *impactCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		on, err := parseDate(c.date, date.Today())
		if err != nil {
			return err
		}
		trades, err := a.store.Trades(ctx)
		if err != nil {
			return err
		}
		im, err := a.engine.RateImpact(trades, on)
		if err != nil {
			return err
		}
		printMarkdown(renderer.ImpactMarkdown(im))
		return nil
	})
}
