package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/diary"
	"github.com/google/subcommands"
)

// fmtCmd rewrites the journal in its compact form.
type fmtCmd struct{}

func (*fmtCmd) Name() string     { return "fmt" }
func (*fmtCmd) Synopsis() string { return "rewrite the journal in its compact form" }
func (*fmtCmd) Usage() string {
	return `mtd fmt

  Replays the journal and rewrites it with one entry per change still in
  effect: deleted positions and overwritten rates disappear.
`
}

func (*fmtCmd) SetFlags(*flag.FlagSet) {}

func (*fmtCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if a.book == nil {
			return fmt.Errorf("fmt only applies to a journal, not to database %q", a.cfg.Database)
		}
		tmp := a.cfg.Journal + ".tmp"
		out, err := os.Create(tmp)
		if err != nil {
			return err
		}
		if err := diary.EncodeJournal(out, a.book); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		if err := os.Rename(tmp, a.cfg.Journal); err != nil {
			return err
		}
		fmt.Printf("Journal %s rewritten with %d entries\n", a.cfg.Journal, len(a.book.Entries()))
		return nil
	})
}
