// Package cmd implements the mtd CLI application to keep a margin trade diary.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/diary"
	"github.com/etnz/diary/config"
	"github.com/etnz/diary/date"
	"github.com/etnz/diary/logger"
	"github.com/etnz/diary/store"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Commands lists every mtd subcommand.
var Commands = []subcommands.Command{
	&openCmd{},
	&closeCmd{},
	&exitCmd{},
	&rateCmd{},
	&deleteCmd{},
	&importCmd{},
	&fmtCmd{},
	&positionsCmd{},
	&viewCmd{},
	&interestCmd{},
	&summaryCmd{},
	&monthlyCmd{},
	&symbolsCmd{},
	&impactCmd{},
	&assistCmd{},
	&topicCmd{},
}

var groups = map[string]string{
	"open": "journal", "close": "journal", "exit": "journal", "rate": "journal",
	"delete": "journal", "import": "journal", "fmt": "journal",
	"positions": "reports", "view": "reports", "interest": "reports", "summary": "reports",
	"monthly": "reports", "symbols": "reports", "impact": "reports",
	"assist": "assistant", "topic": "help",
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, groups[cmd.Name()])
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile   = flag.String("config", "mtd.yaml", "Path to the YAML configuration file, ignored when missing.")
	journalFile  = flag.String("journal", "", "Path to the JSONL journal. Overrides the configuration.")
	databaseFile = flag.String("database", "", "Path to a SQLite database used instead of the journal. Overrides the configuration.")
	logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error, disabled). Overrides the configuration.")
)

// app is what a command needs to run: the configuration, the store and the engine.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  diary.Store
	book   *diary.Book // nil when the store is a database
	engine *diary.Engine
	close  func() error
}

// loadConfig loads the configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	if *journalFile != "" {
		cfg.Journal = *journalFile
	}
	if *databaseFile != "" {
		cfg.Database = *databaseFile
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openApp opens the configured store. The caller must call app.close.
func openApp(_ context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	l := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(l)

	engine, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: l, engine: engine}

	if cfg.Database != "" {
		db, err := store.NewSQLite(cfg.Database, store.WithLogger(l))
		if err != nil {
			return nil, fmt.Errorf("could not open database %q: %w", cfg.Database, err)
		}
		a.store, a.close = db, db.Shutdown
		l.Debug().Str("database", cfg.Database).Msg("diary opened")
		return a, nil
	}

	// Reads start at the beginning of the file, writes are appended.
	f, err := os.OpenFile(cfg.Journal, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open journal %q: %w", cfg.Journal, err)
	}
	book, err := diary.DecodeJournal(f, diary.WithJournal(f), diary.WithLogger(l))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not decode journal %q: %w", cfg.Journal, err)
	}
	a.store, a.book, a.close = book, book, f.Close
	l.Debug().Str("journal", cfg.Journal).Msg("diary opened")
	return a, nil
}

// run opens the app, calls fn and closes the app. Errors are reported on stderr.
func run(ctx context.Context, fn func(*app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	err = fn(a)
	if cerr := a.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		if diary.IsValidationError(err) {
			fmt.Fprintln(os.Stderr, "Invalid input:", err)
			return subcommands.ExitUsageError
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseDate parses a flag date, the empty string meaning def.
func parseDate(s string, def date.Date) (date.Date, error) {
	if s == "" {
		return def, nil
	}
	return date.Parse(s)
}

// parseRange parses a start and end flag pair, the end defaulting to today.
func parseRange(start, end string) (date.Range, error) {
	from, err := parseDate(start, date.Date{})
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid start date: %w", err)
	}
	to, err := parseDate(end, date.Today())
	if err != nil {
		return date.Range{}, fmt.Errorf("invalid end date: %w", err)
	}
	if !from.IsZero() && to.Before(from) {
		return date.Range{}, fmt.Errorf("end date %s is before start date %s", to, from)
	}
	return date.Range{From: from, To: to}, nil
}

// printMarkdown renders md for the terminal, or prints it raw when rendering fails.
func printMarkdown(md string) {
	renderMarkdown(os.Stdout, md)
}

func renderMarkdown(w io.Writer, md string) {
	fmt.Fprint(w, renderString(md))
}

func renderString(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			return out
		}
	}
	return strings.TrimSpace(md) + "\n"
}
