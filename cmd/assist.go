package cmd

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/etnz/diary/agent"
	"github.com/etnz/diary/config"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct{}

// Name returns the name of the command.
func (*assistCmd) Name() string { return "assist" }

// Synopsis returns a short-one line synopsis of the command.
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }

// Usage returns a long-form usage string.
func (*assistCmd) Usage() string {
	return `mtd assist [<question>...]

  Start an interactive session with the AI assistant. The arguments, if any,
  are asked first. Requires a Gemini API key in GEMINI_API_KEY.
`
}

// SetFlags sets the flags for the command.
func (*assistCmd) SetFlags(_ *flag.FlagSet) {}

// Execute executes the command.
func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	initialPrompt := strings.Join(f.Args(), " ")

	return run(ctx, func(a *app) error {
		client, err := newClient(ctx, a.cfg)
		if err != nil {
			return err
		}

		model := a.cfg.GeminiModel
		trader := agent.NewTrader(model)
		accountant := agent.NewAccountant(model, a.store, a.engine)
		assist := agent.New(os.Stdout, os.Stdin, model, trader, accountant)
		assist.Render = renderString
		return assist.Run(ctx, client, initialPrompt)
	})
}

// newClient creates a Gemini client, the SDK reads the key from the
// environment when the configuration has none.
func newClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	var cc *genai.ClientConfig
	if cfg.GeminiAPIKey != "" {
		cc = &genai.ClientConfig{APIKey: cfg.GeminiAPIKey, Backend: genai.BackendGeminiAPI}
	}
	return genai.NewClient(ctx, cc)
}
