// Package agent is the AI assistant of the diary: a facilitator chat that
// delegates to expert chats, one of them reading the diary through tools.
package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"
)

// Agent is the AI assistant that handles the chat session.
type Agent struct {
	w           io.Writer
	r           *bufio.Reader
	Facilitator *Expert
	Experts     []*Expert

	// Render formats the facilitator's markdown replies, verbatim by default.
	Render func(markdown string) string
}

// New creates a new Agent whose facilitator runs on model and delegates to experts.
//
// The agent writes to w (e.g., os.Stdout) and reads user input from r (e.g., os.Stdin).
func New(w io.Writer, r io.Reader, model string, experts ...*Expert) *Agent {
	return &Agent{
		w:           w,
		r:           bufio.NewReader(r),
		Experts:     experts,
		Facilitator: newFacilitator(model, experts...),
		Render:      func(md string) string { return md + "\n" },
	}
}

// Start creates the chat sessions of the facilitator and every expert.
func (a *Agent) Start(ctx context.Context, client *genai.Client) error {
	for _, e := range append(a.Experts, a.Facilitator) {
		if err := e.Start(ctx, client); err != nil {
			return err
		}
	}
	return nil
}

const prompt = "assist> "

// next returns the next user input: the pending prompts first, then the reader.
// ok is false at the end of the input or when the user says bye.
func (a *Agent) next(prompts []string) (input string, rest []string, ok bool, err error) {
	for len(prompts) > 0 {
		input, prompts = strings.TrimSpace(prompts[0]), prompts[1:]
		if input != "" {
			fmt.Fprintln(a.w, input)
			return input, prompts, input != "bye", nil
		}
	}
	line, err := a.r.ReadString('\n')
	if err == io.EOF && strings.TrimSpace(line) == "" {
		return "", nil, false, nil // Clean exit on Ctrl+D
	}
	if err != nil && err != io.EOF {
		return "", nil, false, err
	}
	input = strings.TrimSpace(line)
	return input, nil, input != "bye", nil
}

// Run starts the interactive REPL session for the agent. prompts are asked
// before reading the user's input.
func (a *Agent) Run(ctx context.Context, client *genai.Client, prompts ...string) error {
	if a.Facilitator.chat == nil {
		if err := a.Start(ctx, client); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.w, "Welcome to the margin trade diary assistant. Type 'bye' to exit.")
	for {
		fmt.Fprint(a.w, prompt)
		input, rest, ok, err := a.next(prompts)
		if err != nil || !ok {
			return err
		}
		prompts = rest
		if input == "" {
			continue
		}

		content, err := a.Facilitator.Ask(ctx, &genai.Part{Text: input})
		if err != nil {
			return err
		}
		fmt.Fprint(a.w, a.Render(Text(content)))
	}
}
