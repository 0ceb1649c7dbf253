package agent

import (
	"context"
	"fmt"

	"github.com/etnz/diary"
	"github.com/etnz/diary/date"
	"github.com/etnz/diary/docs"
	"github.com/etnz/diary/renderer"
	"google.golang.org/genai"
)

// creates the facilitator
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name: "Facilitator",
		// Used by facilitators to know what they can expected from the expert
		Description: ``,
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skill that you can get from the Tools to ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user keeps a diary of margin trades: positions bought on borrowed money that
			accrue interest every day until they are sold, possibly in several closures.
			He is here primarily to understand his profits and the cost of carrying his positions.

			Devise a plan of questions to ask to each experts and come up with the best reponse to the user's request.

			The user will assume that you know about his symbols and position IDs, ask the Accountant first.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader returns an expert grounded on Google Search.
func NewTrader(model string) *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader,
		Very well aware of the markets, margin lending and brokers,
		about the latest news about the different companies.
		Ask the Trader whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a expert in Trading, you can search and find about anything related to
			companies, markets and margin rates. You Leverage Google Search to
			ground your assertions in a solid truth.
			You can get the latests news too, and you know how to relate them to the user's request.
				`}}},
		},
	}
}

// NewAccountant returns the expert reading the diary in store.
func NewAccountant(model string, store diary.Store, engine *diary.Engine) *Expert {
	lib := []Function{
		positionsFunc(store, engine),
		positionFunc(store, engine),
		summaryFunc(store, engine),
	}

	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. He is in charge of reading the user's margin trade diary.
		He computes interest, closures profits and statistics about the user's positions.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are an accountant in charge of the user's margin trade diary.
				You know how to use the Tools to extract relevant figures about the user's positions.
				You are part of a team of experts, yours is everything about the user's diary. They might ask
				you questions about the positions, pardon their approximative language and figure out what they meant.

				Use the available tools to get information about
				  - the list of positions
				  - the interest and profit of a single position
				  - the statistics over a period
			`}, {Text: must(docs.GetTopics("interest", "profit"))}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, args map[string]any) (string, error)
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	out, err := f.Func(ctx, args)
	if err != nil {
		return failure(id, f.Decl.Name, err)
	}
	return success(id, f.Decl.Name, out)
}

var dateSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "The as-of date, today by default.\n\n" + must(docs.GetTopic("dates")),
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

var markdown = &genai.Schema{
	Type:        genai.TypeString,
	Description: "A markdown-formatted report.",
}

func positionsFunc(store diary.Store, engine *diary.Engine) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Positions",
			Description: `Positions lists every position of the diary with its state, the interest
			accrued until the given date and its realized profit if any.`,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"date": dateSchema},
			},
			Response: markdown,
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			on, err := parseDate(args, "date", date.Today())
			if err != nil {
				return "", err
			}
			trades, err := store.Trades(ctx)
			if err != nil {
				return "", err
			}
			views, err := engine.Views(trades, on)
			if err != nil {
				return "", err
			}
			return renderer.TradesMarkdown(views), nil
		},
	}
}

func positionFunc(store diary.Store, engine *diary.Engine) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Position",
			Description: `Position details a single position: its terms, total cost, daily interest,
			interest to date, every closure with its interest and profit.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":   {Type: genai.TypeString, Description: "The position ID, as listed by Positions."},
					"date": dateSchema,
				},
				Required: []string{"id"},
			},
			Response: markdown,
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			id, _ := args["id"].(string)
			on, err := parseDate(args, "date", date.Today())
			if err != nil {
				return "", err
			}
			t, err := store.Trade(ctx, id)
			if err != nil {
				return "", err
			}
			v, err := engine.ComputeView(t.Position, t.Closures, on)
			if err != nil {
				return "", err
			}
			return renderer.PositionMarkdown(v), nil
		},
	}
}

func summaryFunc(store diary.Store, engine *diary.Engine) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Summary",
			Description: `Summary counts the positions and closed positions, the win rate and the
			distribution of realized profits between two dates. Without dates it covers the whole diary.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"from": {Type: genai.TypeString, Description: "First day included, YYYY-MM-DD."},
					"to":   {Type: genai.TypeString, Description: "Last day included, YYYY-MM-DD."},
				},
			},
			Response: markdown,
		},
		Func: func(ctx context.Context, args map[string]any) (string, error) {
			var r date.Range
			var err error
			if r.From, err = parseDate(args, "from", date.Date{}); err != nil {
				return "", err
			}
			if r.To, err = parseDate(args, "to", date.Date{}); err != nil {
				return "", err
			}
			trades, err := store.Trades(ctx)
			if err != nil {
				return "", err
			}
			s, err := engine.Summarize(trades, r)
			if err != nil {
				return "", err
			}
			return renderer.SummaryMarkdown(s), nil
		},
	}
}

func parseDate(args map[string]any, key string, def date.Date) (date.Date, error) {
	idate, hasDate := args[key]
	if !hasDate {
		return def, nil
	}
	sdate, ok := idate.(string)
	if !ok {
		return def, fmt.Errorf("argument %q is not a string as expected but %T", key, idate)
	}
	if sdate == "" {
		return def, nil
	}
	d, err := date.Parse(sdate)
	if err != nil {
		return def, fmt.Errorf("argument %q must be a valid date in the YYYY-MM-DD format: %w", key, err)
	}
	return d, nil
}

// Explain asks model for a short commentary of a position view.
func Explain(ctx context.Context, client *genai.Client, model string, v diary.PositionView) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
		You comment margin positions for their owner. Be brief: explain the cost of carry,
		how much of the profit the interest ate and what holding the position longer would cost.
		Only use the figures of the report.`}}},
	}
	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(renderer.PositionMarkdown(v)), config)
	if err != nil {
		return "", fmt.Errorf("could not explain position %s: %w", v.Position.ID, err)
	}
	return resp.Text(), nil
}
