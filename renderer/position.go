// Package renderer turns diary views and reports into markdown.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/diary"
)

// PositionMarkdown renders a position view.
func PositionMarkdown(v diary.PositionView) string {
	var b strings.Builder
	p := v.Position

	fmt.Fprintf(&b, "# %s %s on %s\n\n", p.Symbol, p.ID, v.AsOf)
	if p.Notes != "" {
		fmt.Fprintf(&b, "%s\n\n", p.Notes)
	}

	fmt.Fprint(&b, "## Terms\n\n")
	fmt.Fprintln(&b, "| Entry Date | Entry Price | Quantity | Margin Rate | Exit Date | Exit Price |")
	fmt.Fprintln(&b, "|:---|---:|---:|---:|:---|---:|")
	fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n\n",
		p.EntryDate, p.EntryPrice, p.Quantity, p.MarginRate, optional(p.ExitDate), exitPrice(p))

	fmt.Fprint(&b, "## Cost of Carry\n\n")
	fmt.Fprintf(&b, "- Total cost: %s\n", v.TotalCost)
	fmt.Fprintf(&b, "- Daily interest: %s\n", v.DailyInterest)
	fmt.Fprintf(&b, "- Interest until %s: %s\n\n", v.InterestEnd, v.TotalInterestToDate)

	fmt.Fprint(&b, "## Quantity\n\n")
	fmt.Fprintf(&b, "State: **%s**, %s open, %s closed.\n\n", v.State, v.OpenQuantity, v.ClosedQuantity)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Closures\n\n")
		fmt.Fprintln(w, "| Date | Quantity | Price | Interest | Profit |")
		fmt.Fprintln(w, "|:---|---:|---:|---:|---:|")
		for _, c := range v.Closures {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				c.Closure.Date, c.Closure.Quantity, c.Closure.Price, c.Interest, c.Profit.SignedString())
		}
		fmt.Fprintf(w, "| **Total** | **%s** | | | **%s** |\n\n", v.ClosedQuantity, v.AggregateProfit.SignedString())
		return len(v.Closures) > 0
	})

	if v.HasFullProfit {
		fmt.Fprint(&b, "## Profit\n\n")
		fmt.Fprintf(&b, "Sold at %s on %s: **%s**\n", p.ExitPrice, p.ExitDate, v.FullProfit.SignedString())
	}

	return b.String()
}

// TradesMarkdown renders a one line summary per position view.
func TradesMarkdown(views []diary.PositionView) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Positions\n\n")
	if len(views) == 0 {
		fmt.Fprint(&b, "No position.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| ID | Symbol | Entry | Quantity | Open | State | Interest | Profit |")
	fmt.Fprintln(&b, "|:---|:---|:---|---:|---:|:---|---:|---:|")
	for _, v := range views {
		profit := "-"
		switch {
		case v.HasFullProfit:
			profit = v.FullProfit.SignedString()
		case len(v.Closures) > 0:
			profit = v.AggregateProfit.SignedString()
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			v.Position.ID, v.Position.Symbol, v.Position.EntryDate, v.Position.Quantity,
			v.OpenQuantity, v.State, v.TotalInterestToDate, profit)
	}
	return b.String()
}

// InterestMarkdown renders the day by day interest of a position.
func InterestMarkdown(p diary.Position, series []diary.InterestDay, total diary.Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Interest of %s %s\n\n", p.Symbol, p.ID)
	if len(series) == 0 {
		fmt.Fprint(&b, "No interest accrued.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Date | Interest |")
	fmt.Fprintln(&b, "|:---|---:|")
	for _, d := range series {
		fmt.Fprintf(&b, "| %s | %s |\n", d.Date, d.Amount)
	}
	fmt.Fprintf(&b, "\nTotal charged from %s to %s: **%s**\n", series[0].Date, series[len(series)-1].Date, total)
	return b.String()
}
