package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/diary"
	"github.com/etnz/diary/date"
)

func SummaryMarkdown(s diary.Summary) string {
	var b strings.Builder
	if s.Range.From.IsZero() && s.Range.To.IsZero() {
		fmt.Fprint(&b, "# Trading Summary\n\n")
	} else {
		fmt.Fprintf(&b, "# Trading Summary from %s to %s\n\n", optional(s.Range.From), optional(s.Range.To))
	}
	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Trades | %d |\n", s.TotalTrades)
	fmt.Fprintf(&b, "| Closed | %d |\n", s.ClosedTrades)
	fmt.Fprintf(&b, "| Winning | %d |\n", s.WinningTrades)
	fmt.Fprintf(&b, "| Win Rate | %s |\n", s.WinRate)
	fmt.Fprintf(&b, "| Total Profit | %s |\n", s.TotalProfit.SignedString())
	fmt.Fprintf(&b, "| Mean Profit | %s |\n", s.MeanProfit.SignedString())
	fmt.Fprintf(&b, "| Std Dev | %s |\n", s.StdDevProfit)
	return b.String()
}

func PeriodMarkdown(period date.Period, months []diary.PeriodProfit) string {
	var b strings.Builder
	name := period.String()
	fmt.Fprintf(&b, "# %s%s Profit\n\n", strings.ToUpper(name[:1]), name[1:])
	fmt.Fprintln(&b, "| Period | Trades | Profit |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	var total diary.Money
	for _, m := range months {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", m.Label(), m.Trades, m.Profit.SignedString())
		total = total.Add(m.Profit)
	}
	fmt.Fprintf(&b, "| **Total** | | **%s** |\n", total.SignedString())
	return b.String()
}

func SymbolsMarkdown(symbols []diary.SymbolProfit) string {
	var b strings.Builder
	fmt.Fprint(&b, "# Profit per Symbol\n\n")
	if len(symbols) == 0 {
		fmt.Fprint(&b, "No realized profit.\n")
		return b.String()
	}
	fmt.Fprintln(&b, "| Symbol | Trades | Profit |")
	fmt.Fprintln(&b, "|:---|---:|---:|")
	for _, s := range symbols {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", s.Symbol, s.Trades, s.Profit.SignedString())
	}
	return b.String()
}

func ImpactMarkdown(im diary.Impact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Margin Cost on %s\n\n", im.AsOf)
	fmt.Fprintf(&b, "- Open positions: %d\n", im.OpenTrades)
	fmt.Fprintf(&b, "- Total invested: %s\n", im.TotalInvested)
	fmt.Fprintf(&b, "- Daily interest: %s\n", im.DailyInterest)
	fmt.Fprintf(&b, "- Interest to date: %s\n", im.InterestToDate)
	return b.String()
}
