package diary

import (
	"testing"

	"github.com/etnz/diary/date"
)

// sampleTrades returns a closed winner, a closed loser, a trade closed
// through two closures and a trade still open.
func sampleTrades(t *testing.T) []Trade {
	t.Helper()
	mk := func(id, symbol string, price float64, qty Quantity, entry string) Position {
		p, err := NewPosition(symbol, USD(price), qty, day(entry), P(10))
		if err != nil {
			t.Fatalf("NewPosition() failed: %v", err)
		}
		p.ID = id
		return p
	}
	must := func(tr Trade, err error) Trade {
		t.Helper()
		if err != nil {
			t.Fatalf("NewTrade() failed: %v", err)
		}
		return tr
	}
	return []Trade{
		// 931.50
		must(NewTrade(mk("P1", "AAPL", 250, 100, "2024-01-01").WithExit(USD(260), day("2024-01-11")))),
		// (90-100)*10 - round2(0.27*31) = -100 - 8.37 = -108.37
		must(NewTrade(mk("P2", "MSFT", 100, 10, "2024-01-01").WithExit(USD(90), day("2024-02-01")))),
		// 186.30 + 558.90
		must(NewTrade(mk("P3", "AAPL", 250, 100, "2024-01-01"),
			NewClosure("P3", 40, USD(255), day("2024-01-06")),
			NewClosure("P3", 60, USD(260), day("2024-01-11")))),
		must(NewTrade(mk("P4", "TSLA", 200, 50, "2024-02-15"))),
	}
}

func TestSummarize(t *testing.T) {
	e := NewEngine()
	s, err := e.Summarize(sampleTrades(t), date.Range{})
	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}
	if s.TotalTrades != 4 || s.ClosedTrades != 3 || s.WinningTrades != 2 {
		t.Errorf("Summarize() counts = %d/%d/%d, want 4/3/2", s.TotalTrades, s.ClosedTrades, s.WinningTrades)
	}
	if !s.WinRate.Equal(P(66.67)) {
		t.Errorf("WinRate = %v, want 66.67%%", s.WinRate)
	}
	assertMoney(t, "TotalProfit", s.TotalProfit, USD(1568.33))
	assertMoney(t, "MeanProfit", s.MeanProfit, USD(522.78))
	if !s.StdDevProfit.IsPositive() {
		t.Errorf("StdDevProfit = %v, want a positive spread", s.StdDevProfit)
	}

	jan, err := e.Summarize(sampleTrades(t), date.NewRange(day("2024-01-15"), date.Monthly))
	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}
	if jan.TotalTrades != 2 || jan.ClosedTrades != 2 {
		t.Errorf("January counts = %d/%d, want 2/2", jan.TotalTrades, jan.ClosedTrades)
	}
	assertMoney(t, "January StdDevProfit", jan.StdDevProfit, USD(131.73))
}

func TestSummarize_Empty(t *testing.T) {
	s, err := NewEngine().Summarize(nil, date.Range{})
	if err != nil {
		t.Fatalf("Summarize() unexpected error: %v", err)
	}
	if s.TotalTrades != 0 || !s.WinRate.IsZero() || !s.TotalProfit.IsZero() {
		t.Errorf("Summarize(nil) = %+v, want zeros", s)
	}
}

func TestSummarize_MixedCurrencies(t *testing.T) {
	trades := sampleTrades(t)
	eur, _ := NewPosition("SAP", M(100, "EUR"), 1, day("2024-01-01"), P(5))
	trades = append(trades, Trade{Position: eur})
	if _, err := NewEngine().Summarize(trades, date.Range{}); err == nil {
		t.Error("Summarize() should refuse to add USD and EUR")
	}
}

func TestMonthlyProfit(t *testing.T) {
	r := date.Range{From: day("2023-12-01"), To: day("2024-03-31")}
	months, err := NewEngine().MonthlyProfit(sampleTrades(t), r)
	if err != nil {
		t.Fatalf("MonthlyProfit() unexpected error: %v", err)
	}
	want := []struct {
		label  string
		profit Money
		trades int
	}{
		{"2023-12", USD(0), 0},
		{"2024-01", USD(1676.7), 2},
		{"2024-02", USD(-108.37), 1},
		{"2024-03", USD(0), 0},
	}
	if len(months) != len(want) {
		t.Fatalf("len(MonthlyProfit()) = %d, want %d", len(months), len(want))
	}
	for i, w := range want {
		if months[i].Label() != w.label || months[i].Trades != w.trades {
			t.Errorf("month %d = %s with %d trades, want %s with %d", i, months[i].Label(), months[i].Trades, w.label, w.trades)
		}
		assertMoney(t, w.label, months[i].Profit, w.profit)
	}
}

func TestProfitByPeriod_Quarterly(t *testing.T) {
	r := date.Range{From: day("2023-12-01"), To: day("2024-03-31")}
	quarters, err := NewEngine().ProfitByPeriod(sampleTrades(t), r, date.Quarterly)
	if err != nil {
		t.Fatalf("ProfitByPeriod() unexpected error: %v", err)
	}
	if len(quarters) != 2 {
		t.Fatalf("len(ProfitByPeriod()) = %d, want 2", len(quarters))
	}
	if quarters[0].Label() != "2023-Q4" || quarters[0].Trades != 0 {
		t.Errorf("first quarter = %s with %d trades, want 2023-Q4 with 0", quarters[0].Label(), quarters[0].Trades)
	}
	if quarters[1].Label() != "2024-Q1" || quarters[1].Trades != 3 {
		t.Errorf("second quarter = %s with %d trades, want 2024-Q1 with 3", quarters[1].Label(), quarters[1].Trades)
	}
	assertMoney(t, "2024-Q1", quarters[1].Profit, USD(1568.33))
}

func TestProfitBySymbol(t *testing.T) {
	got, err := NewEngine().ProfitBySymbol(sampleTrades(t))
	if err != nil {
		t.Fatalf("ProfitBySymbol() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(ProfitBySymbol()) = %d, want 2 (open TSLA left out)", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Trades != 2 || got[1].Symbol != "MSFT" {
		t.Errorf("ProfitBySymbol() = %+v", got)
	}
	assertMoney(t, "AAPL", got[0].Profit, USD(1676.7))
}

func TestRateImpact(t *testing.T) {
	im, err := NewEngine().RateImpact(sampleTrades(t), day("2024-02-25"))
	if err != nil {
		t.Fatalf("RateImpact() unexpected error: %v", err)
	}
	if im.OpenTrades != 1 {
		t.Errorf("OpenTrades = %d, want 1", im.OpenTrades)
	}
	// 10000 at 10% is 2.74 a day, for 10 days
	assertMoney(t, "TotalInvested", im.TotalInvested, USD(10000))
	assertMoney(t, "DailyInterest", im.DailyInterest, USD(2.74))
	assertMoney(t, "InterestToDate", im.InterestToDate, USD(27.4))
}
