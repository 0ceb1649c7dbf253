package diary

import (
	"testing"

	"github.com/etnz/diary/date"
	"github.com/shopspring/decimal"
)

func TestDailyInterest(t *testing.T) {
	tests := []struct {
		name    string
		cost    Money
		rate    Percent
		want    Money
		wantErr bool
	}{
		{name: "reference", cost: USD(25000), rate: P(10), want: USD(6.85)},
		{name: "fractional rate", cost: USD(10000), rate: P(16.5), want: USD(4.52)},
		{name: "zero cost", cost: USD(0), rate: P(10), want: USD(0)},
		{name: "negative cost", cost: USD(-1), rate: P(10), wantErr: true},
		{name: "zero rate", cost: USD(25000), rate: P(0), wantErr: true},
		{name: "negative rate", cost: USD(25000), rate: P(-3), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DailyInterest(tt.cost, tt.rate)
			if tt.wantErr {
				if !IsValidationError(err) {
					t.Errorf("DailyInterest() error = %v, want a ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DailyInterest() unexpected error: %v", err)
			}
			assertMoney(t, "DailyInterest()", got, tt.want)
		})
	}
}

func TestDailyInterest_Linear(t *testing.T) {
	tests := []struct {
		cost float64
		rate float64
	}{
		{cost: 25000, rate: 10},
		{cost: 10000, rate: 16.5},
		{cost: 1234.56, rate: 7.25},
	}
	for _, tt := range tests {
		base, err := DailyInterest(USD(tt.cost), P(tt.rate))
		if err != nil {
			t.Fatalf("DailyInterest() unexpected error: %v", err)
		}
		for _, k := range []int64{2, 3, 10} {
			factor := decimal.NewFromInt(k)
			want := base.Mul(factor)
			tolerance := decimal.RequireFromString("0.01").Mul(factor)

			byCost, err := DailyInterest(USD(tt.cost).Mul(factor), P(tt.rate))
			if err != nil {
				t.Fatalf("DailyInterest() unexpected error: %v", err)
			}
			if diff := byCost.Sub(want).Decimal().Abs(); diff.GreaterThan(tolerance) {
				t.Errorf("DailyInterest(%v×%d, %v) = %v, want %v ± %v", tt.cost, k, tt.rate, byCost.Decimal(), want.Decimal(), tolerance)
			}

			byRate, err := DailyInterest(USD(tt.cost), P(decimal.NewFromFloat(tt.rate).Mul(factor)))
			if err != nil {
				t.Fatalf("DailyInterest() unexpected error: %v", err)
			}
			if diff := byRate.Sub(want).Decimal().Abs(); diff.GreaterThan(tolerance) {
				t.Errorf("DailyInterest(%v, %v×%d) = %v, want %v ± %v", tt.cost, tt.rate, k, byRate.Decimal(), want.Decimal(), tolerance)
			}
		}
	}
}

func TestTotalInterest(t *testing.T) {
	daily := USD(6.85)
	entry := day("2024-01-01")

	got, ok := TotalInterest(daily, entry, day("2024-01-11"))
	if !ok {
		t.Fatal("TotalInterest() should be present when end is set")
	}
	assertMoney(t, "10 days", got, USD(68.5))

	got, ok = TotalInterest(daily, entry, entry)
	if !ok {
		t.Fatal("TotalInterest() should be present for same day")
	}
	assertMoney(t, "same day", got, USD(0))

	got, _ = TotalInterest(daily, entry, day("2023-12-25"))
	assertMoney(t, "end before entry", got, USD(0))

	if _, ok := TotalInterest(daily, entry, date.Date{}); ok {
		t.Error("TotalInterest() should be absent without an end date")
	}
}

func TestTotalInterest_Linear(t *testing.T) {
	daily := USD(6.85)
	entry := day("2024-01-01")
	for _, n := range []int{1, 7, 30, 365} {
		one, _ := TotalInterest(daily, entry, entry.Add(n))
		two, _ := TotalInterest(daily, entry, entry.Add(2*n))
		if !two.Equal(one.Add(one)) {
			t.Errorf("TotalInterest over %d days = %v, want twice %v", 2*n, two.Decimal(), one.Decimal())
		}
	}
}

func TestDailyInterestSeries(t *testing.T) {
	series := DailyInterestSeries(day("2024-01-01"), day("2024-01-11"), USD(6.85))
	if len(series) != 11 {
		t.Fatalf("len(series) = %d, want 11", len(series))
	}
	if series[0].Date != day("2024-01-01") || series[10].Date != day("2024-01-11") {
		t.Errorf("series bounds = %s..%s, want 2024-01-01..2024-01-11", series[0].Date, series[10].Date)
	}
	for _, d := range series {
		assertMoney(t, "series amount on "+d.Date.String(), d.Amount, USD(6.85))
	}

	if got := DailyInterestSeries(day("2024-01-01"), date.Date{}, USD(6.85)); len(got) != 0 {
		t.Errorf("series without end has %d entries, want 0", len(got))
	}
}

func TestFlatRate(t *testing.T) {
	p := aapl(t)
	total, ok, err := FlatRate{}.Total(p, day("2024-01-11"))
	if err != nil || !ok {
		t.Fatalf("Total() = _, %v, %v", ok, err)
	}
	assertMoney(t, "Total()", total, USD(68.5))

	// Rate overwrite is retroactive.
	total, _, _ = FlatRate{}.Total(p.WithRate(P(5)), day("2024-01-11"))
	assertMoney(t, "Total() after overwrite", total, USD(34.2))
}
