package diary

import (
	"encoding/json"
	"testing"
)

func TestMoney_String(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD(25000), "$25,000.00"},
		{USD(6.849), "$6.85"},
		{NO(931.5), "931.50"},
		{NO(-13.7), "-13.70"},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMoney_SignedString(t *testing.T) {
	if got := NO(0.001).SignedString(); got != "-" {
		t.Errorf("SignedString() = %q, want %q", got, "-")
	}
	if got := NO(12).SignedString(); got != "+12.00" {
		t.Errorf("SignedString() = %q, want %q", got, "+12.00")
	}
}

func TestMoney_WeakCurrency(t *testing.T) {
	got := NO(1).Add(USD(2))
	if got.Currency() != "USD" {
		t.Errorf("currency = %q, want USD", got.Currency())
	}
	defer func() {
		if recover() == nil {
			t.Error("adding USD to EUR should panic")
		}
	}()
	USD(1).Add(M(1, "EUR"))
}

func TestMoney_JSON(t *testing.T) {
	tests := []struct {
		m    Money
		want string
	}{
		{USD(25000), `{"currency":"USD","amount":25000.00}`},
		{USD(13.7), `{"currency":"USD","amount":13.70}`},
		{NO(250.125), `{"amount":250.125}`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.m)
		if err != nil {
			t.Fatalf("Marshal() unexpected error: %v", err)
		}
		if string(got) != tt.want {
			t.Errorf("Marshal() = %s, want %s", got, tt.want)
		}
		var back Money
		if err := json.Unmarshal(got, &back); err != nil {
			t.Fatalf("Unmarshal(%s) unexpected error: %v", got, err)
		}
		if !back.Equal(tt.m) {
			t.Errorf("Unmarshal(%s) = %v, want %v", got, back, tt.m)
		}
	}

	var bare Money
	if err := json.Unmarshal([]byte(`"250.50"`), &bare); err != nil {
		t.Fatalf("Unmarshal() unexpected error: %v", err)
	}
	assertMoney(t, "bare amount", bare, NO(250.5))
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney(" 250.00 ", "usd")
	if err != nil {
		t.Fatalf("ParseMoney() unexpected error: %v", err)
	}
	assertMoney(t, "ParseMoney", m, USD(250))
	if _, err := ParseMoney("abc", "USD"); err == nil {
		t.Error("ParseMoney(abc) expected an error")
	}
}
