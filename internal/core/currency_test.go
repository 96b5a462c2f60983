package core

import (
	"strings"
	"testing"
)

func TestLookupCurrency(t *testing.T) {
	c, ok := LookupCurrency(" usd ")
	if !ok || c.Value != "USD" || c.Locale != "en-US" {
		t.Fatalf("unexpected lookup: %+v ok=%v", c, ok)
	}
	if _, ok := LookupCurrency("CHF"); ok {
		t.Fatalf("expected CHF to be unsupported")
	}
}

func TestCurrenciesReturnsCopy(t *testing.T) {
	list := Currencies()
	if len(list) != 4 {
		t.Fatalf("expected 4 currencies, got %d", len(list))
	}
	list[0].Value = "XXX"
	if Currencies()[0].Value != "EUR" {
		t.Fatalf("currency table was mutated through the returned slice")
	}
	if DefaultCurrency.Value != "EUR" {
		t.Fatalf("unexpected default currency %q", DefaultCurrency.Value)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		code   string
		cents  int64
		symbol string
	}{
		{"EUR", 123456, "€"},
		{"USD", 999, "$"},
		{"GBP", 100, "£"},
	}
	for _, tc := range cases {
		c, _ := LookupCurrency(tc.code)
		got := c.FormatAmount(tc.cents)
		if !strings.Contains(got, tc.symbol) {
			t.Fatalf("%s: expected %q in %q", tc.code, tc.symbol, got)
		}
	}
}

func TestUserSettingsValidate(t *testing.T) {
	if err := (UserSettings{UserID: "u1", Currency: "JPY"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (UserSettings{UserID: "u1", Currency: "ZZZ"}).Validate(); err != ErrUnknownCurrency {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
	if err := (UserSettings{Currency: "EUR"}).Validate(); err == nil {
		t.Fatalf("expected error for missing user")
	}
}
