// Package core provides the domain types of the budget application.
//
// This file holds the static currency table. The table is immutable: callers
// get copies and look entries up by their code.
package core

import (
	"errors"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is a supported display currency.
type Currency struct {
	Value  string // ISO code, e.g. "EUR"
	Label  string // display string with symbol
	Locale string // BCP 47 formatting locale
}

// UserSettings holds per-user preferences chosen during onboarding.
type UserSettings struct {
	UserID   string
	Currency string
}

var ErrUnknownCurrency = errors.New("unknown currency")

var currencies = []Currency{
	{Value: "EUR", Label: "€ Euro", Locale: "de-DE"},
	{Value: "USD", Label: "$ Dollar", Locale: "en-US"},
	{Value: "JPY", Label: "¥ Yen", Locale: "ja-JP"},
	{Value: "GBP", Label: "£ Pound", Locale: "en-GB"},
}

// DefaultCurrency is used until the user picks one.
var DefaultCurrency = currencies[0]

// Currencies returns the supported currencies in display order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// LookupCurrency finds a currency by code (case-insensitive).
func LookupCurrency(value string) (Currency, bool) {
	value = strings.ToUpper(strings.TrimSpace(value))
	for _, c := range currencies {
		if c.Value == value {
			return c, true
		}
	}
	return Currency{}, false
}

// FormatAmount renders cents with the currency symbol using the currency locale.
func (c Currency) FormatAmount(cents int64) string {
	unit, err := currency.ParseISO(c.Value)
	if err != nil {
		return c.Value + " " + formatPlain(cents)
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	return p.Sprint(currency.Symbol(unit.Amount(float64(cents) / 100)))
}

func formatPlain(cents int64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.2f", float64(cents)/100)
}

func (s UserSettings) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return errors.New("user id is required")
	}
	if _, ok := LookupCurrency(s.Currency); !ok {
		return ErrUnknownCurrency
	}
	return nil
}
