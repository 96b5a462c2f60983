package http

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"budget/internal/core"
	"budget/internal/dialog"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(result)
}

// emojiPalette is offered by the creation dialog's picker.
var emojiPalette = []string{
	"💰", "💼", "🎁", "📈", "🏦", "💳",
	"🏠", "🛒", "🍽️", "☕", "🚗", "⛽",
	"🚌", "✈️", "🏥", "💊", "🎓", "📚",
	"🎮", "🎬", "🎵", "👕", "💡", "📱",
	"🐶", "👶", "🏋️", "🎉", "🧾", "🔧",
}

// fieldMessages flattens validation errors for templates.
func fieldMessages(errs core.FieldErrors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for field := range errs {
		out[field] = errs.Message(field)
	}
	return out
}

// userMessage maps a failure to text that is safe to show.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrCategoryExists):
		return "A category with this name already exists"
	case errors.Is(err, core.ErrCategoryNotFound):
		return "Category not found"
	case errors.Is(err, core.ErrUnknownCurrency):
		return "Unknown currency"
	case errors.Is(err, dialog.ErrSubmitInFlight):
		return "Please wait for the previous request"
	default:
		return "Something went wrong"
	}
}

// queryString encodes key/value pairs for hx-* attributes, which templates
// escape as plain text rather than as URLs. Empty values are skipped.
func queryString(pairs ...any) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if val := fmt.Sprint(pairs[i+1]); val != "" {
			v.Set(fmt.Sprint(pairs[i]), val)
		}
	}
	return v.Encode()
}
