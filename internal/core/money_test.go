package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDecimalToCents(t *testing.T) {
	valid := map[string]int64{
		"12":      1200,
		"12.3":    1230,
		"12,34":   1234,
		",5":      50,
		".05":     5,
		" 7.10 ":  710,
		"12.345":  1235, // third digit rounds half-up
		"12.349":  1235,
		"12.344":  1234,
		"12.3449": 1234, // digits after the third are ignored
		"12.995":  1300, // rounding carries into units
		"0.005":   1,
	}
	for in, want := range valid {
		got, err := ParseDecimalToCents(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}

	for _, in := range []string{
		"", "   ", ".", "0", "0.00", "0.004",
		"-1", "+1", "1+2", "1-2",
		"1.2.3", "1,2,3", "1.2,3",
		"abc", "1e3", "12 34", "١٢",
		"92233720368547758",
	} {
		_, err := ParseDecimalToCents(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, "%q", in)
	}
}
