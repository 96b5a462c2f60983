package google

import (
	"fmt"
	"strings"

	"budget/internal/core"
)

func categoryRow(c core.Category) []any {
	return []any{c.UserID, c.Type.String(), c.Icon, c.Name}
}

// findRow returns the zero-based index of the row holding c, or -1.
// Matching ignores case and surrounding space on type; user and name must match exactly.
func findRow(rows [][]string, c core.Category) int {
	for i, row := range rows {
		if len(row) < 4 {
			continue
		}
		if row[0] == c.UserID &&
			strings.EqualFold(row[1], c.Type.String()) &&
			row[3] == c.Name {
			return i
		}
	}
	return -1
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
