package google

import (
	"testing"

	"budget/internal/core"
)

func TestFindRow(t *testing.T) {
	rows := [][]string{
		{"User", "Type", "Icon", "Name"},
		{"u1", "expense", "🍕", "Food"},
		{"u1", "Income", "🍕", "Food"},
		{"u2", "expense", "🍕", "Food"},
		{"u1", "expense"},
	}
	tests := []struct {
		name string
		cat  core.Category
		want int
	}{
		{"expense row", core.Category{UserID: "u1", Name: "Food", Type: core.Expense}, 1},
		{"type is case-insensitive", core.Category{UserID: "u1", Name: "Food", Type: core.Income}, 2},
		{"other user", core.Category{UserID: "u2", Name: "Food", Type: core.Expense}, 3},
		{"missing", core.Category{UserID: "u3", Name: "Food", Type: core.Expense}, -1},
		{"name is exact", core.Category{UserID: "u1", Name: "food", Type: core.Expense}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findRow(rows, tt.cat); got != tt.want {
				t.Errorf("findRow() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{" a ", 12, 1.5})
	want := []string{"a", "12", "1.5"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
