package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budget/internal/core"
)

func TestMemoryStoreSeedsEachUser(t *testing.T) {
	s := New([]core.CreateCategoryInput{
		{Type: core.Expense, Icon: "🍕", Name: "Food"},
		{Type: core.Expense, Icon: "🍕", Name: "Food"},
		{Type: core.Income, Icon: "💰", Name: "Salary"},
	})
	ctx := context.Background()

	for _, user := range []string{"u1", "u2"} {
		exp, err := s.ListCategories(ctx, user, core.Expense)
		if err != nil || len(exp) != 1 || exp[0].UserID != user {
			t.Fatalf("%s: unexpected expenses %v (%v)", user, exp, err)
		}
	}

	if err := s.DeleteCategory(ctx, "u1", core.DeleteCategoryInput{Name: "Food", Type: core.Expense}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if exp, _ := s.ListCategories(ctx, "u2", core.Expense); len(exp) != 1 {
		t.Fatalf("delete leaked across users: %v", exp)
	}
}

func TestMemoryStoreCreateDelete(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	in := core.CreateCategoryInput{Type: core.Expense, Icon: "🚗", Name: "Car"}

	if _, err := s.CreateCategory(ctx, "u1", in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateCategory(ctx, "u1", in); !errors.Is(err, core.ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}
	if _, err := s.GetCategory(ctx, "u1", "Car", core.Income); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected not found for other type, got %v", err)
	}
	del := core.DeleteCategoryInput{Name: "Car", Type: core.Expense}
	if err := s.DeleteCategory(ctx, "u1", del); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteCategory(ctx, "u1", del); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestMemoryStoreSettingsAndEvents(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	if _, ok, _ := s.GetSettings(ctx, "u1"); ok {
		t.Fatalf("expected no settings")
	}
	_ = s.SaveSettings(ctx, core.UserSettings{UserID: "u1", Currency: "GBP"})
	if got, ok, _ := s.GetSettings(ctx, "u1"); !ok || got.Currency != "GBP" {
		t.Fatalf("unexpected settings %+v", got)
	}

	now := time.Now()
	c := core.Category{UserID: "u1", Name: "Car", Type: core.Expense}
	_ = s.RecordCategoryEvent(ctx, core.CategoryEvent{ID: "a", Kind: core.CategoryCreated, Category: c, OccurredAt: now})
	_ = s.RecordCategoryEvent(ctx, core.CategoryEvent{ID: "b", Kind: core.CategoryDeleted, Category: c, OccurredAt: now.Add(time.Second)})
	_ = s.RecordCategoryEvent(ctx, core.CategoryEvent{ID: "a", Kind: core.CategoryDeleted, Category: c, OccurredAt: now})

	events, _ := s.ListCategoryEvents(ctx, "u1", 0)
	if len(events) != 2 || events[0].ID != "b" || events[1].Kind != core.CategoryCreated {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed_categories.txt")
	content := "# type|icon|name\nincome|💰|Salary\nexpense|🍕|Food\nexpense|x|Bad icon\nbogus|🍕|Bad type\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromFile(path)
	if len(s.seeds) != 2 {
		t.Fatalf("expected 2 seeds, got %v", s.seeds)
	}

	fallback := NewFromFile(filepath.Join(dir, "missing.txt"))
	if len(fallback.seeds) == 0 {
		t.Fatalf("expected default seeds")
	}
}
