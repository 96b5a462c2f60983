package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "budget.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_CategoryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateCategory(ctx, "u1", core.CreateCategoryInput{Type: core.Expense, Name: "Food", Icon: "🍕"})
	require.NoError(t, err)
	assert.Equal(t, "u1", created.UserID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = repo.CreateCategory(ctx, "u1", core.CreateCategoryInput{Type: core.Expense, Name: "Food", Icon: "🍔"})
	assert.ErrorIs(t, err, core.ErrCategoryExists)

	// same name, other type, is a different category
	_, err = repo.CreateCategory(ctx, "u1", core.CreateCategoryInput{Type: core.Income, Name: "Food", Icon: "🍕"})
	require.NoError(t, err)

	// other users are isolated
	_, err = repo.CreateCategory(ctx, "u2", core.CreateCategoryInput{Type: core.Expense, Name: "Food", Icon: "🍕"})
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, "u1", core.CreateCategoryInput{Type: core.Expense, Name: "bills", Icon: "🧾"})
	require.NoError(t, err)

	list, err := repo.ListCategories(ctx, "u1", core.Expense)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bills", list[0].Name)
	assert.Equal(t, "Food", list[1].Name)

	got, err := repo.GetCategory(ctx, "u1", "Food", core.Expense)
	require.NoError(t, err)
	assert.Equal(t, "🍕", got.Icon)

	require.NoError(t, repo.DeleteCategory(ctx, "u1", core.DeleteCategoryInput{Name: "Food", Type: core.Expense}))
	assert.ErrorIs(t, repo.DeleteCategory(ctx, "u1", core.DeleteCategoryInput{Name: "Food", Type: core.Expense}), core.ErrCategoryNotFound)

	_, err = repo.GetCategory(ctx, "u1", "Food", core.Expense)
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)

	incomes, err := repo.ListCategories(ctx, "u1", core.Income)
	require.NoError(t, err)
	assert.Len(t, incomes, 1)
}

func TestSQLiteRepository_Settings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SaveSettings(ctx, core.UserSettings{UserID: "u1", Currency: "USD"}))
	require.NoError(t, repo.SaveSettings(ctx, core.UserSettings{UserID: "u1", Currency: "JPY"}))

	s, ok, err := repo.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "JPY", s.Currency)
}

func TestSQLiteRepository_CategoryEvents(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ev := core.CategoryEvent{
		ID:         "ev-1",
		Kind:       core.CategoryCreated,
		Category:   core.Category{UserID: "u1", Name: "Food", Icon: "🍕", Type: core.Expense},
		OccurredAt: base,
	}
	require.NoError(t, repo.RecordCategoryEvent(ctx, ev))
	require.NoError(t, repo.RecordCategoryEvent(ctx, ev)) // redelivery

	ev2 := ev
	ev2.ID = "ev-2"
	ev2.Kind = core.CategoryDeleted
	ev2.OccurredAt = base.Add(time.Minute)
	require.NoError(t, repo.RecordCategoryEvent(ctx, ev2))

	events, err := repo.ListCategoryEvents(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ev-2", events[0].ID)
	assert.Equal(t, core.CategoryDeleted, events[0].Kind)
	assert.Equal(t, base, events[1].OccurredAt)
}

func TestSQLiteRepository_HealthCheck(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.HealthCheck(context.Background()))
}
