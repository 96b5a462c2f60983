package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budget/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// HealthCheck pings the database
func (r *SQLiteRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateCategory implements ports.CategoryStore
func (r *SQLiteRepository) CreateCategory(ctx context.Context, userID string, in core.CreateCategoryInput) (core.Category, error) {
	created := r.now().UTC()
	n, err := r.queries.InsertCategory(ctx, InsertCategoryParams{
		UserID:    userID,
		Name:      in.Name,
		Type:      in.Type.String(),
		Icon:      in.Icon,
		CreatedAt: created.Unix(),
	})
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if n == 0 {
		return core.Category{}, core.ErrCategoryExists
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		"user_id", userID,
		"name", in.Name,
		"type", in.Type.String())

	return core.Category{
		UserID:    userID,
		Name:      in.Name,
		Icon:      in.Icon,
		Type:      in.Type,
		CreatedAt: time.Unix(created.Unix(), 0).UTC(),
	}, nil
}

// DeleteCategory implements ports.CategoryStore
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, in core.DeleteCategoryInput) error {
	n, err := r.queries.DeleteCategory(ctx, DeleteCategoryParams{
		UserID: userID,
		Name:   in.Name,
		Type:   in.Type.String(),
	})
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return core.ErrCategoryNotFound
	}

	slog.InfoContext(ctx, "Category removed from SQLite",
		"user_id", userID,
		"name", in.Name,
		"type", in.Type.String())
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, name string, t core.TransactionType) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, GetCategoryParams{UserID: userID, Name: name, Type: t.String()})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return toCoreCategory(row)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]core.Category, error) {
	rows, err := r.queries.ListCategoriesByType(ctx, ListCategoriesByTypeParams{UserID: userID, Type: t.String()})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c, err := toCoreCategory(row)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// GetSettings implements ports.SettingsStore
func (r *SQLiteRepository) GetSettings(ctx context.Context, userID string) (core.UserSettings, bool, error) {
	row, err := r.queries.GetUserSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, false, nil
	}
	if err != nil {
		return core.UserSettings{}, false, fmt.Errorf("get user settings: %w", err)
	}
	return core.UserSettings{UserID: row.UserID, Currency: row.Currency}, true, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.UserSettings) error {
	err := r.queries.UpsertUserSettings(ctx, UpsertUserSettingsParams{
		UserID:    s.UserID,
		Currency:  s.Currency,
		UpdatedAt: r.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("save user settings: %w", err)
	}
	return nil
}

// RecordCategoryEvent implements ports.EventRecorder. Redelivered events are ignored.
func (r *SQLiteRepository) RecordCategoryEvent(ctx context.Context, ev core.CategoryEvent) error {
	n, err := r.queries.InsertCategoryEvent(ctx, InsertCategoryEventParams{
		EventID:    ev.ID,
		Kind:       string(ev.Kind),
		UserID:     ev.Category.UserID,
		Name:       ev.Category.Name,
		Type:       ev.Category.Type.String(),
		Icon:       ev.Category.Icon,
		OccurredAt: ev.OccurredAt.Unix(),
		RecordedAt: r.now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("record category event: %w", err)
	}
	if n == 0 {
		slog.DebugContext(ctx, "Category event already recorded", "event_id", ev.ID)
	}
	return nil
}

// ListCategoryEvents returns the most recent events for userID, newest first
func (r *SQLiteRepository) ListCategoryEvents(ctx context.Context, userID string, limit int) ([]core.CategoryEvent, error) {
	rows, err := r.queries.ListCategoryEvents(ctx, ListCategoryEventsParams{UserID: userID, Limit: int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("list category events: %w", err)
	}

	events := make([]core.CategoryEvent, 0, len(rows))
	for _, row := range rows {
		t, err := core.ParseTransactionType(row.Type)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", row.EventID, err)
		}
		events = append(events, core.CategoryEvent{
			ID:   row.EventID,
			Kind: core.CategoryEventKind(row.Kind),
			Category: core.Category{
				UserID: row.UserID,
				Name:   row.Name,
				Icon:   row.Icon,
				Type:   t,
			},
			OccurredAt: time.Unix(row.OccurredAt, 0).UTC(),
		})
	}
	return events, nil
}

func toCoreCategory(row Category) (core.Category, error) {
	t, err := core.ParseTransactionType(row.Type)
	if err != nil {
		return core.Category{}, fmt.Errorf("category %q: %w", row.Name, err)
	}
	return core.Category{
		UserID:    row.UserID,
		Name:      row.Name,
		Icon:      row.Icon,
		Type:      t,
		CreatedAt: time.Unix(row.CreatedAt, 0).UTC(),
	}, nil
}
