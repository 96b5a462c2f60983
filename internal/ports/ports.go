package ports

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	CategoryStore interface {
		// CreateCategory fails with core.ErrCategoryExists when (name, type) is taken.
		CreateCategory(ctx context.Context, userID string, in core.CreateCategoryInput) (core.Category, error)
		// DeleteCategory fails with core.ErrCategoryNotFound when nothing matched.
		DeleteCategory(ctx context.Context, userID string, in core.DeleteCategoryInput) error
		ListCategories(ctx context.Context, userID string, t core.TransactionType) ([]core.Category, error)
		GetCategory(ctx context.Context, userID, name string, t core.TransactionType) (core.Category, error)
	}

	// SettingsStore reports ok=false when the user never saved settings.
	SettingsStore interface {
		GetSettings(ctx context.Context, userID string) (settings core.UserSettings, ok bool, err error)
		SaveSettings(ctx context.Context, s core.UserSettings) error
	}

	EventPublisher interface {
		PublishCategoryEvent(ctx context.Context, ev core.CategoryEvent) error
	}

	EventRecorder interface {
		RecordCategoryEvent(ctx context.Context, ev core.CategoryEvent) error
	}

	// CategoryMirror keeps an external copy of the category list.
	CategoryMirror interface {
		AppendCategory(ctx context.Context, c core.Category) error
		RemoveCategory(ctx context.Context, c core.Category) error
	}
)
