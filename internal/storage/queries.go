package storage

import (
	"context"
)

const insertCategory = `
INSERT INTO categories (user_id, name, type, icon, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, name, type) DO NOTHING
`

type InsertCategoryParams struct {
	UserID    string
	Name      string
	Type      string
	Icon      string
	CreatedAt int64
}

// InsertCategory returns the number of inserted rows; 0 means the category already existed.
func (q *Queries) InsertCategory(ctx context.Context, arg InsertCategoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertCategory,
		arg.UserID,
		arg.Name,
		arg.Type,
		arg.Icon,
		arg.CreatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCategory = `
DELETE FROM categories WHERE user_id = ? AND name = ? AND type = ?
`

type DeleteCategoryParams struct {
	UserID string
	Name   string
	Type   string
}

func (q *Queries) DeleteCategory(ctx context.Context, arg DeleteCategoryParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCategory, arg.UserID, arg.Name, arg.Type)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getCategory = `
SELECT user_id, name, type, icon, created_at FROM categories
WHERE user_id = ? AND name = ? AND type = ?
`

type GetCategoryParams struct {
	UserID string
	Name   string
	Type   string
}

func (q *Queries) GetCategory(ctx context.Context, arg GetCategoryParams) (Category, error) {
	row := q.db.QueryRowContext(ctx, getCategory, arg.UserID, arg.Name, arg.Type)
	var i Category
	err := row.Scan(
		&i.UserID,
		&i.Name,
		&i.Type,
		&i.Icon,
		&i.CreatedAt,
	)
	return i, err
}

const listCategoriesByType = `
SELECT user_id, name, type, icon, created_at FROM categories
WHERE user_id = ? AND type = ?
ORDER BY name COLLATE NOCASE
`

type ListCategoriesByTypeParams struct {
	UserID string
	Type   string
}

func (q *Queries) ListCategoriesByType(ctx context.Context, arg ListCategoriesByTypeParams) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByType, arg.UserID, arg.Type)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var i Category
		if err := rows.Scan(
			&i.UserID,
			&i.Name,
			&i.Type,
			&i.Icon,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getUserSettings = `
SELECT user_id, currency, updated_at FROM user_settings WHERE user_id = ?
`

func (q *Queries) GetUserSettings(ctx context.Context, userID string) (UserSetting, error) {
	row := q.db.QueryRowContext(ctx, getUserSettings, userID)
	var i UserSetting
	err := row.Scan(&i.UserID, &i.Currency, &i.UpdatedAt)
	return i, err
}

const upsertUserSettings = `
INSERT INTO user_settings (user_id, currency, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET currency = excluded.currency, updated_at = excluded.updated_at
`

type UpsertUserSettingsParams struct {
	UserID    string
	Currency  string
	UpdatedAt int64
}

func (q *Queries) UpsertUserSettings(ctx context.Context, arg UpsertUserSettingsParams) error {
	_, err := q.db.ExecContext(ctx, upsertUserSettings, arg.UserID, arg.Currency, arg.UpdatedAt)
	return err
}

const insertCategoryEvent = `
INSERT INTO category_events (event_id, kind, user_id, name, type, icon, occurred_at, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (event_id) DO NOTHING
`

type InsertCategoryEventParams struct {
	EventID    string
	Kind       string
	UserID     string
	Name       string
	Type       string
	Icon       string
	OccurredAt int64
	RecordedAt int64
}

func (q *Queries) InsertCategoryEvent(ctx context.Context, arg InsertCategoryEventParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertCategoryEvent,
		arg.EventID,
		arg.Kind,
		arg.UserID,
		arg.Name,
		arg.Type,
		arg.Icon,
		arg.OccurredAt,
		arg.RecordedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listCategoryEvents = `
SELECT event_id, kind, user_id, name, type, icon, occurred_at, recorded_at FROM category_events
WHERE user_id = ?
ORDER BY occurred_at DESC
LIMIT ?
`

type ListCategoryEventsParams struct {
	UserID string
	Limit  int64
}

func (q *Queries) ListCategoryEvents(ctx context.Context, arg ListCategoryEventsParams) ([]CategoryEvent, error) {
	rows, err := q.db.QueryContext(ctx, listCategoryEvents, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryEvent
	for rows.Next() {
		var i CategoryEvent
		if err := rows.Scan(
			&i.EventID,
			&i.Kind,
			&i.UserID,
			&i.Name,
			&i.Type,
			&i.Icon,
			&i.OccurredAt,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
