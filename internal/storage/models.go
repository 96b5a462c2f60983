package storage

type Category struct {
	UserID    string
	Name      string
	Type      string
	Icon      string
	CreatedAt int64
}

type UserSetting struct {
	UserID    string
	Currency  string
	UpdatedAt int64
}

type CategoryEvent struct {
	EventID    string
	Kind       string
	UserID     string
	Name       string
	Type       string
	Icon       string
	OccurredAt int64
	RecordedAt int64
}
