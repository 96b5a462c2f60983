package core

import "time"

// CategoryEventKind names what happened to a category.
type CategoryEventKind string

const (
	CategoryCreated CategoryEventKind = "category.created"
	CategoryDeleted CategoryEventKind = "category.deleted"
)

// CategoryEvent records a completed category mutation.
type CategoryEvent struct {
	ID         string
	Kind       CategoryEventKind
	Category   Category
	OccurredAt time.Time
}
