// Package dialog implements the category dialogs as server-side components.
//
// A dialog owns its own form state and an explicit phase. Shared state that
// outlives a dialog (notifications, cached category lists) is reached only
// through the Env handle given at construction.
package dialog

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

// CategoriesKey is the query-cache key holding every category list.
const CategoriesKey = "categories"

// CreateCategoryNotificationID is shared by every creation dialog.
const CreateCategoryNotificationID = "create-category"

// Kind is the visual state of a notification.
type Kind string

const (
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a status message. Notifications sharing an ID replace one another.
type Notification struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"type"`
	Message string    `json:"message"`
	At      time.Time `json:"-"`
}

type (
	Notifier interface {
		Notify(ctx context.Context, n Notification)
	}

	// Invalidator marks cached data under key as stale.
	Invalidator interface {
		Invalidate(ctx context.Context, key string) error
	}

	CategoryCreator interface {
		CreateCategory(ctx context.Context, in core.CreateCategoryInput) Result[core.Category]
	}

	CategoryDeleter interface {
		DeleteCategory(ctx context.Context, in core.DeleteCategoryInput) Result[struct{}]
	}
)

// Env is the explicit handle to process-wide state used by dialogs.
type Env struct {
	Notifier    Notifier
	Invalidator Invalidator
	Logger      *log.Logger
}

func (e Env) notify(ctx context.Context, id string, kind Kind, msg string) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(ctx, Notification{ID: id, Kind: kind, Message: msg, At: time.Now()})
}

func (e Env) invalidate(ctx context.Context, key string) {
	if e.Invalidator == nil {
		return
	}
	if err := e.Invalidator.Invalidate(ctx, key); err != nil {
		e.log(ctx).WarnContext(ctx, "Cache invalidation failed",
			log.FieldCacheKey, key,
			log.FieldError, err)
	}
}

func (e Env) log(ctx context.Context) *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.FromContext(ctx).WithComponent(log.ComponentDialog)
}

// Result is the outcome of a remote mutation: either Value or Err.
type Result[T any] struct {
	Value T
	Err   error
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failure[T any](err error) Result[T] {
	if err == nil {
		err = errors.New("unknown failure")
	}
	return Result[T]{Err: err}
}

func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Fanout delivers every notification to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

// Registry keeps the current notification per ID for the whole process.
type Registry struct {
	mu           sync.Mutex
	ttl          time.Duration
	active       map[string]Notification
	replacements int64
}

// NewRegistry creates a registry whose finished notifications expire after ttl.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Registry{ttl: ttl, active: make(map[string]Notification)}
}

func (r *Registry) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[n.ID]; ok {
		atomic.AddInt64(&r.replacements, 1)
	}
	r.active[n.ID] = n
}

// Get returns the notification currently shown under id.
func (r *Registry) Get(id string) (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.active[id]
	return n, ok
}

// Active lists visible notifications ordered by ID.
func (r *Registry) Active() []Notification {
	r.mu.Lock()
	out := make([]Notification, 0, len(r.active))
	for _, n := range r.active {
		out = append(out, n)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Dismiss(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

// Replacements counts how many notifications replaced an existing one.
func (r *Registry) Replacements() int64 {
	return atomic.LoadInt64(&r.replacements)
}

// CleanExpired drops finished notifications older than the TTL.
// Loading notifications stay until replaced.
func (r *Registry) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-r.ttl)
	removed := 0
	for id, n := range r.active {
		if n.Kind != KindLoading && n.At.Before(cutoff) {
			delete(r.active, id)
			removed++
		}
	}
	return removed
}
