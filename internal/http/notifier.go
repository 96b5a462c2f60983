package http

import (
	"context"
	"net/url"
	"sync"

	"budget/internal/dialog"
	"budget/internal/session"
)

// responseNotifier collects dialog notifications into the HTMX response.
// Only the last notification per response survives, matching the
// replace-by-id rule since one request drives one dialog.
type responseNotifier struct {
	mu      sync.Mutex
	builder *HTMXResponseBuilder
}

func newResponseNotifier(b *HTMXResponseBuilder) *responseNotifier {
	return &responseNotifier{builder: b}
}

func (n *responseNotifier) Notify(_ context.Context, note dialog.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.builder.TriggerNotification(note)
}

// userNotifications scopes a process-wide registry by user so that two users
// never see each other's notifications under a shared id.
type userNotifications struct {
	registry *dialog.Registry
}

// registryKey escapes the user id so the first "/" always ends it.
func registryKey(userID, id string) string {
	return url.PathEscape(userID) + "/" + id
}

func (u userNotifications) Notify(ctx context.Context, n dialog.Notification) {
	n.ID = registryKey(session.UserID(ctx), n.ID)
	u.registry.Notify(ctx, n)
}

// Get returns the user's current notification under id.
func (u userNotifications) Get(ctx context.Context, id string) (dialog.Notification, bool) {
	n, ok := u.registry.Get(registryKey(session.UserID(ctx), id))
	if ok {
		n.ID = id
	}
	return n, ok
}

// invalidator drops cached query data and tells the page to refetch.
type invalidator struct {
	next    dialog.Invalidator
	builder *HTMXResponseBuilder
}

func (i invalidator) Invalidate(ctx context.Context, key string) error {
	if key == dialog.CategoriesKey {
		i.builder.TriggerCategoriesInvalidate()
	}
	if i.next == nil {
		return nil
	}
	return i.next.Invalidate(ctx, key)
}
