package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"budget/internal/log"
)

// QueryClient caches query results by key. Invalidating a key drops the key
// itself and every key nested under it ("categories" covers "categories:u1:income").
// Concurrent misses on the same key share a single load.
type QueryClient[T any] struct {
	cache  Cache[T]
	group  singleflight.Group
	logger *log.Logger

	mu         sync.Mutex
	generation int64 // bumped on every invalidation, guarded by mu

	hits          int64
	misses        int64
	invalidations int64
}

// Stats is a snapshot of query cache counters
type Stats struct {
	Hits          int64
	Misses        int64
	Invalidations int64
	Entries       int
}

func NewQueryClient[T any](c Cache[T], logger *log.Logger) *QueryClient[T] {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &QueryClient[T]{cache: c, logger: logger.WithComponent(log.ComponentCache)}
}

// Key joins query key parts with ':'
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// maxLoadAttempts bounds how often Fetch reloads when invalidations keep
// landing while a load is in flight.
const maxLoadAttempts = 3

// Fetch returns the cached value for key or loads, caches and returns it.
// Loader errors are returned and nothing is cached. A load that overlaps an
// invalidation is never cached and is retried, so callers fetching after an
// invalidation do not see data loaded before it.
func (q *QueryClient[T]) Fetch(ctx context.Context, key string, load func(context.Context) (T, error)) (T, error) {
	var (
		value T
		err   error
	)
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		if v, ok := q.cache.Get(key); ok {
			atomic.AddInt64(&q.hits, 1)
			return v, nil
		}
		atomic.AddInt64(&q.misses, 1)

		gen := q.currentGeneration()
		var fresh bool
		value, fresh, err = q.load(ctx, key, gen, load)
		if err != nil || fresh {
			return value, err
		}
		q.logger.DebugContext(ctx, "Query load raced an invalidation, reloading",
			log.FieldCacheKey, key,
			"attempt", attempt+1)
	}
	return value, err
}

// load runs one shared load for key within generation gen. fresh is false
// when an invalidation happened while the load was running.
func (q *QueryClient[T]) load(ctx context.Context, key string, gen int64, load func(context.Context) (T, error)) (value T, fresh bool, err error) {
	// loads from different generations never share a result
	flightKey := key + "#" + strconv.FormatInt(gen, 10)
	v, err, shared := q.group.Do(flightKey, func() (any, error) {
		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		q.mu.Lock()
		if q.generation == gen {
			q.cache.Set(key, value)
		}
		q.mu.Unlock()
		return value, nil
	})
	if shared {
		q.logger.DebugContext(ctx, "Query load shared", log.FieldCacheKey, key)
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v.(T), q.currentGeneration() == gen, nil
}

func (q *QueryClient[T]) currentGeneration() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generation
}

// Invalidate drops key and all keys nested under it.
func (q *QueryClient[T]) Invalidate(ctx context.Context, key string) error {
	q.mu.Lock()
	q.generation++
	q.cache.Delete(key)
	removed := q.cache.DeletePrefix(key + ":")
	q.mu.Unlock()

	atomic.AddInt64(&q.invalidations, 1)
	q.logger.DebugContext(ctx, "Query cache invalidated",
		log.FieldCacheKey, key,
		log.FieldOperation, log.OpInvalidate,
		"entries_removed", removed)
	return nil
}

func (q *QueryClient[T]) Stats() Stats {
	return Stats{
		Hits:          atomic.LoadInt64(&q.hits),
		Misses:        atomic.LoadInt64(&q.misses),
		Invalidations: atomic.LoadInt64(&q.invalidations),
		Entries:       q.cache.Size(),
	}
}
