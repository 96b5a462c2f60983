package memory

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"budget/internal/core"
)

type categoryKey struct {
	name string
	t    core.TransactionType
}

// Store keeps categories, settings and events in process memory.
// Every user starts with a copy of the seed categories.
type Store struct {
	mu       sync.Mutex
	seeds    []core.CreateCategoryInput
	users    map[string]map[categoryKey]core.Category
	settings map[string]core.UserSettings
	events   map[string]core.CategoryEvent
	now      func() time.Time
}

func New(seeds []core.CreateCategoryInput) *Store {
	return &Store{
		seeds:    dedupe(seeds),
		users:    make(map[string]map[categoryKey]core.Category),
		settings: make(map[string]core.UserSettings),
		events:   make(map[string]core.CategoryEvent),
		now:      time.Now,
	}
}

// NewFromFile seeds the store from lines of the form "type|icon|name".
// A missing file falls back to a small default set.
func NewFromFile(path string) *Store {
	seeds := readSeeds(path)
	if len(seeds) == 0 {
		seeds = []core.CreateCategoryInput{
			{Type: core.Income, Icon: "💰", Name: "Salary"},
			{Type: core.Expense, Icon: "🏠", Name: "Home"},
			{Type: core.Expense, Icon: "🛒", Name: "Groceries"},
			{Type: core.Expense, Icon: "🚌", Name: "Transport"},
		}
	}
	return New(seeds)
}

func (s *Store) CreateCategory(_ context.Context, userID string, in core.CreateCategoryInput) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := s.userCategories(userID)
	k := categoryKey{name: in.Name, t: in.Type}
	if _, ok := cats[k]; ok {
		return core.Category{}, core.ErrCategoryExists
	}
	c := core.Category{UserID: userID, Name: in.Name, Icon: in.Icon, Type: in.Type, CreatedAt: s.now().UTC()}
	cats[k] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, userID string, in core.DeleteCategoryInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cats := s.userCategories(userID)
	k := categoryKey{name: in.Name, t: in.Type}
	if _, ok := cats[k]; !ok {
		return core.ErrCategoryNotFound
	}
	delete(cats, k)
	return nil
}

func (s *Store) GetCategory(_ context.Context, userID, name string, t core.TransactionType) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.userCategories(userID)[categoryKey{name: name, t: t}]
	if !ok {
		return core.Category{}, core.ErrCategoryNotFound
	}
	return c, nil
}

// ListCategories returns the user's categories of type t sorted by name.
func (s *Store) ListCategories(_ context.Context, userID string, t core.TransactionType) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0)
	for k, c := range s.userCategories(userID) {
		if k.t == t {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, userID string) (core.UserSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[userID]
	return v, ok, nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = settings
	return nil
}

func (s *Store) RecordCategoryEvent(_ context.Context, ev core.CategoryEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[ev.ID]; !ok {
		s.events[ev.ID] = ev
	}
	return nil
}

// ListCategoryEvents returns the user's events, newest first.
func (s *Store) ListCategoryEvents(_ context.Context, userID string, limit int) ([]core.CategoryEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.CategoryEvent
	for _, ev := range s.events {
		if ev.Category.UserID == userID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) HealthCheck(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// userCategories must be called with s.mu held.
func (s *Store) userCategories(userID string) map[categoryKey]core.Category {
	cats, ok := s.users[userID]
	if ok {
		return cats
	}
	cats = make(map[categoryKey]core.Category, len(s.seeds))
	created := s.now().UTC()
	for _, in := range s.seeds {
		cats[categoryKey{name: in.Name, t: in.Type}] = core.Category{
			UserID: userID, Name: in.Name, Icon: in.Icon, Type: in.Type, CreatedAt: created,
		}
	}
	s.users[userID] = cats
	return cats
}

func readSeeds(path string) []core.CreateCategoryInput {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.CreateCategoryInput
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			continue
		}
		t, err := core.ParseTransactionType(parts[0])
		if err != nil {
			continue
		}
		in := core.CreateCategoryInput{Type: t, Icon: parts[1], Name: parts[2]}.Normalized()
		if in.Validate() != nil {
			continue
		}
		out = append(out, in)
	}
	return dedupe(out)
}

func dedupe(in []core.CreateCategoryInput) []core.CreateCategoryInput {
	seen := map[categoryKey]struct{}{}
	out := make([]core.CreateCategoryInput, 0, len(in))
	for _, v := range in {
		k := categoryKey{name: v.Name, t: v.Type}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
