package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
	"budget/internal/dialog"
	"budget/internal/log"
	"budget/internal/ports"
	"budget/internal/session"
)

// ErrNoUser is returned when a request context carries no user.
var ErrNoUser = errors.New("no user in context")

// CategoryService persists category mutations and announces them on the event bus
type CategoryService struct {
	store     ports.CategoryStore
	publisher ports.EventPublisher
	logger    *log.Logger
	now       func() time.Time
	newID     func() string
}

// NewCategoryService builds the service. publisher may be nil when no broker is configured.
func NewCategoryService(store ports.CategoryStore, publisher ports.EventPublisher, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &CategoryService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentCategory),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// CreateCategory implements dialog.CategoryCreator
func (s *CategoryService) CreateCategory(ctx context.Context, in core.CreateCategoryInput) dialog.Result[core.Category] {
	userID := session.UserID(ctx)
	if userID == "" {
		return dialog.Failure[core.Category](ErrNoUser)
	}
	in = in.Normalized()
	if errs := in.Validate(); errs != nil {
		return dialog.Failure[core.Category](errs)
	}

	// Save first, the event is best effort
	c, err := s.store.CreateCategory(ctx, userID, in)
	if err != nil {
		s.logger.WarnContext(ctx, "Category creation failed", log.NewFields().
			WithOperation(log.OpCreate).
			WithUser(userID).
			WithCategory(in.Name, in.Type.String(), in.Icon).
			WithError(err).
			ToSlice()...)
		return dialog.Failure[core.Category](fmt.Errorf("create category: %w", err))
	}

	s.logger.InfoContext(ctx, "Category created", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(userID).
		WithCategory(c.Name, c.Type.String(), c.Icon).
		ToSlice()...)

	s.publish(ctx, core.CategoryCreated, c)
	return dialog.Success(c)
}

// DeleteCategory implements dialog.CategoryDeleter
func (s *CategoryService) DeleteCategory(ctx context.Context, in core.DeleteCategoryInput) dialog.Result[struct{}] {
	userID := session.UserID(ctx)
	if userID == "" {
		return dialog.Failure[struct{}](ErrNoUser)
	}
	if err := in.Validate(); err != nil {
		return dialog.Failure[struct{}](err)
	}

	// Fetch first so the event carries the icon
	c, err := s.store.GetCategory(ctx, userID, in.Name, in.Type)
	if err != nil {
		return dialog.Failure[struct{}](fmt.Errorf("delete category: %w", err))
	}
	if err := s.store.DeleteCategory(ctx, userID, in); err != nil {
		s.logger.WarnContext(ctx, "Category deletion failed", log.NewFields().
			WithOperation(log.OpDelete).
			WithUser(userID).
			WithCategory(in.Name, in.Type.String(), "").
			WithError(err).
			ToSlice()...)
		return dialog.Failure[struct{}](fmt.Errorf("delete category: %w", err))
	}

	s.logger.InfoContext(ctx, "Category deleted", log.NewFields().
		WithOperation(log.OpDelete).
		WithUser(userID).
		WithCategory(in.Name, in.Type.String(), "").
		ToSlice()...)

	s.publish(ctx, core.CategoryDeleted, c)
	return dialog.Success(struct{}{})
}

// ListCategories returns the current user's categories of type t
func (s *CategoryService) ListCategories(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return nil, ErrNoUser
	}
	if !t.IsValid() {
		return nil, core.ErrInvalidType
	}
	categories, err := s.store.ListCategories(ctx, userID, t)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory returns one of the current user's categories
func (s *CategoryService) GetCategory(ctx context.Context, name string, t core.TransactionType) (core.Category, error) {
	userID := session.UserID(ctx)
	if userID == "" {
		return core.Category{}, ErrNoUser
	}
	return s.store.GetCategory(ctx, userID, name, t)
}

func (s *CategoryService) publish(ctx context.Context, kind core.CategoryEventKind, c core.Category) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not available, skipping category event")
		return
	}
	ev := core.CategoryEvent{
		ID:         s.newID(),
		Kind:       kind,
		Category:   c,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishCategoryEvent(ctx, ev); err != nil {
		// the mutation is already stored
		s.logger.ErrorContext(ctx, "Failed to publish category event",
			log.FieldEventID, ev.ID,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}
