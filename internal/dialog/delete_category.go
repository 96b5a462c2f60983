package dialog

import (
	"context"
	"errors"
	"sync"

	"budget/internal/core"
	"budget/internal/log"
)

var ErrTriggerRequired = errors.New("delete dialog requires a trigger")

// DeleteCategoryDialog asks for confirmation, then deletes exactly one category.
type DeleteCategoryDialog struct {
	category core.Category
	trigger  string
	deleter  CategoryDeleter
	env      Env

	mu      sync.Mutex
	phase   Phase
	pending bool
}

func NewDeleteCategoryDialog(category core.Category, trigger string, deleter CategoryDeleter, env Env) (*DeleteCategoryDialog, error) {
	if trigger == "" {
		return nil, ErrTriggerRequired
	}
	if deleter == nil {
		return nil, errors.New("category deleter is required")
	}
	return &DeleteCategoryDialog{
		category: category,
		trigger:  trigger,
		deleter:  deleter,
		env:      env,
	}, nil
}

func (d *DeleteCategoryDialog) Category() core.Category { return d.category }
func (d *DeleteCategoryDialog) Trigger() string         { return d.trigger }

// NotificationID is derived from the category identity so that deletions of
// different categories never share a notification.
func (d *DeleteCategoryDialog) NotificationID() string {
	return d.category.Identifier()
}

// Open shows the confirmation step.
func (d *DeleteCategoryDialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseClosed {
		d.phase = PhaseOpen
	}
}

// Cancel dismisses the confirmation without side effects.
func (d *DeleteCategoryDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.pending {
		d.phase = PhaseClosed
	}
}

func (d *DeleteCategoryDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase != PhaseClosed
}

func (d *DeleteCategoryDialog) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Confirm performs the deletion. Nothing happens unless the confirmation is open.
// The dialog closes after the action whatever its outcome.
func (d *DeleteCategoryDialog) Confirm(ctx context.Context) Result[struct{}] {
	d.mu.Lock()
	if d.phase == PhaseClosed {
		d.mu.Unlock()
		return Failure[struct{}](ErrDialogClosed)
	}
	if d.pending {
		d.mu.Unlock()
		return Failure[struct{}](ErrSubmitInFlight)
	}
	d.pending = true
	d.phase = PhaseSubmitting
	d.mu.Unlock()

	id := d.NotificationID()
	d.env.notify(ctx, id, KindLoading, "Deleting category...")

	res := d.deleter.DeleteCategory(ctx, core.DeleteCategoryInput{
		Name: d.category.Name,
		Type: d.category.Type,
	})

	if res.Ok() {
		d.setPhase(PhaseSucceeded)
		d.env.notify(ctx, id, KindSuccess, "Category deleted successfully")
		d.env.invalidate(ctx, CategoriesKey)
	} else {
		d.setPhase(PhaseFailed)
		d.env.log(ctx).WarnContext(ctx, "Category deletion failed",
			log.FieldCategoryName, d.category.Name,
			log.FieldCategoryType, d.category.Type,
			log.FieldError, res.Err)
		d.env.notify(ctx, id, KindError, "Error while deleting category")
	}

	d.mu.Lock()
	d.pending = false
	d.phase = PhaseClosed
	d.mu.Unlock()
	return res
}

func (d *DeleteCategoryDialog) setPhase(p Phase) {
	d.mu.Lock()
	d.phase = p
	d.mu.Unlock()
}
