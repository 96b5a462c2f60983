package dialog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budget/internal/core"
	"budget/internal/log"
)

// Phase is the lifecycle position of a dialog.
type Phase int

const (
	PhaseClosed Phase = iota
	PhaseOpen
	PhaseValidating
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseClosed:
		return "closed"
	case PhaseOpen:
		return "open"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// DefaultCreateTrigger is the trigger label used when the caller supplies none.
const DefaultCreateTrigger = "Create category"

var (
	ErrDialogClosed   = errors.New("dialog is closed")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
)

// CategoryForm holds the editable fields of the creation dialog.
type CategoryForm struct {
	Name string
	Icon string
}

// CreateCategoryConfig configures a creation dialog.
type CreateCategoryConfig struct {
	Type            core.TransactionType
	Trigger         string
	SuccessCallback func(core.Category)
}

// CreateCategoryDialog collects a name and an emoji and creates one category of a fixed type.
type CreateCategoryDialog struct {
	typ      core.TransactionType
	trigger  string
	callback func(core.Category)
	creator  CategoryCreator
	env      Env

	mu          sync.Mutex
	phase       Phase
	form        CategoryForm
	pending     bool
	fieldErrors core.FieldErrors
}

func NewCreateCategoryDialog(cfg CreateCategoryConfig, creator CategoryCreator, env Env) (*CreateCategoryDialog, error) {
	if !cfg.Type.IsValid() {
		return nil, core.ErrInvalidType
	}
	if creator == nil {
		return nil, errors.New("category creator is required")
	}
	trigger := cfg.Trigger
	if trigger == "" {
		trigger = DefaultCreateTrigger
	}
	return &CreateCategoryDialog{
		typ:      cfg.Type,
		trigger:  trigger,
		callback: cfg.SuccessCallback,
		creator:  creator,
		env:      env,
	}, nil
}

func (d *CreateCategoryDialog) Type() core.TransactionType { return d.typ }
func (d *CreateCategoryDialog) Trigger() string            { return d.trigger }

func (d *CreateCategoryDialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseClosed {
		d.phase = PhaseOpen
	}
}

// Cancel resets the form and closes the dialog. It has no remote effect.
func (d *CreateCategoryDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form = CategoryForm{}
	d.fieldErrors = nil
	d.phase = PhaseClosed
}

func (d *CreateCategoryDialog) SetName(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form.Name = name
}

// SelectEmoji stores the glyph produced by the emoji picker.
func (d *CreateCategoryDialog) SelectEmoji(glyph string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.form.Icon = glyph
}

func (d *CreateCategoryDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase != PhaseClosed
}

func (d *CreateCategoryDialog) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *CreateCategoryDialog) Form() CategoryForm {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.form
}

func (d *CreateCategoryDialog) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// FieldErrors returns the inline errors of the last validation, nil when valid.
func (d *CreateCategoryDialog) FieldErrors() core.FieldErrors {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fieldErrors
}

// Submit validates the form and, when valid, issues exactly one creation request.
//
// On success the form is reset, a success notification is shown, the category
// cache is invalidated, the callback receives the created category and the
// dialog closes, in that order. On failure an error notification replaces the
// loading one and the dialog stays open with the entered values.
func (d *CreateCategoryDialog) Submit(ctx context.Context) Result[core.Category] {
	d.mu.Lock()
	if d.phase == PhaseClosed {
		d.mu.Unlock()
		return Failure[core.Category](ErrDialogClosed)
	}
	if d.pending {
		d.mu.Unlock()
		return Failure[core.Category](ErrSubmitInFlight)
	}
	d.phase = PhaseValidating
	input := core.CreateCategoryInput{Type: d.typ, Name: d.form.Name, Icon: d.form.Icon}.Normalized()
	if errs := input.Validate(); errs != nil {
		d.fieldErrors = errs
		d.phase = PhaseOpen
		d.mu.Unlock()
		return Failure[core.Category](errs)
	}
	d.fieldErrors = nil
	d.pending = true
	d.phase = PhaseSubmitting
	d.mu.Unlock()

	d.env.notify(ctx, CreateCategoryNotificationID, KindLoading, "Creating category...")

	res := d.creator.CreateCategory(ctx, input)
	if !res.Ok() {
		d.mu.Lock()
		d.pending = false
		d.phase = PhaseFailed
		d.mu.Unlock()

		d.env.log(ctx).WarnContext(ctx, "Category creation failed",
			log.FieldCategoryName, input.Name,
			log.FieldCategoryType, input.Type,
			log.FieldError, res.Err)
		d.env.notify(ctx, CreateCategoryNotificationID, KindError, "Something went wrong")

		d.mu.Lock()
		d.phase = PhaseOpen
		d.mu.Unlock()
		return res
	}

	d.mu.Lock()
	d.form = CategoryForm{}
	d.pending = false
	d.phase = PhaseSucceeded
	d.mu.Unlock()

	d.env.notify(ctx, CreateCategoryNotificationID, KindSuccess,
		fmt.Sprintf("Category %s created successfully 🎉", res.Value.Name))

	d.env.invalidate(ctx, CategoriesKey)

	if d.callback != nil {
		d.callback(res.Value)
	}

	d.mu.Lock()
	d.phase = PhaseClosed
	d.mu.Unlock()
	return res
}
