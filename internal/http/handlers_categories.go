package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/dialog"
	"budget/internal/log"
	"budget/internal/session"
)

const defaultDeleteTrigger = "Delete"

type categoryListView struct {
	Type       core.TransactionType
	Categories []core.Category
	Failed     bool
}

type createDialogView struct {
	Type      core.TransactionType
	Trigger   string
	Open      bool
	Name      string
	Icon      string
	Errors    map[string]string
	FormError string
	Palette   []string
}

func newCreateDialogView(d *dialog.CreateCategoryDialog, formError string) createDialogView {
	form := d.Form()
	return createDialogView{
		Type:      d.Type(),
		Trigger:   d.Trigger(),
		Open:      d.IsOpen(),
		Name:      form.Name,
		Icon:      form.Icon,
		Errors:    fieldMessages(d.FieldErrors()),
		FormError: formError,
		Palette:   emojiPalette,
	}
}

type deleteDialogView struct {
	Category       core.Category
	Trigger        string
	Open           bool
	NotificationID string
}

func newDeleteDialogView(d *dialog.DeleteCategoryDialog) deleteDialogView {
	return deleteDialogView{
		Category:       d.Category(),
		Trigger:        d.Trigger(),
		Open:           d.IsOpen(),
		NotificationID: d.NotificationID(),
	}
}

func typeLabel(t core.TransactionType) string {
	switch t {
	case core.Income:
		return "Income"
	case core.Expense:
		return "Expense"
	default:
		return string(t)
	}
}

// domID derives a stable element id from arbitrary text such as a category identifier.
func domID(prefix, s string) string {
	return prefix + "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(s)).String()
}

// listCategories serves category lists from the query cache
func (s *Server) listCategories(ctx context.Context, t core.TransactionType) ([]core.Category, error) {
	key := cache.Key(dialog.CategoriesKey, session.UserID(ctx), t.String())
	return s.categoryQuery.Fetch(ctx, key, func(ctx context.Context) ([]core.Category, error) {
		return s.categories.ListCategories(ctx, t)
	})
}

// dialogEnv wires a dialog to this response, the user's notification registry
// and the category cache.
func (s *Server) dialogEnv(ctx context.Context, b *HTMXResponseBuilder) dialog.Env {
	return dialog.Env{
		Notifier:    dialog.Fanout{newResponseNotifier(b), userNotifications{registry: s.notifications}},
		Invalidator: invalidator{next: s.categoryQuery, builder: b},
		Logger:      log.FromContext(ctx).WithComponent(log.ComponentDialog),
	}
}

func (s *Server) newCreateDialog(t core.TransactionType, trigger string) (*dialog.CreateCategoryDialog, error) {
	return dialog.NewCreateCategoryDialog(dialog.CreateCategoryConfig{Type: t, Trigger: trigger}, s.categories, dialog.Env{})
}

// handleCategoryList renders one type's category list partial
func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	t, errResp := ParseTypeOrFail(r.URL.Query().Get("type"))
	if errResp != nil {
		errResp.Write(w)
		return
	}

	list, err := s.listCategories(r.Context(), t)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category list error",
			log.FieldCategoryType, t,
			log.FieldOperation, log.OpList,
			log.FieldError, err)
	}
	s.render(w, r, NewHTMXResponse(), "category_list", categoryListView{Type: t, Categories: list, Failed: err != nil})
}

// handleCreateDialog renders the creation dialog open, or closed with state=closed (cancel)
func (s *Server) handleCreateDialog(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	q := r.URL.Query()
	t, errResp := ParseTypeOrFail(q.Get("type"))
	if errResp != nil {
		errResp.Write(w)
		return
	}

	d, err := s.newCreateDialog(t, sanitizeInput(q.Get("trigger")))
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create dialog setup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	if q.Get("state") == "closed" {
		d.Cancel()
	} else {
		d.Open()
	}
	s.render(w, r, NewHTMXResponse(), "create_dialog", newCreateDialogView(d, ""))
}

// handleCreateCategory submits the creation dialog.
//
// Validation failures answer 422 with the form and its inline errors. Remote
// failures answer 200 with the form, the entered values and an error
// notification. On success the closed dialog is returned with the created
// category, a cache invalidation and the close event in HX-Trigger.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	t, errResp := ParseTypeOrFail(parser.Get("type"))
	if errResp != nil {
		errResp.Write(w)
		return
	}

	b := NewHTMXResponse()
	env := s.dialogEnv(ctx, b)
	d, err := dialog.NewCreateCategoryDialog(dialog.CreateCategoryConfig{
		Type:    t,
		Trigger: parser.Get("trigger"),
		SuccessCallback: func(c core.Category) {
			b.TriggerCategoryCreated(c)
		},
	}, s.categories, env)
	if err != nil {
		s.logger.ErrorContext(ctx, "Create dialog setup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	d.Open()
	d.SetName(parser.Get("name"))
	d.SelectEmoji(parser.Get("icon"))

	res := d.Submit(ctx)
	if !res.Ok() {
		var fieldErrs core.FieldErrors
		if errors.As(res.Err, &fieldErrs) && len(d.FieldErrors()) > 0 {
			s.render(w, r, b.Status(http.StatusUnprocessableEntity), "create_dialog", newCreateDialogView(d, ""))
			return
		}
		s.render(w, r, b, "create_dialog", newCreateDialogView(d, userMessage(res.Err)))
		return
	}

	atomic.AddInt64(&s.appMetrics.categoriesCreated, 1)
	b.TriggerFormReset().TriggerDialogClose()
	s.render(w, r, b, "create_dialog", newCreateDialogView(d, ""))
}

// handleDeleteDialog renders the confirmation step, or the closed trigger with state=closed
func (s *Server) handleDeleteDialog(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	q := r.URL.Query()
	t, errResp := ParseTypeOrFail(q.Get("type"))
	if errResp != nil {
		errResp.Write(w)
		return
	}
	name := sanitizeInput(q.Get("name"))

	c, err := s.categories.GetCategory(r.Context(), name, t)
	if errors.Is(err, core.ErrCategoryNotFound) {
		NotFoundError("Category not found").Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category lookup failed", log.FieldCategoryName, name, log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}

	trigger := sanitizeInput(q.Get("trigger"))
	if trigger == "" {
		trigger = defaultDeleteTrigger
	}
	d, err := dialog.NewDeleteCategoryDialog(c, trigger, s.categories, dialog.Env{})
	if err != nil {
		InternalServerError("Something went wrong").Write(w)
		return
	}
	if q.Get("state") == "closed" {
		d.Cancel()
	} else {
		d.Open()
	}
	s.render(w, r, NewHTMXResponse(), "delete_dialog", newDeleteDialogView(d))
}

// handleDeleteCategory confirms a deletion. The dialog closes whatever the outcome.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireDeleteOrPOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	t, errResp := ParseTypeOrFail(parser.Get("type"))
	if errResp != nil {
		errResp.Write(w)
		return
	}
	target := core.Category{Name: parser.Get("name"), Type: t}
	if err := (core.DeleteCategoryInput{Name: target.Name, Type: t}).Validate(); err != nil {
		UnprocessableEntityError("Category name is required").Write(w)
		return
	}

	trigger := parser.Get("trigger")
	if trigger == "" {
		trigger = defaultDeleteTrigger
	}

	b := NewHTMXResponse()
	env := s.dialogEnv(ctx, b)
	d, err := dialog.NewDeleteCategoryDialog(target, trigger, s.categories, env)
	if err != nil {
		InternalServerError("Something went wrong").Write(w)
		return
	}
	d.Open()

	if res := d.Confirm(ctx); res.Ok() {
		atomic.AddInt64(&s.appMetrics.categoriesDeleted, 1)
		b.TriggerCategoryDeleted(target)
	}
	b.TriggerDialogClose()
	s.render(w, r, b, "delete_dialog", newDeleteDialogView(d))
}
