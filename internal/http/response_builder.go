// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing HTMX responses.
// It provides a type-safe, fluent API for building HX-Trigger headers and
// consistent response formatting.

package http

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"budget/internal/core"
	"budget/internal/dialog"
)

// Client-side events raised through HX-Trigger.
const (
	EventShowNotification     = "show-notification"
	EventCategoryCreated      = "category:created"
	EventCategoryDeleted      = "category:deleted"
	EventCategoriesInvalidate = "categories:invalidate"
	EventDialogClose          = "dialog:close"
	EventFormReset            = "form:reset"
	EventSettingsUpdated      = "settings:updated"
)

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
// It encapsulates the construction of HX-Trigger headers and response bodies.
type HTMXResponseBuilder struct {
	triggers   map[string]interface{}
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]interface{}),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
// A later trigger with the same name replaces the earlier one.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// HasTrigger reports whether name is already set.
func (b *HTMXResponseBuilder) HasTrigger(name string) bool {
	_, ok := b.triggers[name]
	return ok
}

// categoryPayload is the JSON shape of a category in trigger data.
type categoryPayload struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
	Type string `json:"type"`
}

func newCategoryPayload(c core.Category) categoryPayload {
	return categoryPayload{Name: c.Name, Icon: c.Icon, Type: c.Type.String()}
}

// TriggerCategoryCreated hands the created category to client-side listeners.
func (b *HTMXResponseBuilder) TriggerCategoryCreated(c core.Category) *HTMXResponseBuilder {
	return b.Trigger(EventCategoryCreated, newCategoryPayload(c))
}

func (b *HTMXResponseBuilder) TriggerCategoryDeleted(c core.Category) *HTMXResponseBuilder {
	return b.Trigger(EventCategoryDeleted, newCategoryPayload(c))
}

// TriggerCategoriesInvalidate tells every category list to refetch.
func (b *HTMXResponseBuilder) TriggerCategoriesInvalidate() *HTMXResponseBuilder {
	return b.Trigger(EventCategoriesInvalidate, struct{}{})
}

func (b *HTMXResponseBuilder) TriggerDialogClose() *HTMXResponseBuilder {
	return b.Trigger(EventDialogClose, struct{}{})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger(EventFormReset, struct{}{})
}

func (b *HTMXResponseBuilder) TriggerSettingsUpdated(c core.Currency) *HTMXResponseBuilder {
	return b.Trigger(EventSettingsUpdated, map[string]string{"currency": c.Value, "label": c.Label})
}

// Notification display durations in milliseconds. Zero keeps it until replaced.
const (
	successDurationMs = 3000
	errorDurationMs   = 5000
)

// TriggerNotification adds a show-notification trigger. Notifications with the
// same ID replace one another on the client too.
func (b *HTMXResponseBuilder) TriggerNotification(n dialog.Notification) *HTMXResponseBuilder {
	duration := 0
	switch n.Kind {
	case dialog.KindSuccess:
		duration = successDurationMs
	case dialog.KindError:
		duration = errorDurationMs
	}
	return b.Trigger(EventShowNotification, map[string]interface{}{
		"id":       n.ID,
		"type":     string(n.Kind),
		"message":  n.Message,
		"duration": duration,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(id, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(dialog.Notification{ID: id, Kind: dialog.KindSuccess, Message: message})
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(id, message string) *HTMXResponseBuilder {
	return b.TriggerNotification(dialog.Notification{ID: id, Kind: dialog.KindError, Message: message})
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// BodyTemplate renders the named template into the body.
func (b *HTMXResponseBuilder) BodyTemplate(t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = buf.Bytes()
	return nil
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
