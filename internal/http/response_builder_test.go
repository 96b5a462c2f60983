package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"budget/internal/core"
	"budget/internal/dialog"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerCategoryCreated(core.Category{Name: "Salary", Icon: "💰", Type: core.Income}).
		TriggerCategoriesInvalidate().
		TriggerDialogClose().
		TriggerFormReset().
		TriggerSuccessNotification("create-category", "Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trigger), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{EventCategoryCreated, EventCategoriesInvalidate, EventDialogClose, EventFormReset, EventShowNotification} {
		if _, ok := got[name]; !ok {
			t.Errorf("HX-Trigger missing %q: %s", name, trigger)
		}
	}

	expectedParts := []string{
		`"name":"Salary"`,
		`"type":"income"`,
		`"id":"create-category"`,
		`"type":"success"`,
		`"duration":3000`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_NotificationReplaced(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerNotification(dialog.Notification{ID: "x", Kind: dialog.KindLoading, Message: "Creating category..."}).
		TriggerErrorNotification("x", "Something went wrong").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if strings.Contains(trigger, "Creating") {
		t.Errorf("loading notification should have been replaced: %s", trigger)
	}
	if !strings.Contains(trigger, `"duration":5000`) {
		t.Errorf("error notification duration missing: %s", trigger)
	}
}

func TestHTMXResponseBuilder_SettingsUpdated(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := core.LookupCurrency("USD")

	NewHTMXResponse().TriggerSettingsUpdated(c).Write(w)

	if trigger := w.Header().Get("HX-Trigger"); !strings.Contains(trigger, `"settings:updated":{"currency":"USD"`) {
		t.Errorf("unexpected trigger: %s", trigger)
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid input</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Validation failed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">Validation failed</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Resource not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error">Resource not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "GET, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "GET, POST")
	}
}

func TestNotificationDurations(t *testing.T) {
	tests := []struct {
		kind dialog.Kind
		want string
	}{
		{dialog.KindLoading, `"duration":0`},
		{dialog.KindSuccess, `"duration":3000`},
		{dialog.KindError, `"duration":5000`},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(dialog.Notification{ID: "n", Kind: tt.kind, Message: "test"}).
			Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, `"type":"`+string(tt.kind)+`"`) || !strings.Contains(trigger, tt.want) {
			t.Errorf("kind %q: unexpected trigger %s", tt.kind, trigger)
		}
	}
}

func TestBodyTemplate(t *testing.T) {
	tmpl := template.Must(template.New("x").Parse(`{{define "greet"}}<p>{{.}}</p>{{end}}`))
	b := NewHTMXResponse()
	if err := b.BodyTemplate(tmpl, "greet", "<b>hi</b>"); err != nil {
		t.Fatal(err)
	}
	w := httptest.NewRecorder()
	b.Write(w)
	if w.Body.String() != "<p>&lt;b&gt;hi&lt;/b&gt;</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if err := b.BodyTemplate(tmpl, "missing", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}
