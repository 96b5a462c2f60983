package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/services"
	"budget/internal/storage/memory"
)

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("broker down") }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	store := memory.New([]core.CreateCategoryInput{
		{Type: core.Income, Icon: "💰", Name: "Salary"},
		{Type: core.Expense, Icon: "🏠", Name: "Home"},
	})
	logger := log.New(log.Config{Format: "text", Output: &strings.Builder{}})
	opts.Logger = logger
	srv := NewServer(opts,
		services.NewCategoryService(store, nil, logger),
		services.NewSettingsService(store, logger))
	t.Cleanup(func() {
		srv.rateLimiter.Stop()
		srv.cacheManager.Stop()
	})
	if srv.templates == nil {
		t.Fatal("templates failed to parse")
	}
	return srv
}

func do(srv *Server, method, target string, form url.Values, user string) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func triggers(t *testing.T, rr *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := rr.Header().Get("HX-Trigger")
	if raw == "" {
		return nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, raw)
	}
	return out
}

func notification(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	raw, ok := triggers(t, rr)[EventShowNotification]
	if !ok {
		return nil
	}
	var n map[string]any
	if err := json.Unmarshal(raw, &n); err != nil {
		t.Fatalf("bad notification payload: %v", err)
	}
	return n
}

func configure(t *testing.T, srv *Server, user, currency string) {
	t.Helper()
	rr := do(srv, http.MethodPost, "/settings/currency", url.Values{"currency": {currency}}, user)
	if rr.Code != http.StatusOK {
		t.Fatalf("save currency status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestIndexRedirectsToWizardUntilConfigured(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodGet, "/", nil, "")
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/wizard" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	rr = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	if rr.Header().Get("HX-Redirect") != "/wizard" {
		t.Fatalf("htmx request should get HX-Redirect, headers=%v", rr.Header())
	}

	rr = do(srv, http.MethodGet, "/wizard", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("wizard status=%d", rr.Code)
	}
	for _, label := range []string{"€ Euro", "$ Dollar", "¥ Yen", "£ Pound", "Done, take me home"} {
		if !strings.Contains(rr.Body.String(), label) {
			t.Errorf("wizard missing %q", label)
		}
	}

	configure(t, srv, "", "USD")
	rr = do(srv, http.MethodGet, "/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"$ Dollar", "Salary", "Home", "Create category"} {
		if !strings.Contains(body, want) {
			t.Errorf("index missing %q", want)
		}
	}
}

func TestSaveCurrency(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodPost, "/settings/currency", url.Values{"currency": {"gbp"}}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if _, ok := triggers(t, rr)[EventSettingsUpdated]; !ok {
		t.Error("missing settings:updated trigger")
	}
	n := notification(t, rr)
	if n["id"] != CurrencyNotificationID || n["type"] != "success" {
		t.Errorf("notification = %v", n)
	}
	if !strings.Contains(rr.Body.String(), `value="GBP" selected`) {
		t.Errorf("GBP should be selected:\n%s", rr.Body.String())
	}

	rr = do(srv, http.MethodPost, "/settings/currency", url.Values{"currency": {"BTC"}}, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown currency status=%d", rr.Code)
	}
	if n := notification(t, rr); n["type"] != "error" || n["message"] != "Unknown currency" {
		t.Errorf("notification = %v", n)
	}
}

func TestAmountPreview(t *testing.T) {
	srv := newTestServer(t, Options{})
	configure(t, srv, "", "USD")

	tests := []struct {
		amount string
		status int
		want   string
	}{
		{"12.34", http.StatusOK, "12.34"},
		{"12.349", http.StatusOK, "12.35"},
		{",5", http.StatusOK, "0.50"},
		{"1+2", http.StatusUnprocessableEntity, "Invalid amount"},
		{"-3", http.StatusUnprocessableEntity, "Invalid amount"},
		{"abc", http.StatusUnprocessableEntity, "Invalid amount"},
	}
	for _, tt := range tests {
		rr := do(srv, http.MethodGet, "/ui/currencies/preview?amount="+url.QueryEscape(tt.amount), nil, "")
		if rr.Code != tt.status || !strings.Contains(rr.Body.String(), tt.want) {
			t.Errorf("amount %q: status=%d body=%q", tt.amount, rr.Code, rr.Body.String())
		}
		if tt.status == http.StatusOK && !strings.Contains(rr.Body.String(), "$") {
			t.Errorf("amount %q should be shown in dollars: %q", tt.amount, rr.Body.String())
		}
	}

	rr := do(srv, http.MethodGet, "/ui/currencies/preview?amount=", nil, "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "" {
		t.Errorf("empty amount: status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestCreateDialogOpenAndCancel(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodGet, "/ui/categories/new?type=income&trigger=Add+income", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`role="dialog"`, "Income", `name="name"`, "emoji-palette", "💰"} {
		if !strings.Contains(body, want) {
			t.Errorf("open dialog missing %q", want)
		}
	}

	rr = do(srv, http.MethodGet, "/ui/categories/new?type=income&trigger=Add+income&state=closed", nil, "")
	if strings.Contains(rr.Body.String(), `role="dialog"`) || !strings.Contains(rr.Body.String(), "Add income") {
		t.Errorf("cancelled dialog should show only its trigger:\n%s", rr.Body.String())
	}

	rr = do(srv, http.MethodGet, "/ui/categories/new?type=transfer", nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid type status=%d", rr.Code)
	}
}

func TestCreateCategorySuccess(t *testing.T) {
	srv := newTestServer(t, Options{})

	// warm the cache so the creation has to invalidate it
	rr := do(srv, http.MethodGet, "/ui/categories?type=expense", nil, "")
	if strings.Contains(rr.Body.String(), "Books") {
		t.Fatal("Books should not exist yet")
	}

	rr = do(srv, http.MethodPost, "/categories", url.Values{
		"type": {"expense"},
		"name": {"  Books "},
		"icon": {"📚"},
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	tr := triggers(t, rr)
	for _, name := range []string{EventCategoryCreated, EventCategoriesInvalidate, EventDialogClose, EventFormReset, EventShowNotification} {
		if _, ok := tr[name]; !ok {
			t.Errorf("missing trigger %q", name)
		}
	}
	var created categoryPayload
	if err := json.Unmarshal(tr[EventCategoryCreated], &created); err != nil {
		t.Fatal(err)
	}
	if created != (categoryPayload{Name: "Books", Icon: "📚", Type: "expense"}) {
		t.Errorf("created = %+v", created)
	}
	n := notification(t, rr)
	if n["id"] != "create-category" || n["type"] != "success" || n["message"] != "Category Books created successfully 🎉" {
		t.Errorf("notification = %v", n)
	}
	if strings.Contains(rr.Body.String(), `role="dialog"`) {
		t.Error("dialog should be closed after success")
	}

	rr = do(srv, http.MethodGet, "/ui/categories?type=expense", nil, "")
	if !strings.Contains(rr.Body.String(), "Books") {
		t.Errorf("list should show the new category after invalidation:\n%s", rr.Body.String())
	}

	rr = do(srv, http.MethodGet, "/ui/notifications/create-category", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "created successfully") {
		t.Errorf("notification poll status=%d body=%q", rr.Code, rr.Body.String())
	}
	rr = do(srv, http.MethodGet, "/ui/notifications/create-category", nil, "someone-else")
	if rr.Code != http.StatusNoContent {
		t.Errorf("other users must not see the notification, status=%d", rr.Code)
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name     string
		form     url.Values
		wantText string
	}{
		{"empty name", url.Values{"type": {"income"}, "name": {"   "}, "icon": {"💰"}}, core.ErrEmptyName.Error()},
		{"long name", url.Values{"type": {"income"}, "name": {strings.Repeat("x", 21)}, "icon": {"💰"}}, core.ErrNameTooLong.Error()},
		{"missing icon", url.Values{"type": {"income"}, "name": {"Bonus"}}, core.ErrMissingIcon.Error()},
		{"text icon", url.Values{"type": {"income"}, "name": {"Bonus"}, "icon": {"ab"}}, core.ErrInvalidIcon.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(srv, http.MethodPost, "/categories", tt.form, "")
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), tt.wantText) {
				t.Errorf("body missing %q:\n%s", tt.wantText, rr.Body.String())
			}
			if rr.Header().Get("HX-Trigger") != "" {
				t.Errorf("validation failures must not notify or trigger: %s", rr.Header().Get("HX-Trigger"))
			}
		})
	}
}

func TestCreateCategoryFailureKeepsForm(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodPost, "/categories", url.Values{"type": {"income"}, "name": {"Salary"}, "icon": {"💶"}}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	n := notification(t, rr)
	if n["id"] != "create-category" || n["type"] != "error" || n["message"] != "Something went wrong" {
		t.Errorf("notification = %v", n)
	}
	tr := triggers(t, rr)
	for _, name := range []string{EventCategoryCreated, EventDialogClose, EventCategoriesInvalidate} {
		if _, ok := tr[name]; ok {
			t.Errorf("unexpected trigger %q on failure", name)
		}
	}
	body := rr.Body.String()
	for _, want := range []string{`role="dialog"`, `value="Salary"`, `value="💶"`, "already exists"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestDeleteCategoryFlow(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodGet, "/ui/categories/delete?name=Home&type=expense", nil, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Delete 🏠 Home?") {
		t.Fatalf("confirm status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(srv, http.MethodGet, "/ui/categories/delete?name=Home&type=expense&state=closed", nil, "")
	if strings.Contains(rr.Body.String(), "Confirm") {
		t.Error("cancelled confirmation should be closed")
	}

	rr = do(srv, http.MethodGet, "/ui/categories/delete?name=Nope&type=expense", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown category status=%d", rr.Code)
	}

	rr = do(srv, http.MethodDelete, "/categories/delete?name=Home&type=expense", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	tr := triggers(t, rr)
	for _, name := range []string{EventDialogClose, EventCategoriesInvalidate, EventCategoryDeleted} {
		if _, ok := tr[name]; !ok {
			t.Errorf("missing trigger %q", name)
		}
	}
	n := notification(t, rr)
	if n["id"] != "Home-expense" || n["type"] != "success" || n["message"] != "Category deleted successfully" {
		t.Errorf("notification = %v", n)
	}

	rr = do(srv, http.MethodGet, "/ui/categories?type=expense", nil, "")
	if strings.Contains(rr.Body.String(), "Home") {
		t.Errorf("Home should be gone:\n%s", rr.Body.String())
	}

	// deleting again fails but still closes
	rr = do(srv, http.MethodPost, "/categories/delete", url.Values{"name": {"Home"}, "type": {"expense"}}, "")
	tr = triggers(t, rr)
	if _, ok := tr[EventDialogClose]; !ok {
		t.Error("dialog must close after a failed deletion")
	}
	if _, ok := tr[EventCategoriesInvalidate]; ok {
		t.Error("failed deletion must not invalidate")
	}
	n = notification(t, rr)
	if n["type"] != "error" || n["message"] != "Error while deleting category" {
		t.Errorf("notification = %v", n)
	}
}

func TestCategoriesAreScopedPerUser(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(srv, http.MethodPost, "/categories", url.Values{"type": {"income"}, "name": {"Freelance"}, "icon": {"💼"}}, "alice")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if body := do(srv, http.MethodGet, "/ui/categories?type=income", nil, "alice").Body.String(); !strings.Contains(body, "Freelance") {
		t.Error("alice should see her category")
	}
	if body := do(srv, http.MethodGet, "/ui/categories?type=income", nil, "bob").Body.String(); strings.Contains(body, "Freelance") {
		t.Error("bob must not see alice's category")
	}
}

func TestMethodsAndRouting(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/categories", http.StatusMethodNotAllowed},
		{http.MethodGet, "/categories/delete", http.StatusMethodNotAllowed},
		{http.MethodPost, "/ui/categories?type=income", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodGet, "/ui/categories", http.StatusBadRequest},
		{http.MethodGet, "/static/app.js", http.StatusOK},
	}
	for _, tt := range tests {
		if rr := do(srv, tt.method, tt.path, nil, ""); rr.Code != tt.want {
			t.Errorf("%s %s status=%d, want %d", tt.method, tt.path, rr.Code, tt.want)
		}
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(srv, http.MethodGet, "/healthz", nil, "")
	if rr.Header().Get("Content-Security-Policy") == "" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("security headers missing: %v", rr.Header())
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("request id = %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMin: 2})

	form := url.Values{"currency": {"EUR"}}
	for i := 0; i < 2; i++ {
		if rr := do(srv, http.MethodPost, "/settings/currency", form, ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := do(srv, http.MethodPost, "/settings/currency", form, "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("status=%d retry-after=%q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := do(srv, http.MethodGet, "/ui/currencies", nil, ""); rr.Code != http.StatusOK {
		t.Errorf("reads are not limited, status=%d", rr.Code)
	}
}

func TestHealthReadyMetrics(t *testing.T) {
	srv := newTestServer(t, Options{})

	if rr := do(srv, http.MethodGet, "/healthz", nil, ""); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}

	rr := do(srv, http.MethodGet, "/readyz", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz status=%d body=%s", rr.Code, rr.Body.String())
	}

	do(srv, http.MethodPost, "/categories", url.Values{"type": {"income"}, "name": {"Gifts"}, "icon": {"🎁"}}, "")
	rr = do(srv, http.MethodGet, "/metrics", nil, "")
	for _, want := range []string{"categories_created_total 1", "http_requests_total", "cache_invalidations_total 1"} {
		if !strings.Contains(rr.Body.String(), want) {
			t.Errorf("metrics missing %q:\n%s", want, rr.Body.String())
		}
	}

	failing := newTestServer(t, Options{Checks: map[string]HealthChecker{"amqp": failingCheck{}}})
	rr = do(failing, http.MethodGet, "/readyz", nil, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing check status=%d", rr.Code)
	}
	var body struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "not_ready" || !strings.Contains(body.Checks["amqp"].(string), "broker down") {
		t.Errorf("unexpected readiness body: %+v", body)
	}
}
