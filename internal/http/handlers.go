package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/session"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, log.FieldError, err)
			continue
		}
		checks[name] = "ok"
	}

	stats := s.categoryQuery.Stats()
	checks["cache"] = map[string]interface{}{
		"category_entries": stats.Entries,
		"status":           "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	cacheStats := s.categoryQuery.Stats()
	uptime := time.Since(s.appMetrics.uptime)

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Requests answered with a 5xx status", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("categories_created_total", "counter", "Categories created through the web UI", atomic.LoadInt64(&s.appMetrics.categoriesCreated))
	metric("categories_deleted_total", "counter", "Categories deleted through the web UI", atomic.LoadInt64(&s.appMetrics.categoriesDeleted))
	metric("currency_updates_total", "counter", "Currency changes saved", atomic.LoadInt64(&s.appMetrics.currencyUpdates))
	metric("cache_hits_total", "counter", "Total category cache hits", cacheStats.Hits)
	metric("cache_misses_total", "counter", "Total category cache misses", cacheStats.Misses)
	metric("cache_invalidations_total", "counter", "Total category cache invalidations", cacheStats.Invalidations)
	metric("cache_entries", "gauge", "Current category cache entries", cacheStats.Entries)
	metric("notifications_replaced_total", "counter", "Notifications that replaced one with the same id", s.notifications.Replacements())
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", uptime.Seconds()))
}

type indexView struct {
	UserID   string
	Currency core.Currency
	Lists    []categoryListView
	Dialogs  []createDialogView
}

// handleIndex renders the dashboard. Users without settings go through the wizard first.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("Page not found").Write(w)
		return
	}
	if errResp := RequireGET(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()

	settings, configured, err := s.settings.Settings(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Settings lookup failed", log.FieldError, err)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	if !configured {
		redirect(w, r, "/wizard")
		return
	}
	cur, ok := core.LookupCurrency(settings.Currency)
	if !ok {
		cur = core.DefaultCurrency
	}

	view := indexView{UserID: session.UserID(ctx), Currency: cur}
	for _, t := range []core.TransactionType{core.Income, core.Expense} {
		list, err := s.listCategories(ctx, t)
		if err != nil {
			// the list partial retries on its own
			s.logger.ErrorContext(ctx, "Category list error", log.FieldCategoryType, t, log.FieldError, err)
		}
		view.Lists = append(view.Lists, categoryListView{Type: t, Categories: list, Failed: err != nil})

		d, err := s.newCreateDialog(t, "")
		if err != nil {
			s.logger.ErrorContext(ctx, "Create dialog setup failed", log.FieldError, err)
			InternalServerError("Something went wrong").Write(w)
			return
		}
		view.Dialogs = append(view.Dialogs, newCreateDialogView(d, ""))
	}

	s.render(w, r, NewHTMXResponse(), "index.html", view)
}

// redirect works for both plain and htmx requests
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	if r.Header.Get("HX-Request") == "true" {
		NewHTMXResponse().Header("HX-Redirect", to).Write(w)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// handleNotification serves the current notification for an id; 204 when none.
func (s *Server) handleNotification(w http.ResponseWriter, r *http.Request) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("Missing notification id").Write(w)
		return
	}
	n, ok := userNotifications{registry: s.notifications}.Get(r.Context(), id)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.render(w, r, NewHTMXResponse(), "notification", n)
}
