package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/dialog"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/session"
	appweb "budget/web"
)

// CategoryService is what the category handlers need from the service layer
type CategoryService interface {
	dialog.CategoryCreator
	dialog.CategoryDeleter
	ListCategories(ctx context.Context, t core.TransactionType) ([]core.Category, error)
	GetCategory(ctx context.Context, name string, t core.TransactionType) (core.Category, error)
}

type SettingsService interface {
	Settings(ctx context.Context) (core.UserSettings, bool, error)
	Currency(ctx context.Context) (core.Currency, error)
	UpdateCurrency(ctx context.Context, code string) (core.Currency, error)
}

// HealthChecker is a dependency probed by /readyz
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options configures the server
type Options struct {
	Addr            string
	DefaultUserID   string
	RateLimitPerMin int
	CacheTTL        time.Duration
	CacheSize       int
	NotificationTTL time.Duration
	Checks          map[string]HealthChecker
	Logger          *log.Logger
}

type appMetrics struct {
	uptime            time.Time
	categoriesCreated int64
	categoriesDeleted int64
	currencyUpdates   int64
}

type Server struct {
	http.Server
	templates  *template.Template
	categories CategoryService
	settings   SettingsService
	checks     map[string]HealthChecker
	logger     *log.Logger

	categoryCache *cache.LRUCache[[]core.Category]
	categoryQuery *cache.QueryClient[[]core.Category]
	cacheManager  *cache.Manager
	notifications *dialog.Registry

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics
}

// NewServer configures routes, middleware and templates, returning a ready-to-run server.
func NewServer(opts Options, categories CategoryService, settings SettingsService) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.DefaultUserID == "" {
		opts.DefaultUserID = "local"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	s := &Server{
		categories:       categories,
		settings:         settings,
		checks:           opts.Checks,
		logger:           logger.WithComponent(log.ComponentHTTP),
		categoryCache:    cache.NewLRUCache[[]core.Category](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(logger),
		notifications:    dialog.NewRegistry(opts.NotificationTTL),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMin}),
		securityDetector: security.NewDetector(),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.categoryQuery = cache.NewQueryClient[[]core.Category](s.categoryCache, logger)
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.Register(s.notifications)
	s.cacheManager.StartCleanup(time.Minute)

	t, err := parseTemplates()
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	// Onboarding and settings
	mux.HandleFunc("/wizard", s.handleWizard)
	mux.HandleFunc("/settings/currency", s.handleSaveCurrency)
	mux.HandleFunc("/ui/currencies", s.handleCurrencyOptions)
	mux.HandleFunc("/ui/currencies/preview", s.handleAmountPreview)

	// Categories
	mux.HandleFunc("/categories", s.handleCreateCategory)
	mux.HandleFunc("/categories/delete", s.handleDeleteCategory)
	mux.HandleFunc("/ui/categories", s.handleCategoryList)
	mux.HandleFunc("/ui/categories/new", s.handleCreateDialog)
	mux.HandleFunc("/ui/categories/delete", s.handleDeleteDialog)

	mux.HandleFunc("GET /ui/notifications/{id}", s.handleNotification)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited,
		http.MethodPost, http.MethodDelete)(handler)
	handler = session.Middleware(opts.DefaultUserID)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"typeLabel": typeLabel,
		"domID":     domID,
		"query":     queryString,
	}).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	s.cacheManager.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many requests, please try again later").
		TriggerErrorNotification("rate-limit", "Too many requests, please try again later").
		Write(w)
}

// render writes the named template with status, logging failures.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	if err := b.BodyTemplate(s.templates, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		InternalServerError("Something went wrong").Write(w)
		return
	}
	b.Write(w)
}
