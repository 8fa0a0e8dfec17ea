// Package http binds the per-session workspaces to the browser: full pages,
// htmx partials and the session cookie.
package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ui"
	"fintrack/internal/view"
	appweb "fintrack/web"
)

const (
	staticMaxAge           = 3600
	sessionCleanupInterval = 5 * time.Minute
)

// Server is the UI tier: it owns one workspace per browser session and
// serves pages and htmx partials rendered from them.
type Server struct {
	http.Server
	cfg       *config.Config
	logger    *log.Logger
	templates *templateSet
	sessions  *Sessions
	newClient func(token string) *api.Client

	// Middleware and monitoring
	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager
	startedAt        time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes, templates and the middleware chain, returning
// a ready-to-run server. Call Shutdown to stop its background routines.
func NewServer(cfg *config.Config, logger *log.Logger) (*Server, error) {
	logger = log.OrDefault(logger, log.ComponentHTTP)

	templates, err := parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.APITimeout}
	apiLogger := logger.WithComponent(log.ComponentAPI)
	uiLogger := logger.WithComponent(log.ComponentUI)

	s := &Server{
		cfg:       cfg,
		logger:    logger,
		templates: templates,
		startedAt: time.Now(),
	}
	s.newClient = func(token string) *api.Client {
		opts := []api.Option{api.WithHTTPClient(httpClient), api.WithLogger(apiLogger)}
		if token != "" {
			opts = append(opts, api.WithSessionCookie(cfg.SessionCookie, token))
		}
		return api.New(cfg.APIBaseURL, opts...)
	}
	s.sessions = NewSessions(cfg.SessionCookie, cfg.MaxSessions, cfg.SessionTTL, func(token string) *ui.Workspace {
		return ui.NewWorkspace(s.newClient(token), ui.WorkspaceConfig{
			LoginURL:      cfg.LoginURL,
			ToastDuration: cfg.ToastDuration,
			Logger:        uiLogger,
		})
	})

	s.securityDetector = security.NewDetector(logger.WithComponent(log.ComponentSecurity))
	s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimitPerMinute,
		Logger:            logger.WithComponent(log.ComponentRateLimit),
	})
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.cacheManager = cache.NewManager(logger.WithComponent(log.ComponentSession))
	s.cacheManager.Register(s.sessions.Cleaner())
	s.cacheManager.StartCleanup(sessionCleanupInterval)

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.stopBackground()
		return nil, err
	}

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.APITimeout*4 + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)

	// Pages
	mux.HandleFunc("GET /{$}", s.page("dashboard", s.loadDashboard))
	mux.HandleFunc("GET /transactions", s.page("transactions", s.loadTransactions))
	mux.HandleFunc("GET /budgets", s.page("budgets", s.loadBudgets))
	mux.HandleFunc("GET /savings", s.page("savings", s.loadSavings))
	mux.HandleFunc("GET /family", s.page("family", s.loadFamily))
	mux.HandleFunc("GET /settings", s.page("settings", s.loadSettings))

	// UI partials
	mux.HandleFunc("GET /ui/regions/{id}", s.partial(s.handleRegion))
	mux.HandleFunc("POST /ui/dashboard/balance", s.partial(s.handleBalance))
	mux.HandleFunc("GET /ui/modals/{name}", s.partial(s.handleModal))
	mux.HandleFunc("POST /ui/modals/{name}/open", s.partial(s.handleModalOpen))
	mux.HandleFunc("POST /ui/modals/{name}/close", s.partial(s.handleModalClose))
	mux.HandleFunc("POST /ui/keydown", s.partial(s.handleKeyDown))
	mux.HandleFunc("POST /ui/transactions", s.partial(s.handleCreateTransaction))
	mux.HandleFunc("POST /ui/transactions/receipt", s.partial(s.handleReceipt))
	mux.HandleFunc("POST /ui/lists/{name}", s.partial(s.handleCreateItem))
	mux.HandleFunc("PUT /ui/savings/reorder", s.partial(s.handleReorder))
	mux.HandleFunc("POST /ui/notifications/toggle", s.partial(s.handleNotificationsToggle))
	mux.HandleFunc("POST /ui/notifications/click", s.partial(s.handleNotificationsClick))
	mux.HandleFunc("POST /ui/chat/toggle", s.partial(s.handleChatToggle))
	mux.HandleFunc("POST /ui/chat", s.partial(s.handleChatSend))
	mux.HandleFunc("POST /ui/settings/profile", s.partial(s.handleProfile))
	mux.HandleFunc("POST /ui/settings/password", s.partial(s.handlePassword))
	mux.HandleFunc("POST /ui/settings/notifications", s.partial(s.handlePreferences))

	return nil
}

// handleRateLimited answers a throttled write with a toast the page can show.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	NewHTMXResponse().
		Status(http.StatusTooManyRequests).
		Header("Retry-After", "60").
		TriggerToasts([]view.Toast{{Kind: string(core.NotificationError), Message: "Too many requests. Please wait a moment."}}, 5*time.Second).
		Write(w)
}

// ActiveSessions reports how many workspaces are held in memory.
func (s *Server) ActiveSessions() int {
	return s.sessions.Size()
}

func (s *Server) stopBackground() {
	s.cacheManager.Stop()
	s.rateLimiter.Stop()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.stopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
