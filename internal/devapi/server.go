// Package devapi is a development finance API: the JSON contract the UI tier
// consumes, backed by SQLite. It exists so the UI can run end to end locally.
package devapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server serves the finance API for the users stored in repo.
type Server struct {
	http.Server
	repo      *storage.SQLiteRepository
	ledger    *services.LedgerService
	logger    *log.Logger
	cookie    string
	now       func() time.Time
	startedAt time.Time

	shutdownOnce sync.Once
}

// Config carries what the server needs beyond its collaborators.
type Config struct {
	Port string
	// SessionCookie names the cookie that carries the session token.
	SessionCookie string
	Logger        *log.Logger
}

func NewServer(cfg Config, repo *storage.SQLiteRepository, ledger *services.LedgerService) *Server {
	logger := log.OrDefault(cfg.Logger, log.ComponentDevAPI)
	s := &Server{
		repo:      repo,
		ledger:    ledger,
		logger:    logger,
		cookie:    cfg.SessionCookie,
		now:       time.Now,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = log.ComponentMiddleware(log.ComponentDevAPI)(handler)
	handler = log.RequestIDMiddleware(requestID)(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/auth/check", s.handleAuthCheck)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/dashboard", s.authed(s.handleDashboard))
	mux.HandleFunc("POST /api/dashboard/total-balance", s.authed(s.handleTotalBalance))

	mux.HandleFunc("GET /api/transactions", s.authed(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.authed(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/budgets", s.authed(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.authed(s.handleCreateBudget))
	mux.HandleFunc("GET /api/savings-goals", s.authed(s.handleListGoals))
	mux.HandleFunc("POST /api/savings-goals", s.authed(s.handleCreateGoal))
	mux.HandleFunc("PUT /api/savings-goals/reorder", s.authed(s.handleReorderGoals))
	mux.HandleFunc("GET /api/family_members", s.authed(s.handleListMembers))
	mux.HandleFunc("POST /api/family_members", s.authed(s.handleCreateMember))

	mux.HandleFunc("GET /api/notifications", s.authed(s.handleNotifications))
	mux.HandleFunc("POST /api/chat", s.authed(s.handleChat))
	mux.HandleFunc("POST /api/parse-receipt", s.authed(s.handleParseReceipt))

	mux.HandleFunc("GET /api/settings/profile", s.authed(s.handleGetProfile))
	mux.HandleFunc("PUT /api/settings/profile", s.authed(s.handleUpdateProfile))
	mux.HandleFunc("PUT /api/settings/password", s.authed(s.handleChangePassword))
	mux.HandleFunc("GET /api/settings/notifications", s.authed(s.handleGetPreferences))
	mux.HandleFunc("PUT /api/settings/notifications", s.authed(s.handleUpdatePreferences))
}

// requestID keeps the id the UI tier sent so one trace spans both processes.
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "not_ready",
			"database": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}
