package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ui"
	"fintrack/internal/view"
)

type (
	layoutData struct {
		Title   string
		Active  string
		Bare    bool
		Toasts  template.HTML
		ToastMs int64
		Bell    bellData
		Chat    chatData
		// Transaction is the shared add-transaction form, mounted on every page.
		Transaction modalData
		Page        any
	}

	bellData struct {
		Open   bool
		Unread bool
		Items  template.HTML
	}

	chatData struct {
		Open       bool
		Transcript template.HTML
	}

	modalData struct {
		Name   string
		Open   bool
		Fields core.Form
	}

	dashboardPage struct {
		Summary, Recent, Budgets, Goals template.HTML
	}

	listPage struct {
		Name     string
		RegionID string
		List     template.HTML
		Modal    modalData
	}

	settingsPage struct {
		Profile     core.Profile
		Preferences core.NotificationSettings
	}

	loginPage struct {
		Email string
		Error string
	}
)

var pageTitles = map[string]string{
	"dashboard":    "Dashboard",
	"transactions": "Transactions",
	"budgets":      "Budgets",
	"savings":      "Savings Goals",
	"family":       "Family",
	"settings":     "Settings",
	"login":        "Log in",
}

const (
	msgLoginInvalid = "Invalid email or password"
	msgLoginFailed  = "Login failed. Please try again."
)

// pageLoader runs the page's arrival logic and returns its template data.
type pageLoader func(ctx context.Context, r *http.Request, ws *ui.Workspace) any

// page serves a full document. Without a session the browser goes to login;
// a navigation requested by the controllers wins over rendering.
func (s *Server) page(name string, load pageLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, token, ok := s.sessions.Workspace(r)
		if !ok {
			http.Redirect(w, r, s.cfg.LoginURL, http.StatusSeeOther)
			return
		}

		data := load(r.Context(), r, ws)
		if target, ok := s.takeRedirect(ws, token); ok {
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}

		s.renderPage(w, r, name, s.layout(ws, name, data))
	}
}

func (s *Server) layout(ws *ui.Workspace, name string, data any) layoutData {
	return layoutData{
		Title:   pageTitles[name],
		Active:  name,
		Toasts:  view.Toasts(ws.Notifications.Drain()),
		ToastMs: ws.Notifications.Duration().Milliseconds(),
		Bell: bellData{
			Open:   ws.Notifications.IsOpen(),
			Unread: ws.Notifications.HasUnread(),
			Items:  ws.Notifications.Region().HTML(),
		},
		Chat: chatData{
			Open:       ws.Chat.IsOpen(),
			Transcript: ws.Chat.Region().HTML(),
		},
		Transaction: transactionModal(ws),
		Page:        data,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data layoutData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.page(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Page template execution failed",
			log.FieldOperation, log.OpRender, "template", name, log.FieldError, err)
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
	}
}

// takeRedirect returns the pending navigation of ws. Going to the login page
// means the upstream session is gone, so the workspace is dropped too.
func (s *Server) takeRedirect(ws *ui.Workspace, token string) (string, bool) {
	target, ok := ws.Redirects.Take()
	if ok && target == s.cfg.LoginURL {
		s.sessions.Forget(token)
	}
	return target, ok
}

func (s *Server) loadDashboard(ctx context.Context, _ *http.Request, ws *ui.Workspace) any {
	if !ws.Dashboard.Open(ctx) {
		return dashboardPage{}
	}
	regions := ws.Regions()
	return dashboardPage{
		Summary: regions["summary-cards"].HTML(),
		Recent:  regions["recent-transactions"].HTML(),
		Budgets: regions["budget-list"].HTML(),
		Goals:   regions["savings-goals"].HTML(),
	}
}

func (s *Server) loadTransactions(ctx context.Context, r *http.Request, ws *ui.Workspace) any {
	ws.Transactions.Arrive(ctx, r.URL.Query())
	region := ws.Transactions.Region()
	return listPage{Name: "transactions", RegionID: region.ID(), List: region.HTML()}
}

func (s *Server) loadBudgets(ctx context.Context, r *http.Request, ws *ui.Workspace) any {
	ws.Budgets.Arrive(ctx, r.URL.Query())
	return listPageOf("budgets", ws.Budgets)
}

func (s *Server) loadSavings(ctx context.Context, r *http.Request, ws *ui.Workspace) any {
	ws.Savings.Arrive(ctx, r.URL.Query())
	return listPageOf("savings", ws.Savings)
}

func (s *Server) loadFamily(ctx context.Context, r *http.Request, ws *ui.Workspace) any {
	ws.Family.Arrive(ctx, r.URL.Query())
	return listPageOf("family", ws.Family)
}

func (s *Server) loadSettings(ctx context.Context, _ *http.Request, ws *ui.Workspace) any {
	ws.Settings.Load(ctx)
	return settingsPage{Profile: ws.Settings.Profile(), Preferences: ws.Settings.Preferences()}
}

func listPageOf(name string, l creatable) listPage {
	region := l.Region()
	return listPage{
		Name:     name,
		RegionID: region.ID(),
		List:     region.HTML(),
		Modal:    modalData{Name: name, Open: l.ModalOpen(), Fields: l.ModalFields()},
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, http.StatusOK, loginPage{})
}

// handleLogin exchanges credentials for an upstream session token and hands
// it to the browser as the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, resp := parseBody(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	email, password := p.Get("email"), p.Get("password")

	token, err := s.newClient("").Login(r.Context(), email, password)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Login failed",
			log.FieldOperation, log.OpAuth, log.FieldError, err)
		status, msg := http.StatusBadGateway, msgLoginFailed
		var rej *api.RejectedError
		if errors.Is(err, api.ErrUnauthorized) || errors.As(err, &rej) {
			status, msg = http.StatusUnauthorized, msgLoginInvalid
		}
		s.renderLogin(w, r, status, loginPage{Email: email, Error: msg})
		return
	}

	if old, ok := s.sessions.Token(r); ok {
		s.sessions.Forget(old)
	}
	s.sessions.Start(w, r, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := s.sessions.Token(r); ok {
		if err := s.newClient(token).Logout(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Upstream logout failed",
				log.FieldOperation, log.OpAuth, log.FieldError, err)
		}
		s.sessions.End(w, token)
	}

	if isHTMX(r) {
		NewHTMXResponse().Redirect(s.cfg.LoginURL).Status(http.StatusNoContent).Write(w)
		return
	}
	http.Redirect(w, r, s.cfg.LoginURL, http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, data loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	layout := layoutData{Title: pageTitles["login"], Active: "login", Bare: true, Page: data}
	if err := s.templates.page(w, "login", layout); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Login template execution failed",
			log.FieldOperation, log.OpRender, log.FieldError, err)
	}
}
