package http

import (
	"net/http"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/ui"
)

// WorkspaceFactory builds the controllers for one upstream session token.
type WorkspaceFactory func(token string) *ui.Workspace

// Sessions maps the upstream session cookie to the browser's workspace.
// The cookie value is the finance API's own session token, so the UI server
// keeps no credentials of its own.
type Sessions struct {
	cookie  string
	store   *cache.LRUCache[*ui.Workspace]
	factory WorkspaceFactory
}

func NewSessions(cookie string, maxSessions int, ttl time.Duration, factory WorkspaceFactory) *Sessions {
	return &Sessions{
		cookie:  cookie,
		store:   cache.NewLRUCache[*ui.Workspace](maxSessions, ttl),
		factory: factory,
	}
}

// Token returns the session token carried by r, if any.
func (s *Sessions) Token(r *http.Request) (string, bool) {
	c, err := r.Cookie(s.cookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Workspace returns the workspace of r's session, creating it on first use.
func (s *Sessions) Workspace(r *http.Request) (*ui.Workspace, string, bool) {
	token, ok := s.Token(r)
	if !ok {
		return nil, "", false
	}
	ws, _ := s.store.GetOrCreate(token, func() *ui.Workspace { return s.factory(token) })
	return ws, token, true
}

// Start hands the browser the session token issued at login.
func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// End drops the workspace and expires the cookie.
func (s *Sessions) End(w http.ResponseWriter, token string) {
	if token != "" {
		s.store.Delete(token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Forget drops the workspace but leaves the cookie alone.
func (s *Sessions) Forget(token string) {
	s.store.Delete(token)
}

func (s *Sessions) Size() int {
	return s.store.Size()
}

// Cleaner exposes the store to the cache manager.
func (s *Sessions) Cleaner() cache.Cleaner {
	return s.store
}
