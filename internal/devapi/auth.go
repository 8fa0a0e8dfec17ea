package devapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/log"
	"fintrack/internal/storage"
)

type contextKey string

const userKey contextKey = "user"

const demoEmail = "demo@fintrack.local"

func userFrom(ctx context.Context) storage.User {
	u, _ := ctx.Value(userKey).(storage.User)
	return u
}

func (s *Server) sessionUser(r *http.Request) (storage.User, error) {
	c, err := r.Cookie(s.cookie)
	if err != nil {
		return storage.User{}, storage.ErrNotFound
	}
	return s.repo.SessionUser(r.Context(), c.Value)
}

// authed rejects requests without a live session with 401 and hands the
// session's user to next through the request context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.sessionUser(r)
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if err != nil {
			fail(w, r, log.OpAuth, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	}
}

type userView struct {
	ID         int64  `json:"id"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	u, err := s.sessionUser(r)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	if err != nil {
		fail(w, r, log.OpAuth, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          userView{ID: u.ID, FamilyName: u.Name, Email: u.Email},
	})
}

type loginReply struct {
	Success    bool   `json:"success"`
	Token      string `json:"token"`
	UserID     int64  `json:"user_id"`
	FamilyName string `json:"family_name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	u, err := s.repo.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, storage.ErrInvalidCredentials) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Login rejected", log.FieldOperation, log.OpLogin)
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		fail(w, r, log.OpLogin, err)
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FamilyName string `json:"family_name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil ||
		strings.TrimSpace(req.FamilyName) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	u, err := s.repo.CreateUser(r.Context(), strings.TrimSpace(req.FamilyName), req.Email, req.Password)
	if err != nil {
		fail(w, r, log.OpCreate, err)
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u storage.User) {
	token, err := s.repo.CreateSession(r.Context(), u.ID)
	if err != nil {
		fail(w, r, log.OpLogin, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginReply{Success: true, Token: token, UserID: u.ID, FamilyName: u.Name})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cookie); err == nil {
		if err := s.repo.DeleteSession(r.Context(), c.Value); err != nil {
			fail(w, r, log.OpAuth, err)
			return
		}
	}
	http.SetCookie(w, &http.Cookie{Name: s.cookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, ack{Success: true})
}

// SeedDemo makes sure the demo household exists and binds token to it, so a
// fixed token in the environment always opens the same account.
func SeedDemo(ctx context.Context, repo *storage.SQLiteRepository, token string) (storage.User, error) {
	u, err := repo.UserByEmail(ctx, demoEmail)
	if errors.Is(err, storage.ErrNotFound) {
		u, err = repo.CreateUser(ctx, "Demo Family", demoEmail, "demo")
	}
	if err != nil {
		return storage.User{}, err
	}
	if err := repo.PutSession(ctx, token, u.ID); err != nil {
		return storage.User{}, err
	}
	return u, nil
}
