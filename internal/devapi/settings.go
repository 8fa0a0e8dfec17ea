package devapi

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

const minPasswordLength = 8

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.Profile(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var p core.Profile
	if err := decodeJSON(r, &p); err != nil || strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Email) == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required")
		return
	}
	if err := s.repo.UpdateProfile(r.Context(), userFrom(r.Context()).ID, p); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, Message: "Profile updated successfully"})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var pc core.PasswordChange
	if err := decodeJSON(r, &pc); err != nil || pc.CurrentPassword == "" || pc.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}
	if pc.NewPassword != pc.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "New passwords do not match")
		return
	}
	if len(pc.NewPassword) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "New password must be at least 8 characters")
		return
	}

	err := s.repo.ChangePassword(r.Context(), userFrom(r.Context()).ID, pc.CurrentPassword, pc.NewPassword)
	if errors.Is(err, storage.ErrWrongPassword) {
		writeError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	if err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true, Message: "Password updated successfully"})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	ns, err := s.repo.NotificationSettings(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		fail(w, r, log.OpLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var ns core.NotificationSettings
	if err := decodeJSON(r, &ns); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid notification settings")
		return
	}
	if err := s.repo.UpdateNotificationSettings(r.Context(), userFrom(r.Context()).ID, ns); err != nil {
		fail(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, ack{Success: true})
}
