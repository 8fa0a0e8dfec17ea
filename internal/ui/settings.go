package ui

import (
	"context"
	"errors"
	"strings"
	"sync"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

const (
	msgProfileSaved    = "Profile updated successfully"
	msgProfileFailed   = "Could not update profile"
	msgPasswordSaved   = "Password updated successfully"
	msgPasswordFailed  = "Could not update password"
	msgPasswordMissing = "Please fill in all password fields"
)

// Settings is the account settings page: profile, password and notification
// preferences.
type Settings struct {
	mu       sync.Mutex
	api      SettingsAPI
	notifier *NotificationCenter
	gate     loginGate
	logger   *log.Logger

	profile core.Profile
	prefs   core.NotificationSettings
}

func NewSettings(settingsAPI SettingsAPI, notifier *NotificationCenter, nav Navigator, loginURL string, logger *log.Logger) *Settings {
	return &Settings{
		api:      settingsAPI,
		notifier: notifier,
		gate:     loginGate{nav: nav, loginURL: loginURL},
		logger:   log.OrDefault(logger, log.ComponentUI),
	}
}

// Load fetches the profile and the notification preferences. Either failure
// keeps the previous value.
func (s *Settings) Load(ctx context.Context) {
	if p, err := s.api.Profile(ctx); err != nil {
		s.logger.WarnContext(ctx, "Profile load failed", log.FieldOperation, log.OpLoad, log.FieldError, err)
		if s.gate.redirectIfUnauthorized(err) {
			return
		}
	} else {
		s.mu.Lock()
		s.profile = p
		s.mu.Unlock()
	}

	if ns, err := s.api.NotificationSettings(ctx); err != nil {
		s.logger.WarnContext(ctx, "Notification settings load failed", log.FieldOperation, log.OpLoad, log.FieldError, err)
		s.gate.redirectIfUnauthorized(err)
	} else {
		s.mu.Lock()
		s.prefs = ns
		s.mu.Unlock()
	}
}

func (s *Settings) Profile() core.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

func (s *Settings) Preferences() core.NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Settings) UpdateProfile(ctx context.Context, p core.Profile) bool {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	if err := s.api.UpdateProfile(ctx, p); err != nil {
		s.logger.ErrorContext(ctx, "Profile update failed", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		if !s.gate.redirectIfUnauthorized(err) {
			s.notifier.Toast(ToastError, rejectionMessage(err, msgProfileFailed))
		}
		return false
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.notifier.Toast(ToastSuccess, msgProfileSaved)
	return true
}

// ChangePassword shows the server's own message when it refuses the change.
func (s *Settings) ChangePassword(ctx context.Context, pc core.PasswordChange) bool {
	if pc.CurrentPassword == "" || pc.NewPassword == "" || pc.ConfirmPassword == "" {
		s.notifier.Toast(ToastError, msgPasswordMissing)
		return false
	}
	if err := s.api.ChangePassword(ctx, pc); err != nil {
		s.logger.WarnContext(ctx, "Password change refused", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		if !s.gate.redirectIfUnauthorized(err) {
			s.notifier.Toast(ToastError, rejectionMessage(err, msgPasswordFailed))
		}
		return false
	}
	s.notifier.Toast(ToastSuccess, msgPasswordSaved)
	return true
}

// UpdatePreferences saves the notification toggles silently; a failure is
// only logged.
func (s *Settings) UpdatePreferences(ctx context.Context, ns core.NotificationSettings) bool {
	if err := s.api.UpdateNotificationSettings(ctx, ns); err != nil {
		s.logger.ErrorContext(ctx, "Notification settings update failed", log.FieldOperation, log.OpUpdate, log.FieldError, err)
		s.gate.redirectIfUnauthorized(err)
		return false
	}
	s.mu.Lock()
	s.prefs = ns
	s.mu.Unlock()
	return true
}

func rejectionMessage(err error, fallback string) string {
	var rej *api.RejectedError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return fallback
}
