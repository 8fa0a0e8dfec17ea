package ui

import (
	"context"
	"testing"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

func newSettingsFixture() (*fakeSettingsAPI, *Settings, *NotificationCenter, *Redirects) {
	fake := &fakeSettingsAPI{
		profile: core.Profile{Name: "Sam", Email: "sam@example.com"},
		prefs:   core.NotificationSettings{WeeklySummary: true},
	}
	notifier := newTestNotifier(&manualClock{})
	nav := &Redirects{}
	return fake, NewSettings(fake, notifier, nav, "/login", log.Discard()), notifier, nav
}

func TestSettingsLoad(t *testing.T) {
	_, s, _, _ := newSettingsFixture()

	s.Load(context.Background())

	if s.Profile().Name != "Sam" || !s.Preferences().WeeklySummary {
		t.Errorf("loaded profile = %+v, prefs = %+v", s.Profile(), s.Preferences())
	}
}

func TestSettingsLoadUnauthorizedRedirects(t *testing.T) {
	fake, s, _, nav := newSettingsFixture()
	fake.profileErr = unauthorized()

	s.Load(context.Background())

	if target, ok := nav.Take(); !ok || target != "/login" {
		t.Errorf("redirect = %q, %v", target, ok)
	}
}

func TestSettingsUpdateProfile(t *testing.T) {
	fake, s, notifier, _ := newSettingsFixture()

	if !s.UpdateProfile(context.Background(), core.Profile{Name: " Alex ", Email: "alex@example.com"}) {
		t.Fatal("UpdateProfile() = false")
	}
	if fake.profile.Name != "Alex" {
		t.Errorf("sent name = %q, want trimmed", fake.profile.Name)
	}
	if got := toastMessages(notifier); len(got) != 1 || got[0] != msgProfileSaved {
		t.Errorf("toasts = %v", got)
	}
}

func TestSettingsChangePassword(t *testing.T) {
	full := core.PasswordChange{CurrentPassword: "old", NewPassword: "new", ConfirmPassword: "new"}
	tests := []struct {
		name      string
		pc        core.PasswordChange
		err       error
		wantOK    bool
		wantToast string
		wantSent  int
	}{
		{"success", full, nil, true, msgPasswordSaved, 1},
		{"server refuses", full, &api.RejectedError{Message: "Current password is incorrect"}, false, "Current password is incorrect", 1},
		{"transport error", full, errBoom, false, msgPasswordFailed, 1},
		{"missing field", core.PasswordChange{CurrentPassword: "old"}, nil, false, msgPasswordMissing, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake, s, notifier, _ := newSettingsFixture()
			fake.passwordErr = tt.err

			if ok := s.ChangePassword(context.Background(), tt.pc); ok != tt.wantOK {
				t.Errorf("ChangePassword() = %v, want %v", ok, tt.wantOK)
			}
			if got := toastMessages(notifier); len(got) != 1 || got[0] != tt.wantToast {
				t.Errorf("toasts = %v, want [%q]", got, tt.wantToast)
			}
			if len(fake.passwords) != tt.wantSent {
				t.Errorf("requests = %d, want %d", len(fake.passwords), tt.wantSent)
			}
		})
	}
}

func TestSettingsPreferencesSaveSilently(t *testing.T) {
	fake, s, notifier, _ := newSettingsFixture()
	ctx := context.Background()

	next := core.NotificationSettings{BudgetAlerts: true}
	if !s.UpdatePreferences(ctx, next) {
		t.Fatal("UpdatePreferences() = false")
	}
	if fake.prefs != next || s.Preferences() != next {
		t.Errorf("prefs = %+v / %+v", fake.prefs, s.Preferences())
	}

	fake.prefsErr = errBoom
	if s.UpdatePreferences(ctx, core.NotificationSettings{}) {
		t.Error("UpdatePreferences() = true on failure")
	}
	if got := toastMessages(notifier); len(got) != 0 {
		t.Errorf("toasts = %v, want none", got)
	}
	if s.Preferences() != next {
		t.Error("failed save changed the shown preferences")
	}
}
