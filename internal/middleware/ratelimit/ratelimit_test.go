package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/internal/log"
)

func newTestLimiter(t *testing.T, perMinute int) *Limiter {
	t.Helper()
	rl := NewLimiter(Config{RequestsPerMinute: perMinute, Logger: log.Discard()})
	t.Cleanup(rl.Stop)
	return rl
}

func TestLimiterAllow(t *testing.T) {
	rl := newTestLimiter(t, 2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	want := []bool{true, true, false}
	for i, w := range want {
		if got := rl.Allow("1.2.3.4"); got != w {
			t.Errorf("request %d: Allow() = %v, want %v", i+1, got, w)
		}
	}
	if !rl.Allow("5.6.7.8") {
		t.Error("other client must not share the budget")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Error("new window should reset the counter")
	}
	if rl.GetMetrics().TotalHits != 1 {
		t.Errorf("TotalHits = %d, want 1", rl.GetMetrics().TotalHits)
	}
}

func TestLimiterCleanup(t *testing.T) {
	rl := newTestLimiter(t, 10)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("1.1.1.1")

	now = now.Add(11 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 1 {
		t.Errorf("cleanupStaleEntries() = %d, want 1", n)
	}
	if rl.ActiveClients() != 0 {
		t.Errorf("ActiveClients() = %d, want 0", rl.ActiveClients())
	}
}

func TestMiddlewareOnlyLimitsWrites(t *testing.T) {
	rl := newTestLimiter(t, 1)
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		method string
		want   int
	}{
		{http.MethodPost, http.StatusNoContent},
		{http.MethodPut, http.StatusTooManyRequests},
		{http.MethodGet, http.StatusNoContent},
		{http.MethodGet, http.StatusNoContent},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(tt.method, "/ui/x", nil))
		if w.Code != tt.want {
			t.Errorf("%s status = %d, want %d", tt.method, w.Code, tt.want)
		}
	}
}
