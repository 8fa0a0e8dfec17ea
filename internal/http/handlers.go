package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/api"
)

// handleHealth is the liveness probe: the process answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeProbe(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady reports ready when templates are loaded and the finance API
// answers. An unauthenticated answer still proves the API is up.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "finance_api": "ok"}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
	}
	if _, err := s.newClient("").CheckAuth(ctx); err != nil && !errors.Is(err, api.ErrUnauthorized) {
		checks["finance_api"] = fmt.Sprintf("failed: %v", err)
	}

	status, code := "ready", http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeProbe(w, code, map[string]any{
		"status":                 status,
		"timestamp":              time.Now().Format(time.RFC3339),
		"checks":                 checks,
		"active_sessions":        s.sessions.Size(),
		"rate_limited_addresses": s.rateLimiter.ActiveClients(),
	})
}

func writeProbe(w http.ResponseWriter, code int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

type metric struct {
	name, kind, help string
	value            float64
}

// handleMetrics writes the counters in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sec := s.securityDetector.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	tr := s.traceMiddleware.GetMetrics()

	metrics := []metric{
		{"http_requests_total", "counter", "Total number of HTTP requests", float64(tr.TotalRequests)},
		{"http_requests_in_flight", "gauge", "Requests being served", float64(tr.InFlight)},
		{"htmx_partials_total", "counter", "Requests made by htmx swaps", float64(tr.PartialRequests)},
		{"http_server_errors_total", "counter", "Responses with a 5xx status", float64(tr.ServerErrors)},
		{"http_last_request_seconds", "gauge", "Duration of the last request", tr.LastDuration.Seconds()},
		{"active_sessions", "gauge", "Workspaces held in memory", float64(s.sessions.Size())},
		{"rate_limit_hits_total", "counter", "Total rate limit hits", float64(rl.TotalHits)},
		{"active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", float64(rl.ClientCount)},
		{"suspicious_requests_total", "counter", "Total suspicious requests detected", float64(sec.SuspiciousRequests)},
		{"uptime_seconds", "gauge", "Application uptime in seconds", time.Since(s.startedAt).Seconds()},
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %g\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
