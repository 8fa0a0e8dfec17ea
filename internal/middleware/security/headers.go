// Package security holds the response hardening and probe rejection
// middleware of the UI tier.
package security

import (
	"net/http"
	"strconv"
)

// HeadersConfig is the set of hardening headers written on every response.
// Empty values are skipped.
type HeadersConfig struct {
	Static map[string]string
	// HSTSMaxAge is sent only on TLS requests; zero disables it.
	HSTSMaxAge int
}

// DefaultHeadersConfig lets the pages load htmx from unpkg and the icon
// font from cdnjs.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		Static: map[string]string{
			"Content-Security-Policy": "default-src 'self'; " +
				"script-src 'self' https://unpkg.com 'unsafe-eval'; " +
				"style-src 'self' 'unsafe-inline' https://cdnjs.cloudflare.com; " +
				"font-src 'self' https://cdnjs.cloudflare.com; " +
				"img-src 'self' data:; connect-src 'self'; object-src 'none'; " +
				"frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
			"X-Frame-Options":            "DENY",
			"X-Content-Type-Options":     "nosniff",
			"Referrer-Policy":            "strict-origin-when-cross-origin",
			"Permissions-Policy":         "geolocation=(), microphone=(), payment=()",
			"Cross-Origin-Opener-Policy": "same-origin",
		},
		HSTSMaxAge: 365 * 24 * 60 * 60,
	}
}

type HeadersMiddleware struct {
	cfg HeadersConfig
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	return &HeadersMiddleware{cfg: cfg}
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := w.Header()
		for name, value := range h.cfg.Static {
			if value != "" {
				out.Set(name, value)
			}
		}
		if r.TLS != nil && h.cfg.HSTSMaxAge > 0 {
			out.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(h.cfg.HSTSMaxAge)+"; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	cacheControl := "public, max-age=" + strconv.Itoa(maxAge)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", cacheControl)
			}
			next.ServeHTTP(w, r)
		})
	}
}
