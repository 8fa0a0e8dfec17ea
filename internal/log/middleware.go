package log

import (
	"context"
	"log/slog"
	"net/http"
)

type contextKey struct{}

// NewContext returns a copy of ctx that carries l.
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the request-scoped logger, or one built on
// slog.Default when the request never went through the middleware.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(contextKey{}).(*Logger); ok {
		return l
	}
	return OrDefault(nil, "unknown")
}

// enrich derives the request logger from the one already in the context.
func enrich(derive func(*Logger, *http.Request) *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := derive(FromContext(r.Context()), r)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), l)))
		})
	}
}

// Middleware seeds every request context with logger.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return enrich(func(*Logger, *http.Request) *Logger { return logger })
}

// ComponentMiddleware stamps the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return enrich(func(l *Logger, _ *http.Request) *Logger { return l.WithComponent(component) })
}

// RequestIDMiddleware adds the id returned by extractRequestID to every line
// logged for the request.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return enrich(func(l *Logger, r *http.Request) *Logger { return l.With(FieldRequestID, extractRequestID(r)) })
}

// StructuredLogger writes the fixed-shape lines of the request lifecycle:
// inbound requests and the calls made to the finance API on their behalf.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPStart logs an inbound request at debug level.
func (sl *StructuredLogger) LogHTTPStart(ctx context.Context, r *http.Request, clientIP string) {
	attrs := append(requestAttrs(r),
		slog.String(FieldClientIP, clientIP),
		slog.String(FieldUserAgent, r.UserAgent()),
		slog.String(FieldReferer, r.Referer()))
	if r.Header.Get("HX-Request") == "true" {
		attrs = append(attrs, slog.String("htmx_target", r.Header.Get("HX-Target")))
	}
	sl.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request started", attrs...)
}

// LogHTTPEnd logs the outcome; 4xx at warn, 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}
	attrs := append(requestAttrs(r), slog.String(FieldClientIP, clientIP))
	attrs = append(attrs, responseAttrs(statusCode, durationMs, statusCode < 400)...)
	sl.logger.LogAttrs(ctx, level, "HTTP request completed", attrs...)
}

// LogUpstreamCall logs one request made to the finance API. Successful calls
// are debug noise; failures and non-2xx replies are warnings.
func (sl *StructuredLogger) LogUpstreamCall(ctx context.Context, method, endpoint string, statusCode int, durationMs int64, err error) {
	level := slog.LevelDebug
	if err != nil || statusCode >= 400 {
		level = slog.LevelWarn
	}
	attrs := append([]slog.Attr{
		slog.String(FieldMethod, method),
		slog.String(FieldEndpoint, endpoint),
	}, responseAttrs(statusCode, durationMs, err == nil && statusCode < 400)...)
	if err != nil {
		attrs = append(attrs, slog.String(FieldError, err.Error()))
	}
	sl.logger.WithComponent(ComponentAPI).LogAttrs(ctx, level, "Finance API call", attrs...)
}

func requestAttrs(r *http.Request) []slog.Attr {
	return []slog.Attr{
		slog.String(FieldMethod, r.Method),
		slog.String(FieldPath, r.URL.Path),
		slog.String(FieldQuery, r.URL.RawQuery),
	}
}

func responseAttrs(status int, durationMs int64, ok bool) []slog.Attr {
	return []slog.Attr{
		slog.Int(FieldStatusCode, status),
		slog.Int64(FieldDuration, durationMs),
		slog.Bool(FieldSuccess, ok),
	}
}
