// Package trace gives every request an id and a request-scoped logger, and
// counts what the UI server handled for /metrics.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

type ctxKey struct{}

// HeaderRequestID carries the id back to the browser and upstream.
const HeaderRequestID = "X-Request-ID"

// Middleware handles request tracing and logging
type Middleware struct {
	logger    *log.Logger
	requests  *log.StructuredLogger
	extractIP func(*http.Request) string

	total        atomic.Int64
	inFlight     atomic.Int64
	partials     atomic.Int64
	serverErrors atomic.Int64
	lastMicros   atomic.Int64
}

// Metrics is a snapshot of the counters.
type Metrics struct {
	TotalRequests   int64
	InFlight        int64
	PartialRequests int64 // htmx swaps, as opposed to full page loads
	ServerErrors    int64
	LastDuration    time.Duration
}

func NewMiddleware(logger *log.Logger, extractIP func(*http.Request) string) *Middleware {
	logger = log.OrDefault(logger, log.ComponentHTTP)
	return &Middleware{
		logger:    logger,
		requests:  log.NewStructuredLogger(logger),
		extractIP: extractIP,
	}
}

// Middleware assigns a request id, exposes a request-scoped logger through
// log.FromContext, and logs the start and end of every request.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.total.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)
		if r.Header.Get("HX-Request") == "true" {
			m.partials.Add(1)
		}

		var clientIP string
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		id := requestIDFrom(r)
		w.Header().Set(HeaderRequestID, id)
		ctx := context.WithValue(r.Context(), ctxKey{}, id)
		ctx = log.NewContext(ctx, m.logger.With(log.FieldRequestID, id))
		r = r.WithContext(ctx)

		m.requests.LogHTTPStart(ctx, r, clientIP)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		m.lastMicros.Store(elapsed.Microseconds())
		if rec.status >= 500 {
			m.serverErrors.Add(1)
		}
		m.requests.LogHTTPEnd(ctx, r, rec.status, elapsed.Milliseconds(), clientIP)
	})
}

// requestIDFrom keeps a well-formed incoming id so a trace can span the
// browser, this server and the finance API.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return uuid.NewString()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// GetRequestID returns the id of the request ctx belongs to, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:   m.total.Load(),
		InFlight:        m.inFlight.Load(),
		PartialRequests: m.partials.Load(),
		ServerErrors:    m.serverErrors.Load(),
		LastDuration:    time.Duration(m.lastMicros.Load()) * time.Microsecond,
	}
}
