// Package ratelimit throttles state-changing requests per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/log"
)

const (
	window  = time.Minute
	idleTTL = 10 * time.Minute
)

// Limiter counts writes per client in fixed one-minute windows. Reads pass
// through untouched: the workspace is refreshed by GETs and must never stall.
type Limiter struct {
	budget int
	sweep  time.Duration
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*counter

	rejected atomic.Int64
	done     chan struct{}
	stopOnce sync.Once
}

type counter struct {
	opened time.Time
	seen   time.Time
	count  int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	Logger            *log.Logger
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

// NewLimiter starts a background sweep of idle clients; Stop ends it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	l := &Limiter{
		budget:  cfg.RequestsPerMinute,
		sweep:   cfg.CleanupInterval,
		logger:  log.OrDefault(cfg.Logger, log.ComponentRateLimit),
		now:     time.Now,
		windows: make(map[string]*counter),
		done:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records one write from client and reports whether it fits the
// client's budget for the current window.
func (l *Limiter) Allow(client string) bool {
	now := l.now()

	l.mu.Lock()
	c, ok := l.windows[client]
	if !ok || now.Sub(c.opened) >= window {
		c = &counter{opened: now}
		l.windows[client] = c
	}
	c.count++
	c.seen = now
	over := c.count > l.budget
	l.mu.Unlock()

	if over {
		l.rejected.Add(1)
	}
	return !over
}

func (l *Limiter) sweepLoop() {
	t := time.NewTicker(l.sweep)
	defer t.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-t.C:
			if n := l.cleanupStaleEntries(); n > 0 {
				l.logger.Debug("Dropped idle rate limit clients", log.FieldCount, n)
			}
		}
	}
}

func (l *Limiter) cleanupStaleEntries() int {
	cutoff := l.now().Add(-idleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for client, c := range l.windows {
		if c.seen.Before(cutoff) {
			delete(l.windows, client)
			n++
		}
	}
	return n
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{TotalHits: l.rejected.Load(), ClientCount: int64(l.ActiveClients())}
}

// Middleware applies the limiter to POST, PUT, PATCH and DELETE. When
// onLimit is nil a plain 429 with Retry-After is written.
func (l *Limiter) Middleware(clientOf func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			http.Error(w, "Too many changes, try again in a minute.", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			client := clientOf(r)
			if l.Allow(client) {
				next.ServeHTTP(w, r)
				return
			}
			l.logger.WarnContext(r.Context(), "Write rate limit exceeded",
				log.FieldClientIP, client, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			onLimit(w, r)
		})
	}
}
