package security

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"

	"fintrack/internal/log"
)

type DetectionMetrics struct {
	SuspiciousRequests int64
}

// probe lists the signatures a request is matched against. Path and query
// are compared lowercased.
var probe = struct {
	fragments []string
	agents    []string
	methods   map[string]bool
	maxURL    int
	maxHops   int
}{
	fragments: []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	},
	agents:  []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan"},
	methods: map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true},
	maxURL:  2048,
	maxHops: 6,
}

// Detector turns away scanner traffic before it reaches a handler and
// resolves the client address used by the rate limiter.
type Detector struct {
	proxies  []netip.Prefix
	rejected atomic.Int64
	logger   *log.Logger
}

// NewDetector trusts forwarded headers from loopback and private peers only.
func NewDetector(logger *log.Logger) *Detector {
	return &Detector{
		proxies: []netip.Prefix{
			netip.MustParsePrefix("127.0.0.0/8"),
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("172.16.0.0/12"),
			netip.MustParsePrefix("192.168.0.0/16"),
			netip.MustParsePrefix("::1/128"),
		},
		logger: log.OrDefault(logger, log.ComponentSecurity),
	}
}

// DetectSuspiciousRequest reports whether r looks like a probe and counts it.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	hit := probe.methods[r.Method] ||
		len(r.URL.String()) > probe.maxURL ||
		strings.Count(r.Header.Get("X-Forwarded-For"), ",") >= probe.maxHops ||
		matches(r.URL.Path, probe.fragments) ||
		matches(r.URL.RawQuery, probe.fragments) ||
		matches(r.Header.Get("User-Agent"), probe.agents)
	if hit {
		d.rejected.Add(1)
	}
	return hit
}

func matches(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !d.DetectSuspiciousRequest(r) {
			next.ServeHTTP(w, r)
			return
		}
		d.logger.WarnContext(r.Context(), "Rejected probe request",
			log.FieldClientIP, d.ExtractClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldUserAgent, r.Header.Get("User-Agent"))
		http.Error(w, "Bad request", http.StatusBadRequest)
	})
}

// ExtractClientIP returns the peer address, or the forwarded client when
// the peer is a trusted proxy. X-Forwarded-For wins over X-Real-IP.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !d.trusted(addr) {
		return peer
	}

	first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	for _, candidate := range []string{first, r.Header.Get("X-Real-IP")} {
		candidate = strings.TrimSpace(candidate)
		if _, err := netip.ParseAddr(candidate); err == nil {
			return candidate
		}
	}
	return peer
}

func (d *Detector) trusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range d.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{SuspiciousRequests: d.rejected.Load()}
}
