package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/engineeye/internal/apperr"
	"github.com/ukydev/engineeye/internal/metrics"
)

// RateLimitMiddleware is a sliding-window limiter keyed by the signed-in
// user, or by client IP for anonymous requests.
type RateLimitMiddleware struct {
	requests  map[string][]time.Time
	mu        sync.Mutex
	metrics   *metrics.Metrics
	now       func() time.Time
	maxWindow time.Duration
	lastSweep time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(m *metrics.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		requests: make(map[string][]time.Time),
		metrics:  m,
		now:      time.Now,
	}
}

// RateLimit allows at most maxRequests per window for each caller.
func (m *RateLimitMiddleware) RateLimit(maxRequests int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			retryAfter, ok := m.allow(key, maxRequests, window)
			if !ok {
				m.metrics.IncrementRateLimited()
				log.WithFields(log.Fields{"key": key, "path": r.URL.Path}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds()+0.999)))
				apperr.Write(w, r, apperr.RateLimited("too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allow records a request for key. When the limit is reached it returns
// false and the time until the oldest request leaves the window.
func (m *RateLimitMiddleware) allow(key string, maxRequests int, window time.Duration) (time.Duration, bool) {
	now := m.now()
	windowStart := now.Add(-window)

	m.mu.Lock()
	defer m.mu.Unlock()

	if window > m.maxWindow {
		m.maxWindow = window
	}
	if now.Sub(m.lastSweep) >= m.maxWindow {
		m.sweep(now)
	}

	valid := m.requests[key][:0]
	for _, ts := range m.requests[key] {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= maxRequests {
		if len(valid) == 0 {
			delete(m.requests, key)
			return window, false
		}
		m.requests[key] = valid
		return valid[0].Sub(windowStart), false
	}
	m.requests[key] = append(valid, now)
	return 0, true
}

// sweep drops callers with no request inside the longest window in use.
func (m *RateLimitMiddleware) sweep(now time.Time) {
	cutoff := now.Add(-m.maxWindow)
	for key, times := range m.requests {
		if len(times) == 0 || !times[len(times)-1].After(cutoff) {
			delete(m.requests, key)
		}
	}
	m.lastSweep = now
}

func rateLimitKey(r *http.Request) string {
	if id := IdentityFromContext(r.Context()); !id.IsZero() {
		return "user:" + id.UserID
	}
	return "ip:" + getClientIP(r)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
