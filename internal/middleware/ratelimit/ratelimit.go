// Package ratelimit bounds how often one caller may hit an endpoint,
// counted in a fixed one-window-per-caller scheme.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

type entry struct {
	windowStart time.Time
	count       int
}

// Limiter tracks request counts per caller key.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	seen   map[string]*entry
}

// New creates a limiter allowing limit requests per window per key.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		limit:  limit,
		window: window,
		seen:   make(map[string]*entry),
	}
}

// Allow reports whether a request under key fits the current window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, ok := l.seen[key]
	if !ok || now.Sub(e.windowStart) > l.window {
		if len(l.seen) > 1024 {
			l.prune(now)
		}
		l.seen[key] = &entry{windowStart: now, count: 1}
		return true
	}
	e.count++
	return e.count <= l.limit
}

// prune drops entries whose window expired. Caller holds the lock.
func (l *Limiter) prune(now time.Time) {
	for key, e := range l.seen {
		if now.Sub(e.windowStart) > l.window {
			delete(l.seen, key)
		}
	}
}

// Middleware rejects over-limit requests with 429. The key function
// identifies the caller, typically by user ID or client IP.
func (l *Limiter) Middleware(key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
