package middleware

import (
	"net/http"
	"sync"
	"time"
)

type limitWindow struct {
	count int
	until time.Time
}

// RateLimit caps how many generation requests a caller may submit per window.
// Provider runs are expensive, so the cap is per owner identity; requests
// outside the identity scope fall back to the client IP.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*limitWindow)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limiterKey(r)
			now := time.Now()

			mu.Lock()
			win, ok := windows[key]
			if !ok || now.After(win.until) {
				win = &limitWindow{until: now.Add(per)}
				windows[key] = win
			}
			if win.count >= limit {
				mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too many generation requests","error_type":"rate_limited"}`))
				return
			}
			win.count++
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// limiterKey prefers the owner established by Identity so callers behind
// shared NATs do not exhaust each other's budget.
func limiterKey(r *http.Request) string {
	if owner := OwnerFromContext(r.Context()); owner != "" {
		return "owner:" + owner
	}
	return "ip:" + ClientIP(r)
}
