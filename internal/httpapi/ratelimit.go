package httpapi

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter throttles requests per authenticated user with a fixed
// window. Unauthenticated requests are keyed by remote address so the
// auth endpoint itself cannot be hammered.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	stop    chan struct{}
	once    sync.Once

	requestsPerMinute int
}

type rateWindow struct {
	start    time.Time
	requests int
}

const defaultRequestsPerMinute = 120

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	rl := &RateLimiter{
		windows:           make(map[string]*rateWindow),
		stop:              make(chan struct{}),
		requestsPerMinute: requestsPerMinute,
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether another request under the given key fits in
// the current one-minute window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	win, ok := rl.windows[key]
	if !ok || now.Sub(win.start) > time.Minute {
		rl.windows[key] = &rateWindow{start: now, requests: 1}
		return true
	}
	win.requests++
	return win.requests <= rl.requestsPerMinute
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-10 * time.Minute)
			for key, win := range rl.windows {
				if win.start.Before(cutoff) {
					delete(rl.windows, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Middleware enforces the limit. It runs after authentication, so the
// window key is the caller's user id whenever one is present.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if caller, ok := IdentityFrom(r.Context()); ok {
			key = caller.UID
		}
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", "60")
			writeErrorMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
