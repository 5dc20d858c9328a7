package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-client sliding window limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window.
	Max int
	// Window is the sliding window length.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. Nil means client IP.
	KeyFunc func(*http.Request) string
}

// bucket holds the counters for one client: the window currently being
// filled plus the completed one before it. The weighted sum of the two
// approximates a true sliding window without storing timestamps per request.
type bucket struct {
	start     time.Time
	count     float64
	prevCount float64
	prevStart time.Time
}

type limiter struct {
	max     float64
	window  time.Duration
	keyFunc func(*http.Request) string

	mu      sync.Mutex
	buckets map[string]*bucket
}

func newLimiter(cfg RateLimitConfig) *limiter {
	kf := cfg.KeyFunc
	if kf == nil {
		kf = clientIP
	}
	return &limiter{
		max:     float64(cfg.Max),
		window:  cfg.Window,
		keyFunc: kf,
		buckets: make(map[string]*bucket),
	}
}

// take records a request for key if the weighted count is under the limit.
func (l *limiter) take(key string, now time.Time) (remaining int, resetAt time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.buckets[key]
	if b == nil {
		b = &bucket{start: now}
		l.buckets[key] = b
	}

	if now.Sub(b.start) >= l.window {
		b.prevCount, b.prevStart = b.count, b.start
		b.count = 0
		b.start = now.Truncate(l.window)
		if now.Sub(b.prevStart) >= 2*l.window {
			b.prevCount = 0
		}
	}

	weight := 1 - now.Sub(b.start).Seconds()/l.window.Seconds()
	if weight < 0 {
		weight = 0
	}
	used := b.prevCount*weight + b.count
	resetAt = b.start.Add(l.window)

	if used >= l.max {
		return 0, resetAt, false
	}
	b.count++

	remaining = int(l.max - used - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

// sweep drops buckets untouched for two full windows.
func (l *limiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.start) >= 2*l.window {
			delete(l.buckets, key)
		}
	}
}

func (l *limiter) sweepLoop(ctx context.Context) {
	t := time.NewTicker(2 * l.window)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			l.sweep(now)
		}
	}
}

func (l *limiter) middleware() Middleware {
	limitHeader := strconv.FormatFloat(l.max, 'f', -1, 64)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(l.keyFunc(r), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limitHeader)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				retryAfter := math.Ceil(time.Until(resetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				h.Set("Retry-After", strconv.Itoa(int(retryAfter)))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    http.StatusTooManyRequests,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit returns a sliding window rate limiting middleware. Limited
// requests get 429 with a JSON body; every response carries the
// X-RateLimit-* headers. Stale per-client state is never evicted, so prefer
// RateLimitWithCleanup for long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background sweeper that evicts
// idle client buckets until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go l.sweepLoop(ctx)
	return l.middleware()
}

// clientIP resolves the caller's address, trusting X-Forwarded-For and
// X-Real-IP before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
