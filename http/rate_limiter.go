package http

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/clockz"
	"golang.org/x/time/rate"

	"github.com/cobrun/quote-engine/errors"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained rate allowed per key.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size (bucket capacity).
	BurstSize int
	// KeyFunc extracts the rate limit key from the request.
	KeyFunc func(r *http.Request) string
	// ExcludeFunc determines if a request should be excluded from rate limiting.
	ExcludeFunc func(r *http.Request) bool
	// OnLimitExceeded is called when the rate limit is exceeded.
	OnLimitExceeded func(r *http.Request, key string)
	// CleanupInterval is how often idle keys are dropped.
	CleanupInterval time.Duration
	// Clock drives token refill and idle tracking. Defaults to the real clock.
	Clock clockz.Clock
}

// DefaultRateLimiterConfig returns production defaults.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 20,
		BurstSize:         40,
		KeyFunc:           IPKeyFunc,
		CleanupInterval:   time.Minute,
	}
}

// IPKeyFunc extracts the client IP address.
func IPKeyFunc(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// HealthExcludeFunc skips probes under /health.
func HealthExcludeFunc(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/health")
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter keeps one token bucket per key.
type RateLimiter struct {
	config  RateLimiterConfig
	entries sync.Map // map[string]*limiterEntry
	clock   clockz.Clock
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = IPKeyFunc
	}
	if config.Clock == nil {
		config.Clock = clockz.RealClock
	}
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		config: config,
		clock:  config.Clock,
		ctx:    ctx,
		cancel: cancel,
	}

	if config.CleanupInterval > 0 {
		go rl.cleanupLoop()
	}

	return rl
}

func (rl *RateLimiter) entry(key string) *limiterEntry {
	if e, ok := rl.entries.Load(key); ok {
		return e.(*limiterEntry)
	}

	e := &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize)}
	actual, _ := rl.entries.LoadOrStore(key, e)
	return actual.(*limiterEntry)
}

// Allow reports whether r may proceed, consuming a token if so.
func (rl *RateLimiter) Allow(r *http.Request) bool {
	ok, _ := rl.allow(r)
	return ok
}

func (rl *RateLimiter) allow(r *http.Request) (bool, *limiterEntry) {
	if rl.config.ExcludeFunc != nil && rl.config.ExcludeFunc(r) {
		return true, nil
	}

	key := rl.config.KeyFunc(r)
	e := rl.entry(key)
	now := rl.clock.Now()
	e.lastSeen.Store(now.UnixMilli())

	if !e.limiter.AllowN(now, 1) {
		if rl.config.OnLimitExceeded != nil {
			rl.config.OnLimitExceeded(r, key)
		}
		return false, e
	}
	return true, e
}

func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.ctx.Done():
			return
		case <-rl.clock.After(rl.config.CleanupInterval):
			rl.cleanup()
		}
	}
}

// cleanup drops keys not seen for a full cleanup interval.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.clock.Now().Add(-rl.config.CleanupInterval).UnixMilli()
	rl.entries.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastSeen.Load() < cutoff {
			rl.entries.Delete(key)
		}
		return true
	})
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	n := 0
	rl.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close stops the rate limiter.
func (rl *RateLimiter) Close() {
	rl.cancel()
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, e := rl.allow(r)
		if e != nil {
			remaining := math.Max(0, math.Floor(e.limiter.TokensAt(rl.clock.Now())))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.config.BurstSize))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(remaining, 'f', 0, 64))
		}
		if !ok {
			w.Header().Set("Retry-After", "1")
			errors.WriteErrorWithStatus(w, http.StatusTooManyRequests, errors.CodeRateLimited,
				"Too many requests. Please slow down.")
			return
		}

		next.ServeHTTP(w, r)
	})
}
