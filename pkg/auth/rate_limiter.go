package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter implements sliding window rate limiting in memory.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string][]time.Time
	limit      int
	windowSize time.Duration
	now        func() time.Time
	lastSweep  time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string][]time.Time),
		limit:      limit,
		windowSize: windowSize,
		now:        time.Now,
	}
}

// Allow records a request for key and reports whether it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.windowSize)
	if now.Sub(l.lastSweep) >= l.windowSize {
		l.sweepLocked(windowStart)
		l.lastSweep = now
	}

	kept := l.windows[key][:0]
	for _, ts := range l.windows[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.limit {
		if len(kept) == 0 {
			delete(l.windows, key)
		} else {
			l.windows[key] = kept
		}
		return false, nil
	}
	l.windows[key] = append(kept, now)
	return true, nil
}

// sweepLocked drops keys whose newest request has left the window.
func (l *SlidingWindowLimiter) sweepLocked(windowStart time.Time) {
	for key, stamps := range l.windows {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(windowStart) {
			delete(l.windows, key)
		}
	}
}

// Reset resets the rate limit for a key
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

// KeyedLimiter namespaces the keys of an underlying limiter.
type KeyedLimiter struct {
	limiter RateLimiter
	prefix  string
	limit   int
	window  time.Duration
}

func newKeyedLimiter(limiter RateLimiter, prefix string, limit int, window time.Duration) *KeyedLimiter {
	return &KeyedLimiter{limiter: limiter, prefix: prefix, limit: limit, window: window}
}

// NewIPRateLimiter limits requests per client IP.
func NewIPRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return newKeyedLimiter(NewSlidingWindowLimiter(requestsPerMinute, time.Minute), "ip", requestsPerMinute, time.Minute)
}

// NewUserRateLimiter limits requests per authenticated user.
func NewUserRateLimiter(requestsPerMinute int) *KeyedLimiter {
	return newKeyedLimiter(NewSlidingWindowLimiter(requestsPerMinute, time.Minute), "user", requestsPerMinute, time.Minute)
}

// NewLoginRateLimiter limits sign-in attempts per email address. A nil
// backend keeps the counters in process memory.
func NewLoginRateLimiter(backend RateLimiter, attemptsPerMinute int) *KeyedLimiter {
	if backend == nil {
		backend = NewSlidingWindowLimiter(attemptsPerMinute, time.Minute)
	}
	return newKeyedLimiter(backend, "login", attemptsPerMinute, time.Minute)
}

// Allow checks if a request for key is allowed
func (l *KeyedLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.limiter.Allow(ctx, l.key(key))
}

// Reset clears the counter for key
func (l *KeyedLimiter) Reset(ctx context.Context, key string) error {
	return l.limiter.Reset(ctx, l.key(key))
}

// Limit returns the configured limit
func (l *KeyedLimiter) Limit() int {
	return l.limit
}

// Window describes the limiter window for error messages.
func (l *KeyedLimiter) Window() string {
	if l.window == time.Minute {
		return "minute"
	}
	return l.window.String()
}

func (l *KeyedLimiter) key(key string) string {
	return fmt.Sprintf("%s:%s", l.prefix, strings.ToLower(key))
}
