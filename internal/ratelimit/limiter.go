// Package ratelimit paces outbound Discord API calls using the bucket
// headers Discord returns on every response.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Discord allows roughly 50 requests per second globally; new routes start
// well under that until their own headers arrive.
const (
	defaultBurst    = 5
	defaultInterval = 200 * time.Millisecond
)

// bucket tracks the Discord rate limit window for a single route
type bucket struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	tokens    *rate.Limiter
}

// Limiter manages per-route buckets
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	logger  *zap.Logger
	now     func() time.Time
}

// NewLimiter creates a limiter with no known buckets
func NewLimiter(logger *zap.Logger) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		logger:  logger,
		now:     time.Now,
	}
}

func (l *Limiter) bucketFor(route string) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[route]; ok {
		return b
	}

	b := &bucket{
		remaining: defaultBurst,
		limit:     defaultBurst,
		resetAt:   l.now().Add(time.Second),
		tokens:    rate.NewLimiter(rate.Every(defaultInterval), defaultBurst),
	}
	l.buckets[route] = b
	return b
}

// Wait blocks until a request on route may be sent or ctx is done.
// An exhausted bucket is waited out before a token is taken.
func (l *Limiter) Wait(ctx context.Context, route string) error {
	b := l.bucketFor(route)

	b.mu.Lock()
	var delay time.Duration
	if b.remaining <= 0 {
		delay = b.resetAt.Sub(l.now())
	}
	tokens := b.tokens
	b.mu.Unlock()

	if delay > 0 {
		l.logger.Warn("rate limit exhausted, waiting",
			zap.String("route", route),
			zap.Duration("wait_duration", delay),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	if err := tokens.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait failed: %w", err)
	}
	return nil
}

// Update records the X-RateLimit-* headers of a response on route
func (l *Limiter) Update(route string, headers http.Header) {
	b := l.bucketFor(route)

	b.mu.Lock()
	defer b.mu.Unlock()

	if val, err := strconv.Atoi(headers.Get("X-RateLimit-Remaining")); err == nil {
		b.remaining = val
	}
	if val, err := strconv.Atoi(headers.Get("X-RateLimit-Limit")); err == nil && val > 0 {
		b.limit = val
	}

	// Reset-After is relative and immune to clock skew, so it wins over Reset.
	if secs, err := strconv.ParseFloat(headers.Get("X-RateLimit-Reset-After"), 64); err == nil {
		b.resetAt = l.now().Add(floatSeconds(secs))
	} else if epoch, err := strconv.ParseFloat(headers.Get("X-RateLimit-Reset"), 64); err == nil {
		sec, frac := math.Modf(epoch)
		b.resetAt = time.Unix(int64(sec), int64(frac*1e9))
	}

	if window := b.resetAt.Sub(l.now()); window > 0 {
		b.tokens.SetLimit(rate.Limit(float64(b.limit) / window.Seconds()))
		b.tokens.SetBurst(b.limit)
	}

	l.logger.Debug("updated rate limit from headers",
		zap.String("route", route),
		zap.Int("remaining", b.remaining),
		zap.Int("limit", b.limit),
		zap.Time("reset_at", b.resetAt),
	)
}

// HandleTooManyRequests marks route as exhausted after a 429 and returns
// how long Discord asked us to back off.
func (l *Limiter) HandleTooManyRequests(route string, headers http.Header) time.Duration {
	b := l.bucketFor(route)

	b.mu.Lock()
	defer b.mu.Unlock()

	var retryAfter time.Duration
	if secs, err := strconv.ParseFloat(headers.Get("Retry-After"), 64); err == nil {
		retryAfter = floatSeconds(secs)
	} else if secs, err := strconv.ParseFloat(headers.Get("X-RateLimit-Reset-After"), 64); err == nil {
		retryAfter = floatSeconds(secs)
	}
	if retryAfter <= 0 {
		retryAfter = time.Second
	}

	b.remaining = 0
	b.resetAt = l.now().Add(retryAfter)

	l.logger.Warn("rate limited by Discord API",
		zap.String("route", route),
		zap.Duration("retry_after", retryAfter),
		zap.Bool("global", headers.Get("X-RateLimit-Global") == "true"),
	)

	return retryAfter
}

// Status returns the current window for route
func (l *Limiter) Status(route string) (remaining, limit int, resetAt time.Time) {
	b := l.bucketFor(route)

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.remaining, b.limit, b.resetAt
}

// Reset clears all buckets
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets = make(map[string]*bucket)
}

func floatSeconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
