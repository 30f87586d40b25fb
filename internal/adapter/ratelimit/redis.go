// internal/adapter/ratelimit/redis.go

package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shivraj-yadav/ChugLi/internal/metrics"
)

// Limiter implements sliding-window rate limiting over Redis. It fails
// open: if Redis is unreachable the request is allowed and the error is
// logged, so the limiter can never take the API down with it.
type Limiter struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewLimiter creates a limiter over an established Redis client.
func NewLimiter(client *redis.Client, logger zerolog.Logger) *Limiter {
	return &Limiter{
		client: client,
		logger: logger,
	}
}

// Allow checks and records one action under key within the window.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	now := time.Now()
	windowStart := now.Add(-window)

	pipe := l.client.Pipeline()

	// Drop entries outside the window, count the rest, record this action
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("rate limit check failed, allowing request")
		return true
	}

	return countCmd.Val() < int64(limit)
}

// Middleware limits requests per client IP for the route it wraps. name
// identifies the endpoint in logs and metrics.
func (l *Limiter) Middleware(name string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			key := fmt.Sprintf("ratelimit:%s:%s", name, ip)

			if !l.Allow(r.Context(), key, limit, window) {
				metrics.RateLimitHits.WithLabelValues(name).Inc()
				l.logger.Warn().
					Str("endpoint", name).
					Str("ip", ip).
					Msg("rate limit exceeded")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the real client IP from headers or the connection.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
