package tcp

import (
	"context"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"tcp-user-service/pkg/logger"
)

// fixedWindowScript increments the per-client counter and starts the
// window on the first hit.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
	end
	return count
`)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	WindowSeconds     int
	Enabled           bool
}

// RateLimiter limits requests per client IP with a fixed window kept in Redis.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
	}
}

// Allow reports whether clientIP may issue another request in the current
// window. Redis errors allow the request.
func (rl *RateLimiter) Allow(ctx context.Context, clientIP string) bool {
	if rl == nil || !rl.config.Enabled {
		return true
	}

	key := fmt.Sprintf("ratelimit:tcp:%s", clientIP)
	maxRequests := rl.maxRequests()

	count, err := fixedWindowScript.Run(ctx, rl.client, []string{key}, rl.config.WindowSeconds).Int64()
	if err != nil {
		logger.WithContext(ctx, rl.log).Warn("rate limiter redis error, allowing request",
			zap.String("client_ip", clientIP),
			zap.Error(err),
		)
		return true
	}

	if count > maxRequests {
		logger.WithContext(ctx, rl.log).Warn("rate limit exceeded",
			zap.String("client_ip", clientIP),
			zap.Int64("count", count),
			zap.Int64("limit", maxRequests),
		)
		return false
	}

	return true
}

func (rl *RateLimiter) maxRequests() int64 {
	n := int64(rl.config.RequestsPerSecond * float64(rl.config.WindowSeconds))
	if n < 1 {
		return 1
	}
	return n
}

// clientIP strips the port from a remote address.
func clientIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
