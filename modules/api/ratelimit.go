package api

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig configures the login and registration limiter.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowSize        time.Duration
	KeyPrefix         string
}

// RateLimitResult is the outcome of a single limiter check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (*RateLimitResult, error)
}

// slidingWindowScript trims the window, counts and conditionally records the
// request in one round trip. It returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_size_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_size_ms)
		redis.call('PEXPIRE', counter_key, window_size_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = oldest[2] + window_size_ms - now
	end
	return {0, 0, retry_after}
`)

// SlidingWindowLimiter counts requests per key in a Redis sorted set.
type SlidingWindowLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

var _ Limiter = (*SlidingWindowLimiter)(nil)

// NewSlidingWindowLimiter creates a limiter backed by client.
func NewSlidingWindowLimiter(client *redis.Client, config RateLimitConfig) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{client: client, config: config}
}

// Allow records the request if the window has room.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*RateLimitResult, error) {
	now := time.Now()
	redisKey := l.config.KeyPrefix + key

	result, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.config.WindowSize).UnixMilli(),
		l.config.RequestsPerWindow,
		l.config.WindowSize.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(result) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result length: %d", len(result))
	}

	res := &RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   now.Add(l.config.WindowSize),
	}
	if !res.Allowed && result[2] > 0 {
		res.RetryAfter = time.Duration(result[2]) * time.Millisecond
	}
	return res, nil
}

// RateLimitByIP limits requests per client IP. Limiter errors let the
// request through.
func RateLimitByIP(limiter Limiter, limit int, logger types.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := limiter.Allow(c.UserContext(), c.IP())
		if err != nil {
			logger.Warn("Rate limiter unavailable", "path", c.Path(), "error", err)
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Message: "Too many requests, please try again later",
			})
		}
		return c.Next()
	}
}
