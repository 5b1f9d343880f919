package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"skillswap/internal/models"
	"skillswap/internal/observability"
)

// ErrNoRateLimitStore is returned by CheckRateLimit without a Redis client.
var ErrNoRateLimitStore = errors.New("rate limit store unavailable")

// FailPolicy decides what happens when the limit store cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// RateLimiter counts requests per key in fixed Redis windows. A nil client
// or a disabled limiter lets everything through.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
	policy  FailPolicy
}

// NewRateLimiter returns a limiter over rdb. Limits are only enforced when
// enabled is set; development and test runs are not throttled.
func NewRateLimiter(rdb *redis.Client, enabled bool, policy FailPolicy) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled, policy: policy}
}

// CheckRateLimit reports whether id may make another request to resource
// within window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrNoRateLimitStore
	}

	key := fmt.Sprintf("skillswap:rl:%s:%s", resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Limit returns a handler enforcing limit requests per window for resource,
// keyed by the acting user when known and by remote IP otherwise.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if l == nil || !l.enabled || l.rdb == nil {
			return c.Next()
		}

		id := "ip:" + c.IP()
		if uid, ok := c.Locals(LocalUserID).(string); ok && uid != "" {
			id = "user:" + uid
		}

		allowed, err := CheckRateLimit(c.UserContext(), l.rdb, resource, id, limit, window)
		if err != nil {
			if l.policy == FailClosed {
				observability.GlobalLogger.WarnContext(c.UserContext(), "rate limit store unavailable",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "Rate limit unavailable",
				})
			}
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
