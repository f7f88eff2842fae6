package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimitConfig bounds how often a single client may hit an endpoint
// within a fixed window. The obvious target is queue join during an on-sale
// burst.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	Prefix string
}

// RateLimit returns a fixed-window limiter backed by Redis so the limit
// holds across replicas. With no Redis client the limiter degrades to a
// pass-through rather than blocking sales.
func RateLimit(cfg RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if rdb == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			window := time.Now().UnixMilli() / cfg.Window.Milliseconds()
			key := fmt.Sprintf("%s:%s:%d", cfg.Prefix, c.RealIP(), window)

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis being down must not stop ticket sales.
				return next(c)
			}
			if count == 1 {
				rdb.Expire(ctx, key, cfg.Window)
			}
			if count > int64(cfg.Limit) {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(cfg.Window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
