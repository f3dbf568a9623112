package middleware

import (
	"log"
	"math"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"wifisub_app/internal/apperr"
	"wifisub_app/internal/services"
)

// RateLimit allows limit requests per window for each key. keyFn derives the
// key from the request, e.g. the caller's user ID or IP. Limiter errors are
// logged and the request is let through.
func RateLimit(limiter services.RateLimiter, name string, limit int, window time.Duration, keyFn func(c echo.Context) string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limit <= 0 {
				return next(c)
			}

			key := name + ":" + keyFn(c)
			d, err := limiter.Allow(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Printf("[ratelimit] %s check failed, allowing request: %v", key, err)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				retry := int(math.Ceil(d.RetryAfter.Seconds()))
				if retry < 1 {
					retry = 1
				}
				h.Set("Retry-After", strconv.Itoa(retry))
				return apperr.E(apperr.RateLimited, "too many requests, try again later")
			}
			return next(c)
		}
	}
}

// ByUser keys requests on the authenticated caller
func ByUser(c echo.Context) string {
	return ActorFrom(c).ID
}

// ByIP keys requests on the client address
func ByIP(c echo.Context) string {
	return c.RealIP()
}
