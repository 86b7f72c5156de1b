package controllers

import (
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/finagent/usdthub/lib/ratelimit"
	"github.com/finagent/usdthub/lib/responses"
)

// CallerKey identifies a caller for rate limiting, preferring the explicit
// header over the peer address.
func CallerKey(c echo.Context) string {
	if caller := c.Request().Header.Get("X-Caller-Id"); caller != "" {
		return caller
	}
	return c.RealIP()
}

// rateLimited consumes a window slot for the caller. It runs after request
// validation, so malformed requests never count against the window. When the
// caller is over the limit it writes the 429 with a Retry-After hint itself.
func rateLimited(c echo.Context, limiter *ratelimit.Limiter) (bool, error) {
	ok, retryAfter := limiter.Allow(CallerKey(c))
	if ok {
		return false, nil
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	return true, c.JSON(responses.RateLimitedError.HttpStatusCode, responses.RateLimitedError)
}
