package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type RateLimitConfig struct {
	PerSecond  float64
	Burst      int
	Expiration time.Duration
	// Paths listed here bypass the limiter, e.g. the metrics endpoint.
	SkipPaths []string
}

// NewRateLimiterMiddleware limits requests per client IP.
func NewRateLimiterMiddleware(cfg RateLimitConfig) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	config := middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			_, ok := skip[c.Path()]
			return ok
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.PerSecond),
				Burst:     cfg.Burst,
				ExpiresIn: cfg.Expiration,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(context echo.Context, err error) error {
			return context.JSON(http.StatusForbidden, Response{
				Status:  http.StatusForbidden,
				Message: "Access forbidden: rate limiter error occurred",
			})
		},
		DenyHandler: func(context echo.Context, identifier string, err error) error {
			return context.JSON(http.StatusTooManyRequests, Response{
				Status:  http.StatusTooManyRequests,
				Message: "Too many requests: rate limit exceeded, please try again later",
			})
		},
	}

	return middleware.RateLimiterWithConfig(config)
}
