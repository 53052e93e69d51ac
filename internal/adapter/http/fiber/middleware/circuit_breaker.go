package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/rentmap-voice/pkg/config"
)

// CircuitBreaker sheds load once handlers keep failing with server errors.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 3
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rentmap-api",
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= maxRequests && failureRatio >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if isServerFailure(handlerErr) {
				return nil, handlerErr
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}

// isServerFailure counts only errors that would render as 5xx.
func isServerFailure(err error) bool {
	if err == nil {
		return false
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code >= fiber.StatusInternalServerError
	}
	return !isClientError(err)
}
