package remote

import (
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

func newBreaker(name string, cfg config.Breaker, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinimumRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		// Answers the backend gave on purpose say nothing about its health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			switch {
			case appErrors.IsType(err, appErrors.ErrorTypeNotFound),
				appErrors.IsType(err, appErrors.ErrorTypeConflict),
				appErrors.IsType(err, appErrors.ErrorTypeValidation):
				return true
			}
			return false
		},
	})
}
