package remote

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/config"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// retrier re-runs transient remote failures with exponential backoff and
// jitter.
type retrier struct {
	cfg    config.Retry
	logger *zap.Logger
}

// do runs fn until it succeeds, fails permanently or the attempts run out.
// Operations that are not idempotent get at most one retry.
func (r retrier) do(ctx context.Context, op string, idempotent bool, fn func() error) error {
	maxRetries := r.cfg.MaxRetries
	if !idempotent {
		maxRetries = min(maxRetries, 1)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return appErrors.NewUnavailableError("remote").WithCause(err)
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Remote operation succeeded after retry",
					zap.String("operation", op),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}
		lastErr = err

		if attempt >= maxRetries || !retryable(err) {
			break
		}

		delay := r.delay(attempt)
		r.logger.Warn("Retrying remote operation",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

// retryable reports whether err is a transient remote failure. An open
// circuit is not: retrying would only hold the caller longer.
func retryable(err error) bool {
	if appErrors.HasCode(err, appErrors.CodeCircuitOpen) {
		return false
	}
	return appErrors.IsType(err, appErrors.ErrorTypeExternal) ||
		appErrors.IsType(err, appErrors.ErrorTypeUnavailable)
}

func (r retrier) delay(attempt int) time.Duration {
	base := float64(r.cfg.InitialDelay) * math.Pow(r.cfg.BackoffFactor, float64(attempt))
	if maxDelay := float64(r.cfg.MaxDelay); maxDelay > 0 && base > maxDelay {
		base = maxDelay
	}

	jitter := r.cfg.JitterFactor * base * (rand.Float64()*2 - 1)
	d := base + jitter
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
