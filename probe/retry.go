package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func newBackOff(config RetryConfig) backoff.BackOff {
	switch config.Policy {
	case RetryImmediate:
		return &backoff.ZeroBackOff{}
	case RetryExponential:
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = config.Interval
		b.MaxInterval = config.MaxInterval
		// Never stop on elapsed time, readiness is only given up through ctx
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	default:
		return backoff.NewConstantBackOff(config.Interval)
	}
}

// retryUntilReady calls attempt until it succeeds. Attempt errors are never
// returned, the only error is ctx.Err() once ctx is done.
func retryUntilReady(
	ctx context.Context,
	target Target,
	config Config,
	logger *slog.Logger,
	attempt func(ctx context.Context) error,
) (Outcome, error) {
	start := time.Now()
	attempts := 0

	operation := func() error {
		attempts++

		attemptCtx, cancel := attemptContext(ctx, config)
		defer cancel()

		return attempt(attemptCtx)
	}

	notify := func(err error, next time.Duration) {
		logger.Debug(
			"Probe target is not ready",
			"target",
			target.String(),
			"attempts",
			attempts,
			"retry_in",
			next,
			"error",
			err.Error(),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(newBackOff(config.Retry), ctx), notify)
	outcome := Outcome{
		Target:   target,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}
	if err != nil {
		// The operation never returns a permanent error, so this is ctx
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, ctxErr
		}
		return outcome, err
	}

	return outcome, nil
}
