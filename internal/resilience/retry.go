package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/domain"
)

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withRetry re-runs fn on retryable faults, up to cfg.RetryAttempts total
// attempts with a fixed backoff between them. Non-retryable errors return
// immediately.
func withRetry[T any](ctx context.Context, cfg Config, log *zap.Logger, name string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		value, err := fn()
		if err == nil {
			return value, nil
		}
		if !domain.IsRetryable(err) {
			return zero, err
		}
		lastErr = err
		if attempt < attempts {
			log.Warn("transient fault, retrying",
				zap.String("operation", name),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if serr := sleepWithContext(ctx, cfg.RetryBackoff); serr != nil {
				return zero, domain.Timeout("retry wait cancelled", serr)
			}
		}
	}
	return zero, lastErr
}

// withTimeout bounds a single attempt. The attempt keeps running in its
// goroutine after expiry; the derived context is its cancellation signal.
func withTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fn(attemptCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		var zero T
		return zero, domain.Timeout("operation deadline exceeded", attemptCtx.Err())
	}
}
