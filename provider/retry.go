package provider

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/yaman-yucel/lirashield"
	"github.com/yaman-yucel/lirashield/date"
	"github.com/yaman-yucel/lirashield/logger"
)

// Retry calls f up to attempts times while it fails with
// lirashield.ErrProviderUnavailable, waiting exponentially longer after each
// failure, starting from wait. Any other error is returned at once.
func Retry(ctx context.Context, attempts int, wait time.Duration, f func(context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = wait
	b.MaxElapsedTime = 0 // bounded by attempts

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(attempts, 1)-1)), ctx)
	attempt := 1
	return backoff.RetryNotify(func() error {
		err := f(ctx)
		if err != nil && !errors.Is(err, lirashield.ErrProviderUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		attempt++
		logger.L.Warn("provider unavailable, retrying", "attempt", attempt, "of", attempts, "wait", next, "error", err)
	})
}

type retrying struct {
	Source
	attempts int
	wait     time.Duration
}

// WithRetry returns a Source whose Fetch is wrapped in Retry.
func WithRetry(src Source, attempts int, wait time.Duration) Source {
	return &retrying{Source: src, attempts: attempts, wait: wait}
}

func (r *retrying) Fetch(ctx context.Context, ticker string, rng date.Range) (quotes []Quote, err error) {
	err = Retry(ctx, r.attempts, r.wait, func(ctx context.Context) (err error) {
		quotes, err = r.Source.Fetch(ctx, ticker, rng)
		return err
	})
	return quotes, err
}
