package dataset

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// RetryingFetcher retries a failing fetch with exponential backoff, starting
// at 200ms and capped at 5s.
type RetryingFetcher struct {
	inner    Fetcher
	attempts int
	logger   *slog.Logger
	initial  time.Duration
}

// WithRetry wraps f so that each Fetch makes up to attempts tries.
func WithRetry(f Fetcher, attempts int, logger *slog.Logger) *RetryingFetcher {
	return &RetryingFetcher{
		inner:    f,
		attempts: max(attempts, 1),
		logger:   logger,
		initial:  initialBackoff,
	}
}

func (r *RetryingFetcher) Fetch(ctx context.Context) ([]byte, error) {
	backoff := r.initial
	var err error
	for attempt := 1; ; attempt++ {
		var data []byte
		data, err = r.inner.Fetch(ctx)
		if err == nil {
			return data, nil
		}
		if attempt >= r.attempts || ctx.Err() != nil {
			return nil, err
		}
		r.logger.Warn("dataset fetch failed, retrying",
			"attempt", attempt,
			"of", r.attempts,
			"backoff", backoff,
			"error", err,
		)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}
