package retry

import (
	"context"
	"errors"
	"time"

	"github.com/example/crowdfund/internal/retry/backoff"
)

// Strategy decides whether an action should be retried. Strategies may sleep.
type Strategy func(ctx context.Context, attempts uint, err error) bool

// NonRetriableErrors stops on errors matching one of nonRetriable.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(_ context.Context, _ uint, err error) bool {
		for _, e := range nonRetriable {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff. It gives up
// early when ctx is done.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(ctx context.Context, attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}
		return sleep(ctx, delay)
	}
}

var sleep = func(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
