// Package retry runs an action until it succeeds or a strategy gives up.
package retry

import (
	"context"
)

// Action is a function to be performed in a retriable manner.
type Action func(ctx context.Context) error

// Retry executes action until it returns nil or one of the strategies reports
// that no further attempt should be made. The number of attempts and the last
// error are returned.
//
// Strategies run in order, so any that sleep should come last. A cancelled
// context stops the loop before the next attempt.
func Retry(ctx context.Context, action Action, strategies ...Strategy) (uint, error) {
	for i := uint(1); ; i++ {
		err := action(ctx)
		if err == nil {
			return i, nil
		}

		for _, s := range strategies {
			if !s(ctx, i, err) {
				return i, err
			}
		}

		if ctx.Err() != nil {
			return i, err
		}
	}
}
