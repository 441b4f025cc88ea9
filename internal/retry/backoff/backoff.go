// Package backoff provides delay schedules for retry.
package backoff

import (
	"math"
	"time"
)

// Strategy returns how long to wait before the next attempt. attempts starts at 1.
type Strategy func(attempts uint) time.Duration

func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// Exponential returns baseDelay * base^(attempts-1).
func Exponential(baseDelay time.Duration, base float64) Strategy {
	return func(attempts uint) time.Duration {
		f := float64(baseDelay) * math.Pow(base, float64(attempts-1))
		if f >= math.MaxInt64 || math.IsInf(f, 0) {
			return math.MaxInt64
		}
		return time.Duration(f)
	}
}
