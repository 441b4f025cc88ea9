package main

import "time"

// lookupTimeout bounds a whole batch lookup: a few rounds of single fetches.
func lookupTimeout(rpc time.Duration) time.Duration {
	if rpc <= 0 {
		return 15 * time.Second
	}
	return 3 * rpc
}
