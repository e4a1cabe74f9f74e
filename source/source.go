// Package source provides adapters that wrap common backends as
// srcache compute functions: the expensive, rate-limited, or
// slow-changing upstreams a refresh-ahead cache exists to front.
//
// Each adapter returns a srcache.ComputeFunc closed over its backend
// handle; the cache re-executes it on every refresh. Adapters take an
// explicit per-call timeout so a wedged upstream cannot hold a
// computation open forever.
package source

import "time"

// DefaultTimeout is applied when an adapter is given a non-positive
// timeout.
const DefaultTimeout = 10 * time.Second

func orDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}
