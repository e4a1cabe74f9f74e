// Package srcache implements a refresh-ahead, TTL-based value cache.
//
// Callers register a zero-argument computation under a key; the cache
// executes it immediately, then keeps re-executing it in the background
// on a fixed cadence. Readers always see the most recently computed
// value and never trigger synchronous recomputation themselves, except
// when a value has outlived its TTL with no refresh in flight — then
// the read starts one and waits for it, bounded by a timeout.
//
// This makes it a fit for data that is expensive, rate-limited, or
// slow-changing but read frequently: exchange rates polled from an
// external API, a config object in S3, an aggregate query against a
// warehouse. The source package provides adapters for common backends.
//
// A failed or panicking computation never evicts the last good value;
// the failure is logged and the next scheduled refresh tries again.
// Values live until Remove or Close — there is no eviction under memory
// pressure and nothing is persisted across restarts.
package srcache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultGetTimeout is the waiting budget used by Get when the cache
// was built without WithDefaultTimeout.
const DefaultGetTimeout = 30 * time.Second

// Cache is the public surface: argument validation in front of the
// coordinator that owns entry lifecycles. All methods are safe for
// concurrent use.
type Cache struct {
	coord   *coordinator
	log     *slog.Logger
	metrics *metricsSet
	timeout time.Duration
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		log:     slog.Default(),
		timeout: DefaultGetTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.coord = newCoordinator(c.log, c.metrics)
	return c
}

// Register creates a cache entry for key backed by compute. The first
// computation starts immediately; afterwards compute is re-executed
// every refreshInterval in the background. ttl bounds how long a
// computed value counts as fresh and must exceed refreshInterval.
// A refreshInterval of zero disables the background cadence, leaving
// only read-triggered recomputation on expiry.
func (c *Cache) Register(key string, compute ComputeFunc, ttl, refreshInterval time.Duration) error {
	if compute == nil {
		return ErrNilCompute
	}
	if ttl <= 0 {
		return ErrTTLNotPositive
	}
	if refreshInterval < 0 {
		return ErrRefreshNegative
	}
	if refreshInterval >= ttl {
		return ErrRefreshTooLarge
	}
	_, err := c.coord.add(key, compute, ttl, refreshInterval)
	return err
}

// Get returns the cached value for key, waiting up to the cache's
// default timeout if a computation is in flight or the value expired.
func (c *Cache) Get(ctx context.Context, key string) (any, error) {
	return c.GetWithTimeout(ctx, key, c.timeout)
}

// GetWithTimeout is Get with an explicit waiting budget.
//
// A fresh value is returned immediately. If a computation is in flight
// the call waits for its outcome; if the value has expired with nothing
// in flight, a computation is started on the caller's behalf. When the
// budget (or ctx) runs out first, the computation is not cancelled —
// only this caller's wait is abandoned.
func (c *Cache) GetWithTimeout(ctx context.Context, key string, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return nil, ErrTimeoutNotPositive
	}
	e, ok := c.coord.lookup(key)
	if !ok {
		c.metrics.getDone(outcomeNotRegistered)
		return nil, ErrNotRegistered
	}
	v, err := e.get(ctx, timeout)
	switch {
	case err == nil:
		c.metrics.getDone(outcomeOK)
	case errors.Is(err, ErrTimeout):
		c.metrics.getDone(outcomeTimeout)
	case errors.Is(err, ErrNotRegistered):
		c.metrics.getDone(outcomeNotRegistered)
	default:
		c.metrics.getDone(outcomeCanceled)
	}
	return v, err
}

// Remove stops the entry for key and frees the key for re-registration.
// Removing an unknown key is a no-op.
func (c *Cache) Remove(key string) {
	c.coord.remove(key)
}

// Keys returns the registered keys at call time, in no particular order.
func (c *Cache) Keys() []string {
	entries := c.coord.list()
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.coord.count()
}

// Close stops all entries and refuses further registrations. Reads
// against a closed cache return ErrNotRegistered.
func (c *Cache) Close() {
	c.coord.close()
}
