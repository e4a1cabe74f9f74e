package srcache

import (
	"log/slog"
	"sync"
	"time"
)

// coordinator is the lifecycle authority over entries: the only place
// they are created or stopped. Its mutex makes the check-then-create
// sequence atomic per key, so at most one entry ever exists for a key.
type coordinator struct {
	mu      sync.Mutex
	dir     *directory
	log     *slog.Logger
	metrics *metricsSet
	closed  bool
}

func newCoordinator(log *slog.Logger, m *metricsSet) *coordinator {
	return &coordinator{
		dir:     newDirectory(),
		log:     log,
		metrics: m,
	}
}

// add creates and starts an entry for key. Arguments are assumed
// validated by the caller.
func (c *coordinator) add(key string, compute ComputeFunc, ttl, refresh time.Duration) (*entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if c.dir.exists(key) {
		return nil, ErrAlreadyRegistered
	}
	e, ok := newEntry(c.dir, key, compute, ttl, refresh, c.log, c.metrics)
	if !ok {
		return nil, ErrAlreadyRegistered
	}
	c.metrics.setEntries(c.dir.count())
	go e.run()
	return e, nil
}

// remove stops the entry for key and frees the key for re-registration.
// Removing an unknown key is reported but not an error.
func (c *coordinator) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.dir.lookup(key)
	if !ok {
		c.log.Debug("remove of unknown key", "key", key)
		return
	}
	c.dir.unregister(key)
	e.halt()
	c.metrics.setEntries(c.dir.count())
}

func (c *coordinator) lookup(key string) (*entry, bool) {
	return c.dir.lookup(key)
}

// list returns a snapshot of the live entries at call time.
func (c *coordinator) list() []*entry {
	return c.dir.snapshot()
}

func (c *coordinator) count() int {
	return c.dir.count()
}

// close stops every entry and refuses further registrations.
func (c *coordinator) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, e := range c.dir.snapshot() {
		c.dir.unregister(e.key)
		e.halt()
	}
	c.metrics.setEntries(0)
}
