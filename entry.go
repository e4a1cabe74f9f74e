package srcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ComputeFunc produces the value cached under a key. It takes no
// arguments; anything the computation needs must be captured by the
// closure. Returning an error keeps the previous value in place until
// the next refresh attempt.
type ComputeFunc func() (any, error)

// entry owns the full lifecycle of one cached value: the initial
// computation, TTL tracking, the periodic background refresh, and
// replies to readers. All of its state lives inside run and is touched
// by exactly one goroutine; timer ticks, computation completions and
// read requests are multiplexed onto that goroutine and handled one at
// a time, which is what keeps the state transitions race-free.
type entry struct {
	key     string
	id      string // instance id, carried in log attributes
	compute ComputeFunc
	ttl     time.Duration
	refresh time.Duration

	log     *slog.Logger
	metrics *metricsSet

	gets chan getRequest
	stop chan struct{}
	once sync.Once
}

// getRequest is a bounded-wait read. The reply channel has capacity 1
// so the entry loop can answer a reader that already gave up without
// blocking.
type getRequest struct {
	reply chan getReply
}

type getReply struct {
	value any
	err   error
}

type computeResult struct {
	value any
	err   error
	took  time.Duration
}

// newEntry creates an entry and registers it in the directory under its
// key. It reports false without side effects if the key is already
// taken. The caller starts the lifecycle with go e.run().
func newEntry(dir *directory, key string, compute ComputeFunc, ttl, refresh time.Duration, log *slog.Logger, m *metricsSet) (*entry, bool) {
	e := &entry{
		key:     key,
		id:      uuid.NewString(),
		compute: compute,
		ttl:     ttl,
		refresh: refresh,
		log:     log,
		metrics: m,
		gets:    make(chan getRequest),
		stop:    make(chan struct{}),
	}
	if !dir.register(key, e) {
		return nil, false
	}
	return e, true
}

// halt tears the entry down. Idempotent; readers blocked on an
// in-flight computation are answered with ErrNotRegistered.
func (e *entry) halt() {
	e.once.Do(func() { close(e.stop) })
}

// run is the entry's control loop. The first computation starts
// immediately; the background cadence is measured from creation. The
// loop itself never blocks on anything but the next event: computations
// execute in their own goroutine, so a slow compute cannot stall reads
// or ticks.
func (e *entry) run() {
	var (
		value     any
		hasValue  bool
		expiresAt time.Time
		inflight  <-chan computeResult
		waiters   []chan getReply
	)

	e.log.Debug("cache entry started",
		"key", e.key, "entry_id", e.id, "ttl", e.ttl, "refresh_interval", e.refresh)

	inflight = e.startCompute()

	// refresh == 0 disables the background cadence; the value is then
	// only recomputed when a read finds it expired.
	var tick <-chan time.Time
	if e.refresh > 0 {
		ticker := time.NewTicker(e.refresh)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-e.stop:
			for _, w := range waiters {
				w <- getReply{err: ErrNotRegistered}
			}
			e.log.Debug("cache entry stopped", "key", e.key, "entry_id", e.id)
			return

		case <-tick:
			// Fixed cadence: a tick that lands mid-refresh is dropped
			// rather than queued, so there is at most one computation
			// per entry at any time. The TTL clock is only reset by a
			// successful result.
			if inflight == nil {
				inflight = e.startCompute()
			}

		case res := <-inflight:
			inflight = nil
			if res.err != nil {
				e.metrics.refreshDone(outcomeFailure, res.took)
				e.log.Warn("refresh failed",
					"key", e.key, "entry_id", e.id, "took", res.took, "error", res.err)
				// The previous value, if any, stays current. Readers
				// blocked on this attempt get that value instead of
				// waiting out the next cadence; with no value yet they
				// keep waiting and run out their own budgets.
				if hasValue {
					waiters = broadcast(waiters, getReply{value: value})
				}
				continue
			}
			e.metrics.refreshDone(outcomeSuccess, res.took)
			value, hasValue = res.value, true
			expiresAt = time.Now().Add(e.ttl)
			waiters = broadcast(waiters, getReply{value: value})

		case req := <-e.gets:
			switch {
			case inflight != nil:
				// A computation is already outstanding; join it rather
				// than starting a second one.
				waiters = append(waiters, req.reply)
			case hasValue && time.Now().Before(expiresAt):
				req.reply <- getReply{value: value}
			default:
				// Expired (or never computed) with nothing in flight:
				// refresh now on the reader's behalf instead of waiting
				// for the next tick.
				inflight = e.startCompute()
				waiters = append(waiters, req.reply)
			}
		}
	}
}

func broadcast(waiters []chan getReply, r getReply) []chan getReply {
	for _, w := range waiters {
		w <- r
	}
	return nil
}

// startCompute runs the compute function in its own goroutine and
// returns the channel its result will arrive on.
func (e *entry) startCompute() <-chan computeResult {
	ch := make(chan computeResult, 1)
	go func() {
		start := time.Now()
		v, err := runCompute(e.compute)
		ch <- computeResult{value: v, err: err, took: time.Since(start)}
	}()
	return ch
}

// runCompute converts a panicking compute function into an ordinary
// computation failure so the entry keeps running and its last good
// value survives.
func runCompute(fn ComputeFunc) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compute panicked: %v", r)
		}
	}()
	return fn()
}

// get forwards a bounded-wait read to the entry's control loop. On
// timeout only the wait is abandoned; an in-flight computation keeps
// running and its result is cached for later readers.
func (e *entry) get(ctx context.Context, timeout time.Duration) (any, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	req := getRequest{reply: make(chan getReply, 1)}
	select {
	case e.gets <- req:
	case <-e.stop:
		return nil, ErrNotRegistered
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.value, r.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
