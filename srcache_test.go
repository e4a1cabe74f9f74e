package srcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c := New(WithLogger(discardLogger()))
	t.Cleanup(c.Close)
	return c
}

func constant(v any) ComputeFunc {
	return func() (any, error) { return v, nil }
}

func TestCache_RegisterValidation(t *testing.T) {
	c := newTestCache(t)

	cases := []struct {
		name    string
		compute ComputeFunc
		ttl     time.Duration
		refresh time.Duration
		want    error
	}{
		{"nil compute", nil, time.Minute, time.Second, ErrNilCompute},
		{"zero ttl", constant(1), 0, 0, ErrTTLNotPositive},
		{"negative ttl", constant(1), -time.Second, 0, ErrTTLNotPositive},
		{"negative refresh", constant(1), time.Minute, -time.Second, ErrRefreshNegative},
		{"refresh equals ttl", constant(1), time.Minute, time.Minute, ErrRefreshTooLarge},
		{"refresh above ttl", constant(1), time.Second, time.Minute, ErrRefreshTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := c.Register("bad", tc.compute, tc.ttl, tc.refresh)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Register = %v, want %v", err, tc.want)
			}
		})
	}

	// None of the rejected registrations may have created an entry.
	if c.Len() != 0 {
		t.Fatalf("Len = %d after rejected registrations, want 0", c.Len())
	}
}

func TestCache_DuplicateRegistration(t *testing.T) {
	c := newTestCache(t)

	if err := c.Register("dup", constant(1), time.Minute, time.Second); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := c.Register("dup", constant(2), time.Minute, time.Second); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCache_ConcurrentRegisterSameKey(t *testing.T) {
	c := newTestCache(t)

	const workers = 16
	var wg sync.WaitGroup
	var wins atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Register("contended", constant(1), time.Minute, time.Second); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("%d concurrent registrations succeeded, want exactly 1", wins.Load())
	}
}

func TestCache_GetUnknownKey(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestCache_GetTimeoutValidation(t *testing.T) {
	c := newTestCache(t)

	if _, err := c.GetWithTimeout(context.Background(), "any", 0); !errors.Is(err, ErrTimeoutNotPositive) {
		t.Fatalf("expected ErrTimeoutNotPositive, got %v", err)
	}
	if _, err := c.GetWithTimeout(context.Background(), "any", -time.Second); !errors.Is(err, ErrTimeoutNotPositive) {
		t.Fatalf("expected ErrTimeoutNotPositive, got %v", err)
	}
}

func TestCache_GetReturnsValue(t *testing.T) {
	c := newTestCache(t)

	if err := c.Register("greeting", constant("hello"), time.Minute, time.Second); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	v, err := c.Get(context.Background(), "greeting")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if v != "hello" {
		t.Fatalf("got %v, want hello", v)
	}
}

func TestCache_GetHonorsContext(t *testing.T) {
	c := newTestCache(t)

	block := make(chan struct{})
	defer close(block)
	err := c.Register("slow", func() (any, error) {
		<-block
		return nil, nil
	}, time.Minute, time.Second)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if _, err := c.GetWithTimeout(ctx, "slow", time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCache_RemoveFreesKey(t *testing.T) {
	c := newTestCache(t)

	if err := c.Register("k", constant(1), time.Minute, time.Second); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	c.Remove("k")

	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered after Remove, got %v", err)
	}

	// Remove is idempotent and the key is reusable.
	c.Remove("k")
	if err := c.Register("k", constant(2), time.Minute, time.Second); err != nil {
		t.Fatalf("re-Register after Remove failed: %v", err)
	}
	v, err := c.Get(context.Background(), "k")
	if err != nil || v != 2 {
		t.Fatalf("Get after re-Register = %v, %v; want 2", v, err)
	}
}

func TestCache_KeysAndLen(t *testing.T) {
	c := newTestCache(t)

	names := []string{"a", "b", "c"}
	for i, name := range names {
		if err := c.Register(name, constant(name), time.Minute, time.Second); err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
		if c.Len() != i+1 {
			t.Fatalf("Len = %d after %d registrations", c.Len(), i+1)
		}
	}

	keys := c.Keys()
	if len(keys) != len(names) {
		t.Fatalf("Keys returned %d entries, want %d", len(keys), len(names))
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		seen[k] = true
	}
	for _, name := range names {
		if !seen[name] {
			t.Fatalf("key %s missing from Keys()", name)
		}
	}

	c.Remove("b")
	if c.Len() != 2 {
		t.Fatalf("Len = %d after Remove, want 2", c.Len())
	}
}

func TestCache_Close(t *testing.T) {
	c := New(WithLogger(discardLogger()))

	if err := c.Register("k", constant(1), time.Minute, time.Second); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	c.Close()

	if err := c.Register("k2", constant(2), time.Minute, time.Second); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered after Close, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after Close, want 0", c.Len())
	}

	// Close is idempotent.
	c.Close()
}

func TestCache_DefaultTimeoutOption(t *testing.T) {
	c := New(WithLogger(discardLogger()), WithDefaultTimeout(15*time.Millisecond))
	t.Cleanup(c.Close)

	block := make(chan struct{})
	defer close(block)
	err := c.Register("slow", func() (any, error) {
		<-block
		return nil, nil
	}, time.Minute, time.Second)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	start := time.Now()
	if _, err := c.Get(context.Background(), "slow"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("default timeout not applied, Get took %v", elapsed)
	}
}
