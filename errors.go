package srcache

import "errors"

// Registration and read errors. Callers should test with errors.Is.
var (
	// ErrAlreadyRegistered is returned by Register when the key already
	// has a live entry.
	ErrAlreadyRegistered = errors.New("srcache: key already registered")

	// ErrNotRegistered is returned by Get when no entry exists for the key.
	ErrNotRegistered = errors.New("srcache: key not registered")

	// ErrTimeout is returned by Get when no value became available within
	// the caller's waiting budget. The in-flight computation, if any,
	// keeps running and its result is cached for later readers.
	ErrTimeout = errors.New("srcache: timed out waiting for value")

	// ErrClosed is returned by Register after Close has been called.
	ErrClosed = errors.New("srcache: cache is closed")

	ErrNilCompute         = errors.New("srcache: compute function must not be nil")
	ErrTTLNotPositive     = errors.New("srcache: ttl must be greater than zero")
	ErrRefreshNegative    = errors.New("srcache: refresh interval must not be negative")
	ErrRefreshTooLarge    = errors.New("srcache: refresh interval must be smaller than ttl")
	ErrTimeoutNotPositive = errors.New("srcache: timeout must be greater than zero")
)
