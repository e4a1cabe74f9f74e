// Package logging holds the process-wide operational logger for
// srcached. The library itself takes a logger per cache instance; this
// package only wires the daemon's default.
package logging

import (
	"log/slog"
	"os"
	"sync/atomic"
)

var (
	logger   atomic.Pointer[slog.Logger]
	logLevel = new(slog.LevelVar)
)

func init() {
	logLevel.Set(slog.LevelInfo)
	logger.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))
}

// Default returns the operational logger.
func Default() *slog.Logger {
	return logger.Load()
}

// Init reconfigures the operational logger.
// format: "text" (default) or "json". level: "debug", "info", "warn", "error".
func Init(format, level string) {
	SetLevel(level)

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger.Store(slog.New(handler))
}

// SetLevel changes the log level. Unknown values are ignored.
func SetLevel(level string) {
	switch level {
	case "debug", "DEBUG":
		logLevel.Set(slog.LevelDebug)
	case "info", "INFO":
		logLevel.Set(slog.LevelInfo)
	case "warn", "WARN", "warning", "WARNING":
		logLevel.Set(slog.LevelWarn)
	case "error", "ERROR":
		logLevel.Set(slog.LevelError)
	}
}
