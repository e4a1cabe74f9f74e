package srcache

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithLogger sets the logger used for entry lifecycle and refresh
// failure logs. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithDefaultTimeout sets the waiting budget used by Get. Defaults to
// DefaultGetTimeout. Non-positive values are ignored.
func WithDefaultTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMetrics registers the cache's prometheus collectors on reg and
// enables metric recording. Without this option no metrics are kept.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Cache) {
		if reg != nil {
			c.metrics = newMetricsSet(reg)
		}
	}
}
