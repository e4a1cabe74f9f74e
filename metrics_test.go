package srcache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCache_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithLogger(discardLogger()), WithMetrics(reg))
	t.Cleanup(c.Close)

	if err := c.Register("m", constant(1), time.Minute, time.Second); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := c.Get(context.Background(), "m"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := make(map[string]bool)
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, want := range []string{"srcache_entries", "srcache_gets_total", "srcache_refreshes_total", "srcache_refresh_duration_seconds"} {
		if !found[want] {
			t.Fatalf("metric %s not registered", want)
		}
	}

	for _, mf := range mfs {
		if mf.GetName() == "srcache_entries" {
			if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 1 {
				t.Fatalf("srcache_entries = %v, want 1", v)
			}
		}
	}
}
