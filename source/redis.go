package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rafalgolarz/srcache"
)

// Redis returns a compute function that GETs key from client and yields
// the value as []byte. A missing key is a computation failure, so a
// previously cached value survives the upstream key disappearing.
func Redis(client *redis.Client, key string, timeout time.Duration) srcache.ComputeFunc {
	timeout = orDefault(timeout)
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		val, err := client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, fmt.Errorf("source: redis key %q not found", key)
		}
		if err != nil {
			return nil, fmt.Errorf("source: redis GET %q: %w", key, err)
		}
		return val, nil
	}
}
