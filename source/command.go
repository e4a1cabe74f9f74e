package source

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rafalgolarz/srcache"
)

// Command returns a compute function that runs a command and yields its
// stdout as []byte. A non-zero exit (or hitting the timeout) is a
// computation failure.
func Command(name string, args []string, timeout time.Duration) srcache.ComputeFunc {
	timeout = orDefault(timeout)
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out, err := exec.CommandContext(ctx, name, args...).Output()
		if err != nil {
			return nil, fmt.Errorf("source: run %s: %w", name, err)
		}
		return out, nil
	}
}
