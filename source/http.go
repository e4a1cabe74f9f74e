package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rafalgolarz/srcache"
)

// HTTP returns a compute function that GETs url and yields the response
// body as []byte. Any status other than 200 is a computation failure.
// A nil client falls back to http.DefaultClient.
func HTTP(client *http.Client, url string, timeout time.Duration) srcache.ComputeFunc {
	if client == nil {
		client = http.DefaultClient
	}
	timeout = orDefault(timeout)
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("source: GET %s: unexpected status %s", url, resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("source: GET %s: read body: %w", url, err)
		}
		return body, nil
	}
}
