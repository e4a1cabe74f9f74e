package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rafalgolarz/srcache"
)

// Postgres returns a compute function that runs query against pool and
// yields the first column of the first row. Intended for the aggregate
// or lookup queries that are too expensive to run per read.
func Postgres(pool *pgxpool.Pool, query string, timeout time.Duration, args ...any) srcache.ComputeFunc {
	timeout = orDefault(timeout)
	return func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var v any
		if err := pool.QueryRow(ctx, query, args...).Scan(&v); err != nil {
			return nil, fmt.Errorf("source: postgres query: %w", err)
		}
		return v, nil
	}
}
