package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rafalgolarz/srcache"
	"github.com/rafalgolarz/srcache/internal/config"
	"github.com/rafalgolarz/srcache/internal/logging"
	"github.com/rafalgolarz/srcache/source"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cache daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Init(cfg.LogFormat, cfg.LogLevel)
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.Default()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	cache := srcache.New(
		srcache.WithLogger(log),
		srcache.WithMetrics(reg),
		srcache.WithDefaultTimeout(cfg.GetTimeout.Std()),
	)
	defer cache.Close()

	back := newBackends(cfg)
	defer back.close()

	for _, spec := range cfg.Keys {
		compute, err := back.buildCompute(ctx, spec.Source)
		if err != nil {
			return fmt.Errorf("key %q: %w", spec.Name, err)
		}
		if err := cache.Register(spec.Name, compute, spec.TTL.Std(), spec.RefreshInterval.Std()); err != nil {
			return fmt.Errorf("key %q: %w", spec.Name, err)
		}
		log.Info("key registered",
			"key", spec.Name, "source", spec.Source.Type,
			"ttl", spec.TTL.Std(), "refresh_interval", spec.RefreshInterval.Std())
	}

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: newMux(cache, reg),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("srcached listening", "addr", cfg.Listen, "keys", cache.Len())
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// backends lazily opens the shared clients that sources need, so a
// config with only http keys never touches redis or postgres.
type backends struct {
	cfg   *config.Config
	redis *redis.Client
	pg    *pgxpool.Pool
	s3    *s3.Client
}

func newBackends(cfg *config.Config) *backends {
	return &backends{cfg: cfg}
}

func (b *backends) buildCompute(ctx context.Context, s config.SourceSpec) (srcache.ComputeFunc, error) {
	timeout := s.Timeout.Std()
	switch s.Type {
	case config.SourceHTTP:
		return source.HTTP(nil, s.URL, timeout), nil
	case config.SourceCommand:
		return source.Command(s.Command[0], s.Command[1:], timeout), nil
	case config.SourceRedis:
		return source.Redis(b.redisClient(), s.Key, timeout), nil
	case config.SourcePostgres:
		pool, err := b.pgPool(ctx)
		if err != nil {
			return nil, err
		}
		return source.Postgres(pool, s.Query, timeout), nil
	case config.SourceS3:
		client, err := b.s3Client(ctx)
		if err != nil {
			return nil, err
		}
		return source.S3(client, s.Bucket, s.Key, timeout), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", s.Type)
	}
}

func (b *backends) redisClient() *redis.Client {
	if b.redis == nil {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     b.cfg.Redis.Addr,
			Password: b.cfg.Redis.Password,
			DB:       b.cfg.Redis.DB,
		})
	}
	return b.redis
}

func (b *backends) pgPool(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pg == nil {
		if b.cfg.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres source declared but postgres.dsn not configured")
		}
		pool, err := pgxpool.New(ctx, b.cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		b.pg = pool
	}
	return b.pg, nil
}

func (b *backends) s3Client(ctx context.Context) (*s3.Client, error) {
	if b.s3 == nil {
		var opts []func(*awsconfig.LoadOptions) error
		if b.cfg.S3.Region != "" {
			opts = append(opts, awsconfig.WithRegion(b.cfg.S3.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, err
		}
		b.s3 = s3.NewFromConfig(awsCfg)
	}
	return b.s3, nil
}

func (b *backends) close() {
	if b.redis != nil {
		b.redis.Close()
	}
	if b.pg != nil {
		b.pg.Close()
	}
}
