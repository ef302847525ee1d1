package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pario-ai/vndb-mcp/pkg/cache"
	"github.com/pario-ai/vndb-mcp/pkg/clock"
	"github.com/pario-ai/vndb-mcp/pkg/mcp"
	"github.com/pario-ai/vndb-mcp/pkg/metrics"
	"github.com/pario-ai/vndb-mcp/pkg/telemetry"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(*configPath, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdown, err := telemetry.Setup(ctx, telemetry.Config{
				ServiceName: mcp.ServerName,
				Version:     version,
				Exporter:    a.cfg.Tracing.Exporter,
				SampleRatio: a.cfg.Tracing.SampleRatio,
			})
			if err != nil {
				return errors.Wrap(err, "init tracing")
			}
			defer func() { _ = shutdown(context.Background()) }()

			return serve(ctx, a, os.Stdin, os.Stdout)
		},
	}
}

// serve runs the MCP loop, the cache reaper and the optional metrics
// endpoint until the input closes or ctx is cancelled.
func serve(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := mcp.New(mcp.NewDispatcher(a.queries, a.notes, a.log), a.notes, version, a.log)
	reaper := cache.NewReaper(a.cache, a.cfg.Cache.ReapInterval, clock.Real{}, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		err := srv.Run(gctx, in, out)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return reaper.Run(gctx)
	})
	if a.cfg.Metrics.Listen != "" {
		if err := metrics.RegisterComponents(prometheus.DefaultRegisterer, a.cache, a.limiter); err != nil {
			return errors.Wrap(err, "register metrics")
		}
		g.Go(func() error {
			return metrics.Serve(gctx, a.cfg.Metrics.Listen, prometheus.DefaultGatherer, a.log)
		})
	}

	a.log.Info("vndb-mcp serving on stdio",
		"version", version,
		"cache_max_size", a.cfg.Cache.MaxSize,
		"cache_ttl", a.cfg.Cache.TTL,
		"requests_per_minute", a.cfg.RateLimit.RequestsPerMinute,
	)
	err := g.Wait()
	a.log.Info("vndb-mcp stopped")
	return err
}
