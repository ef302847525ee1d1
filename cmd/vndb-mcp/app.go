package main

import (
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/pario-ai/vndb-mcp/pkg/cache"
	"github.com/pario-ai/vndb-mcp/pkg/clock"
	"github.com/pario-ai/vndb-mcp/pkg/config"
	"github.com/pario-ai/vndb-mcp/pkg/logging"
	"github.com/pario-ai/vndb-mcp/pkg/notes"
	"github.com/pario-ai/vndb-mcp/pkg/query"
	"github.com/pario-ai/vndb-mcp/pkg/ratelimit"
	"github.com/pario-ai/vndb-mcp/pkg/remote"
	"github.com/pario-ai/vndb-mcp/pkg/vndb"
)

// app holds the components shared by every command. Nothing here is global;
// each command builds its own instance.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	cache   *cache.Store[any]
	limiter *ratelimit.Limiter
	client  *vndb.Client
	queries *query.Service
	notes   notes.Store
}

func loadApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return newApp(cfg, logging.New(cfg.Log.Level, cfg.Log.Format, logOut), clock.Real{})
}

func newApp(cfg *config.Config, log *slog.Logger, clk clock.Clock) (*app, error) {
	store, err := notes.Open(cfg.Notes.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, "open notes")
	}

	client := vndb.New(vndb.Config{
		Endpoint:  cfg.VNDB.Endpoint,
		Token:     cfg.VNDB.Token,
		Timeout:   cfg.VNDB.Timeout,
		UserAgent: "vndb-mcp/" + version,
	})
	c := cache.New[any](cfg.Cache.MaxSize, cfg.Cache.TTL, clk)
	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, clk)

	return &app{
		cfg:     cfg,
		log:     log,
		cache:   c,
		limiter: limiter,
		client:  client,
		notes:   store,
		queries: query.New(remote.New(remote.ClientOpener(client)), c, limiter, query.Options{
			Keyer:  cache.Keyer{HashThreshold: cfg.Cache.KeyHashThreshold},
			Logger: log,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.notes.Close()
}
