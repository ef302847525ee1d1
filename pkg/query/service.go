// Package query runs the two idempotent VNDB operations behind a cache and a
// rate limiter.
package query

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pario-ai/vndb-mcp/pkg/cache"
	"github.com/pario-ai/vndb-mcp/pkg/logging"
	"github.com/pario-ai/vndb-mcp/pkg/metrics"
	"github.com/pario-ai/vndb-mcp/pkg/models"
	"github.com/pario-ai/vndb-mcp/pkg/normalize"
	"github.com/pario-ai/vndb-mcp/pkg/remote"
)

// Operation tags used as cache key prefixes and metric labels.
const (
	OpSearch = "search"
	OpDetail = "vn"
)

// Remote performs the uncached VNDB queries.
type Remote interface {
	Search(ctx context.Context, query string, limit int) ([]models.VnSummary, error)
	Detail(ctx context.Context, id string) (*models.VnDetail, error)
}

// Cache holds successful payloads.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Limiter throttles outbound calls.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Result is either a payload or a classified error.
type Result struct {
	Payload any
	Err     *models.QueryError
}

// Ok wraps a successful payload.
func Ok(payload any) Result { return Result{Payload: payload} }

// Fail wraps a query error.
func Fail(err *models.QueryError) Result { return Result{Err: err} }

// OK reports whether the result carries a payload.
func (r Result) OK() bool { return r.Err == nil }

// Envelope returns the value rendered to the caller: the payload on success,
// the {error, details} envelope otherwise.
func (r Result) Envelope() any {
	if r.Err != nil {
		return r.Err.Envelope()
	}
	return r.Payload
}

// Options configures a Service.
type Options struct {
	Keyer  cache.Keyer
	Logger *slog.Logger
	Tracer trace.Tracer
}

// Service composes normalization, caching, rate limiting and the remote
// facade.
type Service struct {
	remote  Remote
	cache   Cache
	limiter Limiter
	keys    cache.Keyer
	log     *slog.Logger
	tracer  trace.Tracer
}

// New creates a Service.
func New(r Remote, c Cache, l Limiter, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("github.com/pario-ai/vndb-mcp/pkg/query")
	}
	if opts.Keyer.HashThreshold <= 0 {
		opts.Keyer.HashThreshold = cache.DefaultHashThreshold
	}
	return &Service{
		remote:  r,
		cache:   c,
		limiter: l,
		keys:    opts.Keyer,
		log:     opts.Logger,
		tracer:  opts.Tracer,
	}
}

// Search returns {results, count} for a search-vn argument bag.
func (s *Service) Search(ctx context.Context, args map[string]any) Result {
	in, err := normalize.Search(args)
	if err != nil {
		return s.rejected(OpSearch, err)
	}
	key := s.keys.Key(OpSearch, in.Query, strconv.Itoa(in.Limit))
	return s.fetch(ctx, OpSearch, key, func(ctx context.Context) (any, error) {
		results, err := s.remote.Search(ctx, in.Query, in.Limit)
		if err != nil {
			return nil, err
		}
		return models.SearchResult{Results: results, Count: len(results)}, nil
	})
}

// GetDetails returns the VnDetail for a get-vn-details argument bag.
func (s *Service) GetDetails(ctx context.Context, args map[string]any) Result {
	in, err := normalize.DetailID(args)
	if err != nil {
		return s.rejected(OpDetail, err)
	}
	key := s.keys.Key(OpDetail, in.ID)
	return s.fetch(ctx, OpDetail, key, func(ctx context.Context) (any, error) {
		return s.remote.Detail(ctx, in.ID)
	})
}

func (s *Service) rejected(op string, err error) Result {
	qe := remote.Classify(err)
	metrics.QueryResults.WithLabelValues(op, string(qe.Kind)).Inc()
	return Fail(qe)
}

func (s *Service) fetch(ctx context.Context, op, key string, call func(context.Context) (any, error)) Result {
	ctx, span := s.tracer.Start(ctx, "query."+op, trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()
	log := logging.FromContext(ctx, s.log)

	if v, ok := s.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.QueryResults.WithLabelValues(op, "hit").Inc()
		log.Debug("cache hit", "key", key)
		return Ok(v)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if err := s.limiter.Acquire(ctx); err != nil {
		return s.failed(span, log, op, limiterError(err))
	}

	start := time.Now()
	v, err := call(ctx)
	metrics.RemoteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return s.failed(span, log, op, remote.Classify(err))
	}

	s.cache.Set(key, v)
	metrics.QueryResults.WithLabelValues(op, "fetched").Inc()
	log.Debug("fetched from vndb", "key", key, "duration", time.Since(start))
	return Ok(v)
}

func (s *Service) failed(span trace.Span, log *slog.Logger, op string, qe *models.QueryError) Result {
	span.RecordError(qe)
	span.SetStatus(codes.Error, qe.Message)
	span.SetAttributes(attribute.String("error.kind", string(qe.Kind)))
	metrics.QueryResults.WithLabelValues(op, string(qe.Kind)).Inc()
	if qe.Kind.Transient() {
		log.Warn("vndb query failed", "op", op, "kind", qe.Kind, "error", qe.Message, "details", qe.Details)
	} else {
		log.Info("vndb query failed", "op", op, "kind", qe.Kind, "error", qe.Message, "details", qe.Details)
	}
	return Fail(qe)
}

// limiterError classifies a context error returned while waiting for a
// rate-limit slot.
func limiterError(err error) *models.QueryError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.QueryError{
			Kind:    models.KindTimeout,
			Message: "timed out waiting for the VNDB rate limit",
			Details: err.Error(),
		}
	}
	return &models.QueryError{
		Kind:    models.KindUnexpected,
		Message: "request cancelled while waiting for the VNDB rate limit",
		Details: err.Error(),
	}
}
