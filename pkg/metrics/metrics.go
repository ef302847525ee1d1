// Package metrics registers the Prometheus metrics exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pario-ai/vndb-mcp/pkg/models"
	"github.com/pario-ai/vndb-mcp/pkg/ratelimit"
)

var (
	// ToolCalls counts tool invocations by tool name and status
	// ("ok", "error", "rejected").
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vndb_mcp_tool_calls_total",
			Help: "Total number of tool calls handled.",
		},
		[]string{"tool", "status"},
	)

	// QueryResults counts query service outcomes by operation and result
	// ("hit", "fetched", or an error kind).
	QueryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vndb_mcp_query_results_total",
			Help: "Query service outcomes by operation.",
		},
		[]string{"op", "result"},
	)

	// RemoteDuration observes VNDB call latency in seconds.
	RemoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vndb_mcp_remote_duration_seconds",
			Help:    "VNDB request duration in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op"},
	)
)

// CacheStatter provides cache statistics.
type CacheStatter interface {
	Stats() models.CacheStats
}

// LimiterStatter provides rate limiter statistics.
type LimiterStatter interface {
	Stats() ratelimit.Stats
	InWindow() int
}

// RegisterComponents exports cache and limiter counters that the components
// keep themselves.
func RegisterComponents(reg prometheus.Registerer, cache CacheStatter, limiter LimiterStatter) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vndb_mcp_cache_entries",
			Help: "Entries currently held in the response cache.",
		}, func() float64 { return float64(cache.Stats().Entries) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_cache_hits_total",
			Help: "Response cache hits.",
		}, func() float64 { return float64(cache.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_cache_misses_total",
			Help: "Response cache misses.",
		}, func() float64 { return float64(cache.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_cache_evictions_total",
			Help: "Entries evicted because the cache was full.",
		}, func() float64 { return float64(cache.Stats().Evictions) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_cache_expired_total",
			Help: "Entries removed after their TTL.",
		}, func() float64 { return float64(cache.Stats().Expired) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vndb_mcp_rate_limit_window_calls",
			Help: "Outbound calls recorded in the current 60s window.",
		}, func() float64 { return float64(limiter.InWindow()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_rate_limit_waits_total",
			Help: "Outbound calls that had to wait for the rate limiter.",
		}, func() float64 { return float64(limiter.Stats().Waits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "vndb_mcp_rate_limit_wait_seconds_total",
			Help: "Total time spent waiting for the rate limiter.",
		}, func() float64 { return limiter.Stats().WaitTotal.Seconds() }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
