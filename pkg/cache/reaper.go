package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pario-ai/vndb-mcp/pkg/clock"
)

// DefaultReapInterval is how often the reaper sweeps when none is configured.
const DefaultReapInterval = 5 * time.Minute

// Sweeper removes expired entries and reports how many it removed.
type Sweeper interface {
	ClearExpired() int
}

// Reaper periodically sweeps expired cache entries.
type Reaper struct {
	store    Sweeper
	interval time.Duration
	clock    clock.Clock
	log      *slog.Logger
}

// NewReaper creates a Reaper. A zero interval uses DefaultReapInterval.
func NewReaper(store Sweeper, interval time.Duration, clk clock.Clock, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{store: store, interval: interval, clock: clk, log: log}
}

// Run sweeps every interval until ctx is cancelled. Cancellation interrupts
// the sleep immediately; a sweep already running completes first.
func (r *Reaper) Run(ctx context.Context) error {
	for {
		if err := r.clock.Sleep(ctx, r.interval); err != nil {
			r.log.Debug("cache reaper stopped")
			return nil
		}
		removed := r.store.ClearExpired()
		r.log.Info("cache sweep", "expired", removed)
	}
}
