// Package cachedtime supplies a coarse process-wide "now" for hot paths.
// When enabled, a single updater goroutine refreshes the cached value on
// a short tick; every reader then pays one atomic load instead of a
// time.Now() call. When the updater is not running, calls fall through
// to the real clock.
package cachedtime

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
)

const resolution = 5 * time.Millisecond

var (
	running atomic.Bool
	nowUnix atomic.Int64
)

// RunIfEnabled starts the updater when the store config asks for cached
// time. Repeated calls are no-ops while an updater is alive. The updater
// exits with ctx, after which readers fall back to the real clock.
func RunIfEnabled(ctx context.Context, cfg *config.Cache) {
	if cfg == nil || !cfg.Store.CacheTimeEnabled {
		return
	}
	Run(ctx)
}

// Run starts the updater unconditionally. Safe to call more than once;
// only the first caller spawns the goroutine.
func Run(ctx context.Context) {
	if !running.CompareAndSwap(false, true) {
		return
	}
	nowUnix.Store(time.Now().UnixNano())

	go func() {
		ticker := time.NewTicker(resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				running.Store(false)
				return
			case tt := <-ticker.C:
				nowUnix.Store(tt.UnixNano())
			}
		}
	}()
}

func Now() time.Time {
	if running.Load() {
		return time.Unix(0, nowUnix.Load())
	}
	return time.Now()
}

func UnixNano() int64 {
	if running.Load() {
		return nowUnix.Load()
	}
	return time.Now().UnixNano()
}

func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
