// Package querycache is an in-process cache for expensive query results:
// bounded LRU storage with priority-aware eviction, per-data-type TTLs
// with adaptive growth, conditional compression, stale-while-revalidate
// and optional snapshot persistence.
package querycache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/analytics"
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/codec"
	"github.com/cyx-darren/go-query-cache/internal/optimizer"
	"github.com/cyx-darren/go-query-cache/internal/persistence"
	"github.com/cyx-darren/go-query-cache/internal/refresh"
	"github.com/cyx-darren/go-query-cache/internal/shared/cachedtime"
	"github.com/cyx-darren/go-query-cache/internal/telemetry"
	"github.com/cyx-darren/go-query-cache/internal/ttl"
)

// optimizeTimeout bounds how long a manual Optimize call waits for the
// worker to accept the pass.
const optimizeTimeout = 5 * time.Second

type QueryCache interface {
	cache.Cacher
	refresh.Refresher
	optimizer.Optimizer
	telemetry.Logger
	io.Closer

	// Optimize triggers one maintenance pass outside the periodic
	// schedule.
	Optimize() error
	// Metrics snapshots the store state and lifetime counters.
	Metrics() Metrics
	// HealthStatus derives the health report from current metrics.
	HealthStatus() Health
}

type Cache struct {
	cache.Cacher
	refresh.Refresher
	optimizer.Optimizer
	telemetry.Logger
	dumper persistence.Dumper

	cfg     *config.Cache
	store   *cache.Cache
	table   *ttl.Table
	tracker analytics.Tracker

	cls  context.CancelFunc
	once sync.Once
}

// New builds and starts the cache. A broken config is the only fatal
// condition; everything after construction degrades instead of failing.
func New(ctx context.Context, cfg *config.Cache, logger *slog.Logger, opts ...Option) (*Cache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", config.ErrInvalidConfig)
	}
	cfg.AdjustConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	ctx, cancel := context.WithCancel(ctx)
	cachedtime.RunIfEnabled(ctx, cfg)

	table := ttl.NewTable(cfg)
	tracker := analytics.New(cfg.Analytics)
	store := cache.New(ctx, cfg, logger, codec.New(cfg.Compression), table, tracker)

	dumper := persistence.New(ctx, cfg.Persistence, store)
	if err := dumper.Load(ctx); err != nil {
		// A broken snapshot costs a cold start, nothing else.
		logger.Warn("snapshot restore failed, starting cold", "err", err)
	}

	refresher := refresh.New(ctx, cfg.Staleness, logger, store, s.fetcher)
	optimize := optimizer.New(ctx, cfg.Optimize, logger, store, tracker, table)
	telemeter := telemetry.New(ctx, cfg, logger, store, refresher, optimize)

	return &Cache{
		Cacher:    store,
		Refresher: refresher,
		Optimizer: optimize,
		Logger:    telemeter,
		dumper:    dumper,
		cfg:       cfg,
		store:     store,
		table:     table,
		tracker:   tracker,
		cls:       cancel,
	}, nil
}

// Optimize runs one maintenance pass now: expired sweep, cold-key
// cleanup and TTL adaptation.
func (c *Cache) Optimize() error {
	return c.ForceCall(optimizeTimeout)
}

// Metrics composes a snapshot from the store counters, the TTL table and
// a near-expiry walk.
func (c *Cache) Metrics() Metrics {
	snap := c.store.Counters()

	var hitRate float64
	if lookups := snap.Hits + snap.Misses; lookups > 0 {
		hitRate = float64(snap.Hits) / float64(lookups)
	}

	ratio := 1.0
	if snap.CompressionRawBytes > 0 {
		ratio = float64(snap.CompressionStoredBytes) / float64(snap.CompressionRawBytes)
	}

	refreshed, refreshFailed, _, _, _ := c.RefreshMetrics()

	return Metrics{
		Entries:    c.store.Len(),
		TotalBytes: c.store.Mem(),

		Hits:    snap.Hits,
		Misses:  snap.Misses,
		HitRate: hitRate,

		Sets:               snap.Sets,
		Evictions:          snap.Evictions,
		EvictedBytes:       snap.EvictedBytes,
		Expirations:        snap.Expirations,
		CapacityRejections: snap.CapacityRejections,

		Refreshes:       refreshed,
		RefreshFailures: refreshFailed,

		EncodeFailures: snap.EncodeFailures,
		DecodeFailures: snap.DecodeFailures,

		CompressionRawBytes:    snap.CompressionRawBytes,
		CompressionStoredBytes: snap.CompressionStoredBytes,
		CompressionRatio:       ratio,

		NearExpiry: c.store.NearExpiryCount(),

		TTLByDataType: c.table.Snapshot(),
	}
}

// HealthStatus derives the health report: utilization above 90% or a hit
// rate under 60% is critical, above 80% or under 80% is a warning.
// Hit-rate thresholds apply only once lookups happened.
func (c *Cache) HealthStatus() Health {
	m := c.Metrics()

	util := float64(m.Entries) / float64(c.cfg.Store.MaxEntries)
	if max := c.cfg.Store.MaxBytes; max > 0 {
		if byteUtil := float64(m.TotalBytes) / float64(max); byteUtil > util {
			util = byteUtil
		}
	}

	status := Healthy
	details := map[string]string{
		"utilization": fmt.Sprintf("%.2f", util),
		"entries":     fmt.Sprintf("%d", m.Entries),
	}

	if util > 0.80 {
		status = Warning
		details["reason"] = "store nearly full"
	}

	if lookups := m.Hits + m.Misses; lookups > 0 {
		details["hit_rate"] = fmt.Sprintf("%.2f", m.HitRate)
		if m.HitRate < 0.80 && status == Healthy {
			status = Warning
			details["reason"] = "hit rate degraded"
		}
		if m.HitRate < 0.60 {
			status = Critical
			details["reason"] = "hit rate critical"
		}
	}
	if util > 0.90 {
		status = Critical
		details["reason"] = "store full"
	}

	return Health{Status: status, Details: details}
}

// Close stops the workers and writes a final snapshot when persistence
// is configured. Idempotent.
func (c *Cache) Close() (err error) {
	c.once.Do(func() {
		// The snapshot must be written before the shared ctx dies.
		err = c.dumper.Close()
		c.cls()
	})
	return err
}
