// Package telemetry periodically logs per-interval deltas of the cache
// counters: traffic, eviction pressure, compression savings and the
// background workers' progress.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/optimizer"
	"github.com/cyx-darren/go-query-cache/internal/refresh"
	"github.com/cyx-darren/go-query-cache/internal/shared/bytes"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       *config.Cache
	logger    *slog.Logger
	cache     cache.Cacher
	refresher refresh.Refresher
	optimizer optimizer.Optimizer
	interval  time.Duration
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	cache cache.Cacher,
	refresher refresh.Refresher,
	optimizer optimizer.Optimizer,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	return (&Logs{
		ctx:       ctx,
		cancel:    cancel,
		cfg:       cfg,
		logger:    logger,
		cache:     cache,
		refresher: refresher,
		optimizer: optimizer,
		interval:  cfg.Store.TelemetryLogsInterval,
	}).run()
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) run() *Logs {
	if l.cfg.Store.IsTelemetryLogsEnabled {
		go l.loop()
	}
	return l
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var byteLimit = "INF"
	if l.cfg.Store.MaxBytes > 0 {
		byteLimit = bytes.FmtMem(uint64(l.cfg.Store.MaxBytes))
	}

	s := newSampler(l.cache, l.refresher, l.optimizer)
	prev := s.snapshot()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := s.snapshot()
			d := deltaSnapshot(prev, cur)
			prev = cur

			common := []any{"interval", l.interval.String()}

			lookups := d.hits + d.misses
			var hitRate float64
			if lookups > 0 {
				hitRate = float64(d.hits) / float64(lookups)
			}
			l.logger.Info("traffic",
				append(common,
					"hits", int64(d.hits),
					"misses", int64(d.misses),
					"hit_rate", hitRate,
					"sets", int64(d.sets),
				)...,
			)

			if d.evictions > 0 || d.expirations > 0 || d.capacityRejections > 0 {
				l.logger.Info("eviction",
					append(common,
						"evicted", int64(d.evictions),
						"evicted_bytes", bytes.FmtMem(d.evictedBytes),
						"expired", int64(d.expirations),
						"rejected_writes", int64(d.capacityRejections),
					)...,
				)
			}

			if l.cfg.Compression.Enabled() && d.compressionRaw > 0 {
				l.logger.Info("compression",
					append(common,
						"raw", bytes.FmtMem(d.compressionRaw),
						"stored", bytes.FmtMem(d.compressionStored),
					)...,
				)
			}

			if l.cfg.Staleness.Enabled() {
				l.logger.Info("refresher",
					append(common,
						"refreshed", int64(d.refreshed),
						"failed", int64(d.refreshFailed),
						"scans", int64(d.refreshScans),
						"backlog", l.cache.StaleBacklog(),
					)...,
				)
			}

			if d.optimizerPasses > 0 {
				l.logger.Info("optimizer",
					append(common,
						"passes", int64(d.optimizerPasses),
						"swept_expired", int64(d.sweptExpired),
						"removed_cold", int64(d.removedCold),
						"ttl_adjusted", int64(d.ttlAdjustments),
					)...,
				)
			}

			if d.encodeFailures > 0 || d.decodeFailures > 0 {
				l.logger.Warn("codec_failures",
					append(common,
						"encode", int64(d.encodeFailures),
						"decode", int64(d.decodeFailures),
					)...,
				)
			}

			l.logger.Info("storage",
				append(common,
					"size", bytes.FmtMem(uint64(l.cache.Mem())),
					"entries", l.cache.Len(),
					"entry_limit", l.cfg.Store.MaxEntries,
					"byte_limit", byteLimit,
				)...,
			)
		}
	}
}
