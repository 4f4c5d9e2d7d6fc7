// Package optimizer runs the periodic maintenance pass: sweep expired
// entries, proactively drop cold keys and grow TTLs of hot data types.
// The consumer always runs so a manual ForceCall works even when the
// periodic interval is switched off.
package optimizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/analytics"
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/ttl"
)

var ErrOptimizerNotResponded = errors.New("optimizer not responded")

// coldBatch bounds how many cold keys one pass may remove, so a pass
// over a neglected store stays short.
const coldBatch = 1024

type Optimizer interface {
	ForceCall(timeout time.Duration) error
	OptimizerMetrics() (passes, swept, cold, adjusted int64)
	Close() error
}

type OptimizeWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.OptimizeCfg
	logger   *slog.Logger
	cache    *cache.Cache
	tracker  analytics.Tracker
	table    *ttl.Table
	counters *optimizerCounters
	invokeCh chan struct{}
}

func New(
	ctx context.Context,
	cfg *config.OptimizeCfg,
	logger *slog.Logger,
	cache *cache.Cache,
	tracker analytics.Tracker,
	table *ttl.Table,
) Optimizer {
	ctx, cancel := context.WithCancel(ctx)
	return (&OptimizeWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		tracker:  tracker,
		table:    table,
		counters: newOptimizerCounters(),
		invokeCh: make(chan struct{}),
	}).run()
}

// ForceCall hands one pass to the consumer, waiting at most timeout for
// it to accept.
func (w *OptimizeWorker) ForceCall(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	select {
	case <-w.ctx.Done():
	case w.invokeCh <- struct{}{}:
	case <-after.C:
		return ErrOptimizerNotResponded
	}
	return nil
}

func (w *OptimizeWorker) OptimizerMetrics() (passes, swept, cold, adjusted int64) {
	return w.counters.snapshot()
}

func (w *OptimizeWorker) Close() error {
	w.cancel()
	return nil
}

func (w *OptimizeWorker) run() *OptimizeWorker {
	if w.cfg.Enabled() {
		w.logger.Info("optimizer is running", "interval", w.cfg.Interval)
	} else {
		w.logger.Info("optimizer is running", "interval", "manual only")
	}

	go func() {
		defer w.logger.Info("optimizer is stopped")
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consumer()
		}()
		if w.cfg.Enabled() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.provider()
			}()
		}
		wg.Wait()
	}()

	return w
}

func (w *OptimizeWorker) provider() {
	tick := time.NewTicker(w.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-tick.C:
			select {
			case <-w.ctx.Done():
				return
			case w.invokeCh <- struct{}{}:
			}
		}
	}
}

func (w *OptimizeWorker) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.invokeCh:
			w.pass()
		}
	}
}

// pass is one maintenance round. Steps are independent; a short store
// makes each of them cheap.
func (w *OptimizeWorker) pass() {
	started := time.Now()

	swept := w.cache.SweepExpired()
	if swept > 0 {
		w.counters.sweptExpired.Add(swept)
	}

	var cold int64
	if keys := w.tracker.ColdKeys(coldBatch); len(keys) > 0 {
		cold = w.cache.DeleteKeys(keys)
		w.counters.removedCold.Add(cold)
	}

	var adjusted int64
	for dataType, observed := range w.tracker.TakeDataTypeWindow() {
		if next, grown := w.table.Adjust(dataType, observed); grown {
			adjusted++
			w.logger.Info("ttl grown for hot data type",
				"data_type", dataType, "observed_access", observed, "ttl", next)
		}
	}
	w.counters.ttlAdjustments.Add(adjusted)
	w.counters.passes.Add(1)

	w.logger.Debug("optimization pass finished",
		"elapsed", time.Since(started), "swept", swept, "cold_removed", cold, "ttl_adjusted", adjusted)
}
