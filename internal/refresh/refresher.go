// Package refresh runs the stale-while-revalidate workers: a provider
// drains the stale queues at a bounded rate and a pool of consumers
// re-fetches values through the injected fetcher. A failed refresh keeps
// the stale value in place; it stays servable until its grace window
// closes.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/cache/db/model"
	"github.com/cyx-darren/go-query-cache/internal/shared/rate"
	pub "github.com/cyx-darren/go-query-cache/model"
)

// ErrRefreshFailed wraps a fetcher error so refresh failures are
// distinguishable in logs from encode failures.
var ErrRefreshFailed = errors.New("background refresh failed")

type Refresher interface {
	RefreshMetrics() (refreshed, failed, scans, hits, misses int64)
	Close() error
}

type RefreshWorker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.StalenessCfg
	cache    *cache.Cache
	fetch    pub.Fetcher
	logger   *slog.Logger
	jitter   *rate.Jitter
	counters *refreshCounters
	invokeCh chan *model.Entry
}

// New starts the refresh workers. Without a staleness section or a
// fetcher there is nothing to revalidate with, so a no-op is returned
// and stale entries simply age out.
func New(
	ctx context.Context,
	cfg *config.StalenessCfg,
	logger *slog.Logger,
	cache *cache.Cache,
	fetch pub.Fetcher,
) Refresher {
	if !cfg.Enabled() || fetch == nil {
		return &NoOpRefresher{}
	}

	ctx, cancel := context.WithCancel(ctx)

	return (&RefreshWorker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		cache:    cache,
		fetch:    fetch,
		logger:   logger,
		jitter:   rate.NewJitter(ctx, cfg.RefreshRate),
		counters: newRefreshCounters(),
		invokeCh: make(chan *model.Entry, cfg.RefreshRate),
	}).run()
}

func (w *RefreshWorker) RefreshMetrics() (refreshed, failed, scans, hits, misses int64) {
	return w.counters.snapshot()
}

func (w *RefreshWorker) Close() error {
	w.cancel()
	return nil
}

func (w *RefreshWorker) run() *RefreshWorker {
	w.logger.Info("refresher is running", "rate", w.cfg.RefreshRate, "grace", w.cfg.GracePeriod)

	go func() {
		defer w.logger.Info("refresher is stopped")
		var wg sync.WaitGroup
		for i := 0; i <= runtime.GOMAXPROCS(0); i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.consumer()
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.provider()
		}()
		wg.Wait()
	}()

	return w
}

func (w *RefreshWorker) provider() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.jitter.Chan():
			if w.cache.Len() == 0 {
				continue
			}
			w.counters.scans.Add(1)
			entry, ok := w.cache.NextStale()
			if !ok {
				w.counters.scanMisses.Add(1)
				continue
			}
			w.counters.scanHits.Add(1)

			select {
			case <-w.ctx.Done():
				entry.UnmarkRefreshing()
				return
			case w.invokeCh <- entry:
			}
		}
	}
}

func (w *RefreshWorker) consumer() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case entry := <-w.invokeCh:
			w.refresh(entry)
		}
	}
}

func (w *RefreshWorker) refresh(entry *model.Entry) {
	value, err := w.fetch(w.ctx, entry.Name(), entry.DataType())
	if err != nil {
		w.counters.failed.Add(1)
		w.cache.FailRefresh(entry, fmt.Errorf("%w: %v", ErrRefreshFailed, err))
		return
	}
	if err = w.cache.RefreshValue(entry, value); err != nil {
		w.counters.failed.Add(1)
		return
	}
	w.counters.refreshed.Add(1)
}
