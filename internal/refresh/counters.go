package refresh

import "sync/atomic"

type refreshCounters struct {
	refreshed  atomic.Int64 // successful background refreshes
	failed     atomic.Int64 // refreshes where the fetcher or encode failed
	scans      atomic.Int64 // stale-queue polls
	scanHits   atomic.Int64 // polls that yielded an entry
	scanMisses atomic.Int64 // polls that found the queues empty
}

func newRefreshCounters() *refreshCounters {
	return &refreshCounters{}
}

func (c *refreshCounters) snapshot() (refreshed, failed, scans, hits, misses int64) {
	refreshed = c.refreshed.Load()
	failed = c.failed.Load()
	scans = c.scans.Load()
	hits = c.scanHits.Load()
	misses = c.scanMisses.Load()
	return
}
