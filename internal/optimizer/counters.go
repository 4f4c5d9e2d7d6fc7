package optimizer

import "sync/atomic"

type optimizerCounters struct {
	passes         atomic.Int64 // completed optimization passes
	sweptExpired   atomic.Int64 // entries removed because they were past TTL+grace
	removedCold    atomic.Int64 // entries removed by cold-key cleanup
	ttlAdjustments atomic.Int64 // data types whose TTL grew
}

func newOptimizerCounters() *optimizerCounters {
	return &optimizerCounters{}
}

func (c *optimizerCounters) snapshot() (passes, swept, cold, adjusted int64) {
	return c.passes.Load(), c.sweptExpired.Load(), c.removedCold.Load(), c.ttlAdjustments.Load()
}
