package telemetry

import (
	"github.com/cyx-darren/go-query-cache/internal/cache"
	"github.com/cyx-darren/go-query-cache/internal/optimizer"
	"github.com/cyx-darren/go-query-cache/internal/refresh"
)

type sampler struct {
	cache     cache.Cacher
	refresher refresh.Refresher
	optimizer optimizer.Optimizer
}

func newSampler(c cache.Cacher, r refresh.Refresher, o optimizer.Optimizer) sampler {
	return sampler{cache: c, refresher: r, optimizer: o}
}

// snapshot holds cumulative counters (monotonic).
type snapshot struct {
	hits   uint64
	misses uint64
	sets   uint64

	evictions          uint64
	evictedBytes       uint64
	expirations        uint64
	capacityRejections uint64

	encodeFailures uint64
	decodeFailures uint64

	compressionRaw    uint64
	compressionStored uint64

	refreshed     uint64
	refreshFailed uint64
	refreshScans  uint64

	optimizerPasses uint64
	sweptExpired    uint64
	removedCold     uint64
	ttlAdjustments  uint64
}

func (s sampler) snapshot() snapshot {
	c := s.cache.Counters()
	refreshed, failed, scans, _, _ := s.refresher.RefreshMetrics()
	passes, swept, cold, adjusted := s.optimizer.OptimizerMetrics()

	return snapshot{
		hits:   uint64(max(c.Hits, 0)),
		misses: uint64(max(c.Misses, 0)),
		sets:   uint64(max(c.Sets, 0)),

		evictions:          uint64(max(c.Evictions, 0)),
		evictedBytes:       uint64(max(c.EvictedBytes, 0)),
		expirations:        uint64(max(c.Expirations, 0)),
		capacityRejections: uint64(max(c.CapacityRejections, 0)),

		encodeFailures: uint64(max(c.EncodeFailures, 0)),
		decodeFailures: uint64(max(c.DecodeFailures, 0)),

		compressionRaw:    uint64(max(c.CompressionRawBytes, 0)),
		compressionStored: uint64(max(c.CompressionStoredBytes, 0)),

		refreshed:     uint64(max(refreshed, 0)),
		refreshFailed: uint64(max(failed, 0)),
		refreshScans:  uint64(max(scans, 0)),

		optimizerPasses: uint64(max(passes, 0)),
		sweptExpired:    uint64(max(swept, 0)),
		removedCold:     uint64(max(cold, 0)),
		ttlAdjustments:  uint64(max(adjusted, 0)),
	}
}

// deltaSnapshot converts cumulative snapshots to per-interval deltas.
// If counters reset (cur < prev), it treats cur as the delta.
func deltaSnapshot(prev, cur snapshot) snapshot {
	return snapshot{
		hits:   delta(prev.hits, cur.hits),
		misses: delta(prev.misses, cur.misses),
		sets:   delta(prev.sets, cur.sets),

		evictions:          delta(prev.evictions, cur.evictions),
		evictedBytes:       delta(prev.evictedBytes, cur.evictedBytes),
		expirations:        delta(prev.expirations, cur.expirations),
		capacityRejections: delta(prev.capacityRejections, cur.capacityRejections),

		encodeFailures: delta(prev.encodeFailures, cur.encodeFailures),
		decodeFailures: delta(prev.decodeFailures, cur.decodeFailures),

		compressionRaw:    delta(prev.compressionRaw, cur.compressionRaw),
		compressionStored: delta(prev.compressionStored, cur.compressionStored),

		refreshed:     delta(prev.refreshed, cur.refreshed),
		refreshFailed: delta(prev.refreshFailed, cur.refreshFailed),
		refreshScans:  delta(prev.refreshScans, cur.refreshScans),

		optimizerPasses: delta(prev.optimizerPasses, cur.optimizerPasses),
		sweptExpired:    delta(prev.sweptExpired, cur.sweptExpired),
		removedCold:     delta(prev.removedCold, cur.removedCold),
		ttlAdjustments:  delta(prev.ttlAdjustments, cur.ttlAdjustments),
	}
}

func delta(prev, cur uint64) uint64 {
	if cur >= prev {
		return cur - prev
	}
	return cur
}
