package cache

import "sync/atomic"

type counters struct {
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64

	evictions    atomic.Int64
	evictedBytes atomic.Int64
	expirations  atomic.Int64
	capacityRej  atomic.Int64 // writes dropped because nothing was evictable

	encodeFailures atomic.Int64
	decodeFailures atomic.Int64

	compressionRaw    atomic.Int64 // serialized bytes before compression
	compressionStored atomic.Int64 // bytes actually stored
}

// CountersSnapshot is a consistent-enough read of the lifetime counters:
// each field is an atomic load, the set is taken without a global lock.
type CountersSnapshot struct {
	Hits   int64
	Misses int64
	Sets   int64

	Evictions          int64
	EvictedBytes       int64
	Expirations        int64
	CapacityRejections int64

	EncodeFailures int64
	DecodeFailures int64

	CompressionRawBytes    int64
	CompressionStoredBytes int64
}

func newCounters() *counters {
	return &counters{}
}

func (c *counters) snapshot() CountersSnapshot {
	return CountersSnapshot{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),

		Evictions:          c.evictions.Load(),
		EvictedBytes:       c.evictedBytes.Load(),
		Expirations:        c.expirations.Load(),
		CapacityRejections: c.capacityRej.Load(),

		EncodeFailures: c.encodeFailures.Load(),
		DecodeFailures: c.decodeFailures.Load(),

		CompressionRawBytes:    c.compressionRaw.Load(),
		CompressionStoredBytes: c.compressionStored.Load(),
	}
}
