// Package db implements the bounded sharded entry store. Hot paths
// (Get/Set/Touch) keep critical sections short and avoid allocations;
// global counters are atomics so they can be read without locks.
package db

import (
	"context"
	"sync/atomic"

	"github.com/cyx-darren/go-query-cache/internal/cache/db/model"
)

// Tunables.
const (
	NumOfShards = 256
	shardMask   = NumOfShards - 1 // faster than division
)

// Map is a sharded concurrent map with precise global counters and a
// store-wide recency ordinal used for exact cross-shard LRU ordering:
// timestamps alone cannot order two touches inside one clock tick.
type Map struct {
	len  int64  // aggregated number of items (atomic)
	mem  int64  // aggregated payload size in bytes (atomic)
	seq  uint64 // recency ordinal, bumped on every insert/touch (atomic)
	iter uint64 // round-robin cursor for stale-queue draining (atomic)

	shards [NumOfShards]*Shard
}

func NewMap() *Map {
	m := &Map{}
	for id := uint64(0); id < NumOfShards; id++ {
		m.shards[id] = NewShard(id)
	}
	return m
}

// Set inserts/replaces a value, stamps its recency ordinal and adjusts
// global counters via per-shard deltas.
func (m *Map) Set(key uint64, entry *model.Entry) {
	entry.SetSeq(m.nextSeq())
	bytesDelta, lenDelta := m.Shard(key).Set(key, entry)
	if bytesDelta != 0 {
		atomic.AddInt64(&m.mem, bytesDelta)
	}
	if lenDelta != 0 {
		atomic.AddInt64(&m.len, lenDelta)
	}
}

// ReserveSlot atomically claims one entry slot while the count is below
// limit. The claim is part of the global counter itself, so concurrent
// inserts cannot pass the entry bound together. The caller must follow
// up with SetReserved, or ReleaseSlot when the insert is abandoned.
func (m *Map) ReserveSlot(limit int64) bool {
	for {
		n := atomic.LoadInt64(&m.len)
		if n >= limit {
			return false
		}
		if atomic.CompareAndSwapInt64(&m.len, n, n+1) {
			return true
		}
	}
}

// ReleaseSlot returns a slot claimed by ReserveSlot.
func (m *Map) ReleaseSlot() { atomic.AddInt64(&m.len, -1) }

// SetReserved inserts under a slot claimed by ReserveSlot. When the key
// turned out to exist already (a concurrent writer won the insert) the
// write degrades to an overwrite and the claimed slot is released.
func (m *Map) SetReserved(key uint64, entry *model.Entry) {
	entry.SetSeq(m.nextSeq())
	bytesDelta, lenDelta := m.Shard(key).Set(key, entry)
	if bytesDelta != 0 {
		atomic.AddInt64(&m.mem, bytesDelta)
	}
	if lenDelta == 0 {
		m.ReleaseSlot()
	}
}

// Get reads a value. No freshness side effects: expiry decisions belong
// to the caller so stale-while-revalidate can intervene first.
func (m *Map) Get(key uint64) (*model.Entry, bool) {
	return m.Shard(key).Get(key)
}

// Touch records a read on an existing entry: access stats on the entry,
// MRU position in its shard.
func (m *Map) Touch(key uint64, entry *model.Entry) {
	entry.Touch(m.nextSeq())
	m.Shard(key).touchLRU(key)
}

// Remove deletes a key and adjusts global counters.
func (m *Map) Remove(key uint64) (freedBytes int64, hit bool) {
	freedBytes, hit = m.Shard(key).Remove(key)
	if hit {
		atomic.AddInt64(&m.len, -1)
		atomic.AddInt64(&m.mem, -freedBytes)
	}
	return
}

// AddMem adjusts byte counters after an in-place payload swap.
func (m *Map) AddMem(key uint64, delta int64) {
	atomic.AddInt64(&m.mem, delta)
	m.Shard(key).AddMem(delta)
}

// DeleteWhere removes every entry matching the predicate, one shard at a
// time so no two shard locks are ever held together.
func (m *Map) DeleteWhere(ctx context.Context, pred func(*model.Entry) bool) (removed, freedBytes int64) {
	for _, sh := range m.shards {
		if ctx.Err() != nil {
			return
		}
		r, b := sh.DeleteWhere(ctx, pred)
		if r != 0 {
			atomic.AddInt64(&m.len, -r)
			atomic.AddInt64(&m.mem, -b)
			removed += r
			freedBytes += b
		}
	}
	return
}

// WalkEntries iterates all entries shard by shard under shared locks.
// For maintenance and snapshots; avoid on hot paths.
func (m *Map) WalkEntries(ctx context.Context, fn func(*model.Entry) bool) {
	for _, sh := range m.shards {
		if ctx.Err() != nil {
			return
		}
		stop := false
		sh.WalkR(ctx, func(_ uint64, e *model.Entry) bool {
			if !fn(e) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// Clear wipes all shards and fixes global counters.
func (m *Map) Clear() (removed int64) {
	for _, sh := range m.shards {
		freedBytes, items := sh.Clear()
		if items != 0 {
			atomic.AddInt64(&m.len, -items)
			atomic.AddInt64(&m.mem, -freedBytes)
			removed += items
		}
	}
	return
}

// EnqueueStale queues a key hash for background revalidation.
func (m *Map) EnqueueStale(key uint64) bool { return m.Shard(key).EnqueueStale(key) }

// NextStale pops the next queued key that still resolves to a live entry
// holding the in-flight refresh marker. Starts from a round-robin cursor
// so no shard's queue starves.
func (m *Map) NextStale() (*model.Entry, bool) {
	start := int(atomic.AddUint64(&m.iter, 1) - 1)
	for i := 0; i < NumOfShards; i++ {
		sh := m.shards[(start+i)&shardMask]
		if k, ok := sh.PopStale(); ok {
			if e, hit := sh.Get(k); hit && e.IsRefreshing() {
				return e, true
			}
		}
	}
	return nil, false
}

// StaleBacklog counts keys queued for revalidation across all shards.
func (m *Map) StaleBacklog() (n int64) {
	for _, sh := range m.shards {
		n += int64(sh.StaleLen())
	}
	return
}

func (m *Map) Shard(key uint64) *Shard { return m.shards[key&shardMask] }
func (m *Map) Len() int64              { return atomic.LoadInt64(&m.len) }
func (m *Map) Mem() int64              { return atomic.LoadInt64(&m.mem) }

func (m *Map) nextSeq() uint64 { return atomic.AddUint64(&m.seq, 1) }
