package db

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/cyx-darren/go-query-cache/internal/cache/db/model"
	"github.com/cyx-darren/go-query-cache/internal/shared/queue"
)

const staleQueueCap = 1024

// Shard is an independent segment of the sharded map. Every entry in the
// items map is on the shard's LRU list exactly once; removal from one
// always removes from the other. Per-shard counters are read with
// atomics so global aggregation avoids locks.
type Shard struct {
	sync.RWMutex
	items map[uint64]*model.Entry

	id  uint64
	mem int64 // total payload weight in bytes (atomic)
	len int64 // number of items (atomic)

	lru  *list.List
	lidx map[uint64]*list.Element

	staleq queue.Queue
}

func NewShard(id uint64) *Shard {
	sh := &Shard{
		id:    id,
		items: make(map[uint64]*model.Entry),
		lru:   list.New(),
		lidx:  make(map[uint64]*list.Element),
	}
	sh.staleq.Init(staleQueueCap)
	return sh
}

func (sh *Shard) ID() uint64    { return sh.id }
func (sh *Shard) Weight() int64 { return atomic.LoadInt64(&sh.mem) }
func (sh *Shard) Len() int64    { return atomic.LoadInt64(&sh.len) }

// Set inserts or replaces a key and moves it to the MRU end.
// Returns deltas for global aggregation.
func (sh *Shard) Set(key uint64, entry *model.Entry) (bytesDelta, lenDelta int64) {
	sh.Lock()
	if old, hit := sh.items[key]; hit {
		sh.items[key] = entry
		sh.lruMoveFrontUnlocked(key)

		bytesDelta = entry.Weight() - old.Weight()
		atomic.AddInt64(&sh.mem, bytesDelta)
	} else {
		sh.items[key] = entry
		sh.lidx[key] = sh.lru.PushFront(key)

		lenDelta = 1
		bytesDelta = entry.Weight()
		atomic.AddInt64(&sh.len, 1)
		atomic.AddInt64(&sh.mem, bytesDelta)
	}
	sh.Unlock()
	return
}

// Get reads a value under the shared lock.
func (sh *Shard) Get(key uint64) (entry *model.Entry, hit bool) {
	sh.RLock()
	entry, hit = sh.items[key]
	sh.RUnlock()
	return
}

// Remove deletes a key under the write lock.
func (sh *Shard) Remove(key uint64) (freedBytes int64, hit bool) {
	sh.Lock()
	freedBytes, hit = sh.removeUnlocked(key)
	sh.Unlock()
	return
}

func (sh *Shard) removeUnlocked(key uint64) (freedBytes int64, hit bool) {
	var old *model.Entry
	if old, hit = sh.items[key]; hit {
		delete(sh.items, key)
		if el := sh.lidx[key]; el != nil {
			sh.lru.Remove(el)
			delete(sh.lidx, key)
		}

		freedBytes = old.Weight()
		atomic.AddInt64(&sh.mem, -freedBytes)
		atomic.AddInt64(&sh.len, -1)
	}
	return
}

// AddMem adjusts the shard byte counter after an in-place payload swap.
func (sh *Shard) AddMem(delta int64) { atomic.AddInt64(&sh.mem, delta) }

// Clear removes all entries and returns (freedBytes, itemsRemoved).
func (sh *Shard) Clear() (freedBytes, items int64) {
	sh.Lock()
	items = atomic.LoadInt64(&sh.len)
	freedBytes = atomic.LoadInt64(&sh.mem)

	sh.items = make(map[uint64]*model.Entry)
	sh.lru.Init()
	clear(sh.lidx)

	atomic.StoreInt64(&sh.len, 0)
	atomic.StoreInt64(&sh.mem, 0)
	sh.Unlock()
	return
}

// DeleteWhere removes every entry matching the predicate, keeping map
// and LRU list consistent. Runs under the write lock; the predicate must
// be lightweight.
func (sh *Shard) DeleteWhere(ctx context.Context, pred func(*model.Entry) bool) (removed, freedBytes int64) {
	sh.Lock()
	defer sh.Unlock()
	for k, e := range sh.items {
		if ctx.Err() != nil {
			return
		}
		if pred(e) {
			freed, _ := sh.removeUnlocked(k)
			freedBytes += freed
			removed++
		}
	}
	return
}

// WalkR iterates entries under the shared lock. The callback must be
// lightweight and must not call back into the shard.
func (sh *Shard) WalkR(ctx context.Context, fn func(uint64, *model.Entry) bool) {
	sh.RLock()
	defer sh.RUnlock()
	for k, v := range sh.items {
		select {
		case <-ctx.Done():
			return
		default:
			if !fn(k, v) {
				return
			}
		}
	}
}

func (sh *Shard) lruMoveFrontUnlocked(key uint64) {
	if el := sh.lidx[key]; el != nil {
		sh.lru.MoveToFront(el)
	}
}

// touchLRU moves a key to the MRU end, best-effort: under read pressure
// the position update may be skipped, LRU order stays approximate for
// that access only.
func (sh *Shard) touchLRU(key uint64) {
	if sh.TryLock() {
		sh.lruMoveFrontUnlocked(key)
		sh.Unlock()
	}
}

// peekVictim returns the least-recently-used entry not protected by the
// given cutoff. protectAfter == 0 disables protection; otherwise entries
// touched at or after the cutoff are skipped.
func (sh *Shard) peekVictim(protectAfter int64) (victim *model.Entry, ok bool) {
	sh.RLock()
	defer sh.RUnlock()
	for el := sh.lru.Back(); el != nil; el = el.Prev() {
		key := el.Value.(uint64)
		e, hit := sh.items[key]
		if !hit {
			continue
		}
		if protectAfter > 0 && e.TouchedAt() >= protectAfter {
			continue
		}
		return e, true
	}
	return nil, false
}

// EnqueueStale queues a key hash for background revalidation. A full
// queue drops the push; the key is retried on a later stale read.
func (sh *Shard) EnqueueStale(key uint64) bool { return sh.staleq.TryPush(key) }

// PopStale dequeues one key hash queued for revalidation.
func (sh *Shard) PopStale() (uint64, bool) { return sh.staleq.TryPop() }

// StaleLen reports the shard's revalidation backlog.
func (sh *Shard) StaleLen() int { return sh.staleq.Len() }
