package model

import (
	"sync/atomic"
	"time"

	"github.com/cyx-darren/go-query-cache/internal/codec"
	"github.com/cyx-darren/go-query-cache/internal/shared/cachedtime"
)

// Entry is one stored item. Timestamps, TTL and the payload pointer are
// atomics so readers on other shards' hot paths never take the entry
// apart mid-write; key, name, data type and tags are immutable after
// construction.
type Entry struct {
	key      *Key
	name     string // the caller's key string; kept for pattern clears, listings and snapshots
	dataType string
	tags     []string

	payload atomic.Pointer[codec.Payload]

	createdAt   int64  // atomic: unix nano of the last successful write/refresh
	touchedAt   int64  // atomic: unix nano of the last successful read
	seq         uint64 // atomic: store-wide recency ordinal for LRU victim choice
	ttl         int64  // atomic: nanos; 0 means the entry never expires
	accessCount int64  // atomic: monotone, never reset while the entry lives

	inflightRefresh int64 // atomic: at most one background refresh per stale window
}

// NewEntry builds a freshly written entry. createdAt == touchedAt.
func NewEntry(key *Key, name string, p codec.Payload, ttl time.Duration, dataType string, tags []string) *Entry {
	now := cachedtime.UnixNano()
	e := &Entry{
		key:       key,
		name:      name,
		dataType:  dataType,
		tags:      tags,
		createdAt: now,
		touchedAt: now,
		ttl:       ttl.Nanoseconds(),
	}
	e.payload.Store(&p)
	return e
}

// NewRestoredEntry rebuilds an entry from a snapshot record, preserving
// its original createdAt so remaining lifetime survives a restart.
func NewRestoredEntry(key *Key, name string, p codec.Payload, createdAt, ttl int64, dataType string, tags []string) *Entry {
	e := &Entry{
		key:       key,
		name:      name,
		dataType:  dataType,
		tags:      tags,
		createdAt: createdAt,
		touchedAt: createdAt,
		ttl:       ttl,
	}
	e.payload.Store(&p)
	return e
}

func (e *Entry) Key() *Key       { return e.key }
func (e *Entry) Name() string    { return e.name }
func (e *Entry) DataType() string { return e.dataType }
func (e *Entry) Tags() []string  { return e.tags }

func (e *Entry) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range e.tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

func (e *Entry) Payload() codec.Payload {
	if p := e.payload.Load(); p != nil {
		return *p
	}
	return codec.Payload{}
}

// SwapPayload replaces the stored bytes and returns the weight delta for
// aggregate size bookkeeping.
func (e *Entry) SwapPayload(p codec.Payload) (delta int64) {
	old := e.payload.Swap(&p)
	if old != nil {
		return p.Len() - old.Len()
	}
	return p.Len()
}

// Weight is the stored payload length in bytes: the exact number used by
// the aggregate total-size counters.
func (e *Entry) Weight() int64 { return e.Payload().Len() }

func (e *Entry) CreatedAt() int64   { return atomic.LoadInt64(&e.createdAt) }
func (e *Entry) TouchedAt() int64   { return atomic.LoadInt64(&e.touchedAt) }
func (e *Entry) Seq() uint64        { return atomic.LoadUint64(&e.seq) }
func (e *Entry) AccessCount() int64 { return atomic.LoadInt64(&e.accessCount) }

func (e *Entry) TTL() time.Duration {
	return time.Duration(atomic.LoadInt64(&e.ttl))
}

func (e *Entry) SetTTL(ttl time.Duration) {
	atomic.StoreInt64(&e.ttl, ttl.Nanoseconds())
}

// Touch records a successful read: recency for LRU, access count for
// analytics. seq comes from the store-wide ordinal counter.
func (e *Entry) Touch(seq uint64) {
	atomic.StoreInt64(&e.touchedAt, cachedtime.UnixNano())
	atomic.StoreUint64(&e.seq, seq)
	atomic.AddInt64(&e.accessCount, 1)
}

// SetSeq stamps the recency ordinal without counting an access; used on
// insert and overwrite.
func (e *Entry) SetSeq(seq uint64) {
	atomic.StoreUint64(&e.seq, seq)
}

// RenewCreatedAt restarts the entry's lifetime after a successful
// background refresh.
func (e *Entry) RenewCreatedAt() {
	now := cachedtime.UnixNano()
	atomic.StoreInt64(&e.createdAt, now)
	atomic.StoreInt64(&e.touchedAt, now)
}

// MarkRefreshing claims the per-stale-window refresh slot. Only the
// caller that wins the CAS may enqueue the key for revalidation.
func (e *Entry) MarkRefreshing() bool {
	return atomic.CompareAndSwapInt64(&e.inflightRefresh, 0, 1)
}

func (e *Entry) UnmarkRefreshing() {
	atomic.StoreInt64(&e.inflightRefresh, 0)
}

func (e *Entry) IsRefreshing() bool {
	return atomic.LoadInt64(&e.inflightRefresh) == 1
}
