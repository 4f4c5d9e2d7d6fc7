// Package cache implements the facade over the sharded entry store:
// freshness decisions, capacity enforcement, tag/pattern invalidation
// and the lifetime counters. A cache-layer problem must never become a
// failure of the operation being cached, so every error path here
// degrades to a miss or a skipped write.
package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/analytics"
	"github.com/cyx-darren/go-query-cache/internal/cache/db"
	"github.com/cyx-darren/go-query-cache/internal/cache/db/model"
	"github.com/cyx-darren/go-query-cache/internal/codec"
	"github.com/cyx-darren/go-query-cache/internal/shared/cachedtime"
	pub "github.com/cyx-darren/go-query-cache/model"
)

// nearExpiryFraction marks an entry near-expiry once at most this share
// of its TTL remains.
const nearExpiryFraction = 0.10

// ErrCapacityExhausted reports a write dropped because the store is full
// and nothing was evictable. Surfaced through counters and logs, never
// through Get/Set themselves.
var ErrCapacityExhausted = errors.New("cache capacity exhausted")

// TTLResolver resolves a data type to its current TTL. Satisfied by
// ttl.Table; narrowed here so the store does not depend on the table's
// adjustment surface.
type TTLResolver interface {
	TTLFor(dataType string) time.Duration
}

type Cacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, opts *pub.Options) bool
	Delete(key string) bool
	Clear(pattern string) int64
	ClearByTag(tags ...string) int64
	Len() int64
	Mem() int64
	StaleBacklog() int64
	Counters() CountersSnapshot
	NearExpiryCount() int64
}

// Cache respects the ctx given to New; walks and sweeps stop when it is
// cancelled.
type Cache struct {
	ctx      context.Context
	cfg      *config.Cache
	logger   *slog.Logger
	codec    *codec.Codec
	table    TTLResolver
	tracker  analytics.Tracker
	db       *db.Map
	counters *counters

	swr   bool
	grace int64 // nanos
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	cod *codec.Codec,
	table TTLResolver,
	tracker analytics.Tracker,
) *Cache {
	c := &Cache{
		ctx:      ctx,
		cfg:      cfg,
		logger:   logger,
		codec:    cod,
		table:    table,
		tracker:  tracker,
		db:       db.NewMap(),
		counters: newCounters(),
	}
	if cfg.Staleness.Enabled() {
		c.swr = true
		c.grace = cfg.Staleness.GracePeriod.Nanoseconds()
	}
	return c
}

// Get returns the decoded value for key. An expired entry (or a stale
// one with revalidation disabled) is deleted here, not on lookup inside
// the store, so the staleness check always runs first.
func (c *Cache) Get(key string) (any, bool) {
	k := model.NewKey(key)
	e, found := c.db.Get(k.Value())
	if !found || !e.Key().IsTheSame(k) {
		// absent, or a 64-bit collision with a different key
		c.counters.misses.Add(1)
		return nil, false
	}

	switch e.State(c.grace) {
	case model.Fresh:
		return c.serve(k, e, false)
	case model.Stale:
		if c.swr {
			return c.serve(k, e, true)
		}
		c.expire(k, e)
	case model.Expired:
		c.expire(k, e)
	}

	c.counters.misses.Add(1)
	return nil, false
}

// Set stores value under key. Best-effort by contract: an encode failure
// or an exhausted store degrades to a no-op and the caller's operation
// proceeds uncached.
func (c *Cache) Set(key string, value any, opts *pub.Options) bool {
	if opts == nil {
		opts = &pub.Options{}
	}

	p, err := c.codec.Encode(value)
	if err != nil {
		c.counters.encodeFailures.Add(1)
		c.logger.Warn("set skipped: value not cacheable", "key", key, "err", err)
		return false
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.table.TTLFor(opts.DataType)
	}

	k := model.NewKey(key)
	entry := model.NewEntry(k, key, p, ttl, opts.DataType, opts.Tags)
	if existing, found := c.db.Get(k.Value()); found && existing.Key().IsTheSame(k) {
		// Overwrites reuse the slot.
		c.db.Set(k.Value(), entry)
	} else {
		// A genuine insert claims a slot first, so concurrent inserts
		// cannot pass the entry bound together.
		if !c.admitInsert(p.Len(), opts.Priority) {
			c.counters.capacityRej.Add(1)
			c.logger.Warn("set skipped", "key", key, "err", ErrCapacityExhausted)
			return false
		}
		c.db.SetReserved(k.Value(), entry)
	}
	c.evictOverflow()

	c.counters.sets.Add(1)
	c.counters.compressionRaw.Add(p.RawLen())
	c.counters.compressionStored.Add(p.Len())
	c.tracker.RecordWrite(key, opts.DataType)
	return true
}

func (c *Cache) Delete(key string) bool {
	k := model.NewKey(key)
	if e, found := c.db.Get(k.Value()); found && e.Key().IsTheSame(k) {
		_, hit := c.db.Remove(k.Value())
		c.tracker.Forget(key)
		return hit
	}
	return false
}

// Clear removes every entry, or every entry whose key name matches the
// glob pattern (path.Match syntax). Returns the number removed.
func (c *Cache) Clear(pattern string) int64 {
	if pattern == "" {
		removed := c.db.Clear()
		c.tracker.Reset()
		return removed
	}
	removed, _ := c.db.DeleteWhere(c.ctx, func(e *model.Entry) bool {
		ok, err := path.Match(pattern, e.Name())
		return err == nil && ok
	})
	return removed
}

// ClearByTag removes every entry carrying any of the given tags.
func (c *Cache) ClearByTag(tags ...string) int64 {
	if len(tags) == 0 {
		return 0
	}
	removed, _ := c.db.DeleteWhere(c.ctx, func(e *model.Entry) bool {
		return e.HasAnyTag(tags)
	})
	return removed
}

func (c *Cache) Len() int64                 { return c.db.Len() }
func (c *Cache) Mem() int64                 { return c.db.Mem() }
func (c *Cache) StaleBacklog() int64        { return c.db.StaleBacklog() }
func (c *Cache) Counters() CountersSnapshot { return c.counters.snapshot() }

// NearExpiryCount walks the store counting entries close to expiry,
// stale-but-served entries included.
func (c *Cache) NearExpiryCount() int64 {
	var n int64
	c.db.WalkEntries(c.ctx, func(e *model.Entry) bool {
		if e.RemainingFraction() <= nearExpiryFraction {
			n++
		}
		return true
	})
	return n
}

/**
 * Maintenance API, used by the background workers.
 */

// NextStale pops the next entry queued for background revalidation.
func (c *Cache) NextStale() (*model.Entry, bool) { return c.db.NextStale() }

// RefreshValue completes a background refresh: the entry gets the new
// payload and a restarted lifetime. If the entry was evicted while the
// refresh was in flight, the refresh completes into a fresh insert.
func (c *Cache) RefreshValue(e *model.Entry, value any) error {
	defer e.UnmarkRefreshing()

	p, err := c.codec.Encode(value)
	if err != nil {
		c.counters.encodeFailures.Add(1)
		return err
	}

	key := e.Key().Value()
	if cur, found := c.db.Get(key); found && cur == e {
		old := e.Payload()
		if old.Kind() == p.Kind() && bytes.Equal(old.Data(), p.Data()) {
			// Upstream returned exactly the same bytes; restarting the
			// lifetime is all the refresh needs to do. The compare must
			// be exact: a wrongly skipped swap would pin the old value
			// for another full stale window.
			e.RenewCreatedAt()
			return nil
		}
		delta := e.SwapPayload(p)
		if delta != 0 {
			c.db.AddMem(key, delta)
		}
		e.RenewCreatedAt()
	} else {
		fresh := model.NewEntry(e.Key(), e.Name(), p, e.TTL(), e.DataType(), e.Tags())
		if !c.admitInsert(p.Len(), pub.PriorityNormal) {
			c.counters.capacityRej.Add(1)
			return ErrCapacityExhausted
		}
		c.db.SetReserved(key, fresh)
	}
	c.evictOverflow()

	c.counters.compressionRaw.Add(p.RawLen())
	c.counters.compressionStored.Add(p.Len())
	return nil
}

// FailRefresh releases the in-flight marker after a failed refresh; the
// stale value keeps being served until its grace window elapses.
func (c *Cache) FailRefresh(e *model.Entry, err error) {
	e.UnmarkRefreshing()
	c.logger.Warn("stale value kept", "key", e.Name(), "data_type", e.DataType(), "err", err)
}

// SweepExpired removes every entry past TTL+grace. One bounded pass;
// holds at most one shard lock at a time.
func (c *Cache) SweepExpired() int64 {
	removed, _ := c.db.DeleteWhere(c.ctx, func(e *model.Entry) bool {
		return e.State(c.grace) == model.Expired
	})
	c.counters.expirations.Add(removed)
	return removed
}

// DeleteKeys removes the given keys and forgets their tracking state.
// Used by the optimizer for proactive cold-key removal.
func (c *Cache) DeleteKeys(keys []string) (removed int64) {
	for _, key := range keys {
		k := model.NewKey(key)
		if _, hit := c.db.Remove(k.Value()); hit {
			removed++
		}
	}
	c.tracker.Forget(keys...)
	return
}

// WalkEntries exposes a read-only walk for snapshots and metrics.
func (c *Cache) WalkEntries(ctx context.Context, fn func(*model.Entry) bool) {
	c.db.WalkEntries(ctx, fn)
}

// Restore inserts a snapshot record, keeping its original lifetime.
// Normal capacity rules apply.
func (c *Cache) Restore(key string, p codec.Payload, createdAt int64, ttl time.Duration, dataType string, tags []string) bool {
	k := model.NewKey(key)
	if !c.admitInsert(p.Len(), pub.PriorityNormal) {
		return false
	}
	c.db.SetReserved(k.Value(), model.NewRestoredEntry(k, key, p, createdAt, ttl.Nanoseconds(), dataType, tags))
	return true
}

/**
 * Private API.
 */

// serve decodes and returns a present entry, updating access state and,
// for stale entries, triggering at most one background refresh.
func (c *Cache) serve(k *model.Key, e *model.Entry, stale bool) (any, bool) {
	v, err := c.codec.Decode(e.Payload())
	if err != nil {
		// Corrupt payload: a miss, and the entry is gone.
		c.db.Remove(k.Value())
		c.tracker.Forget(e.Name())
		c.counters.decodeFailures.Add(1)
		c.counters.misses.Add(1)
		c.logger.Error("corrupt cache entry dropped", "key", e.Name(), "err", err)
		return nil, false
	}

	c.db.Touch(k.Value(), e)

	if stale && e.MarkRefreshing() {
		if !c.db.EnqueueStale(k.Value()) {
			e.UnmarkRefreshing()
		}
	}

	c.counters.hits.Add(1)
	c.tracker.RecordAccess(e.Name(), e.DataType())
	return v, true
}

func (c *Cache) expire(k *model.Key, e *model.Entry) {
	if _, hit := c.db.Remove(k.Value()); hit {
		c.counters.expirations.Add(1)
	}
	c.tracker.Forget(e.Name())
}

// admitInsert claims an entry slot for one genuine insert of the given
// size, evicting to make room. The slot claim is a CAS on the store's
// global count, so racing inserts cannot pass the entry bound together.
// High-priority writes may not evict entries touched within the
// protection window. Returns false when the store stays full.
func (c *Cache) admitInsert(incomingBytes int64, priority pub.Priority) bool {
	var protectAfter int64
	if priority == pub.PriorityHigh {
		protectAfter = cachedtime.UnixNano() - c.cfg.Store.ProtectionWindow.Nanoseconds()
	}

	for {
		if c.db.ReserveSlot(c.cfg.Store.MaxEntries) {
			if max := c.cfg.Store.MaxBytes; max <= 0 || c.db.Mem()+incomingBytes <= max {
				return true
			}
			c.db.ReleaseSlot()
		}
		evicted, freed, victims := c.db.EvictBatch(c.cfg.Store.EvictionBatch, protectAfter)
		if evicted == 0 {
			return false
		}
		c.counters.evictions.Add(evicted)
		c.counters.evictedBytes.Add(freed)
		c.tracker.Forget(victims...)
	}
}

// evictOverflow restores the size bounds after a write landed. The byte
// bound is checked without a reservation, and an overwrite that raced a
// concurrent delete can slip past the slot claim, so whoever finishes a
// write evicts until the bounds hold again.
func (c *Cache) evictOverflow() {
	for c.overCapacity() {
		evicted, freed, victims := c.db.EvictBatch(c.cfg.Store.EvictionBatch, 0)
		if evicted == 0 {
			return
		}
		c.counters.evictions.Add(evicted)
		c.counters.evictedBytes.Add(freed)
		c.tracker.Forget(victims...)
	}
}

func (c *Cache) overCapacity() bool {
	if c.db.Len() > c.cfg.Store.MaxEntries {
		return true
	}
	if max := c.cfg.Store.MaxBytes; max > 0 && c.db.Mem() > max {
		return true
	}
	return false
}
