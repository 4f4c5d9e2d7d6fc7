// Package ttl maps data-type labels to time-to-live durations and
// applies the adaptive growth rule: data types observed hot over an
// optimization window get a multiplicatively longer TTL, capped at a
// maximum; cold data types are never shortened, so the table cannot
// oscillate.
package ttl

import (
	"maps"
	"sync"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
)

type Table struct {
	mu  sync.RWMutex
	def time.Duration
	cfg *config.TTLPolicyCfg

	ttls map[string]time.Duration
}

func NewTable(cfg *config.Cache) *Table {
	t := &Table{
		def:  cfg.Store.DefaultTTL,
		cfg:  cfg.TTLPolicy,
		ttls: make(map[string]time.Duration),
	}
	if cfg.TTLPolicy.Enabled() {
		maps.Copy(t.ttls, cfg.TTLPolicy.Overrides)
	}
	return t
}

// TTLFor returns the configured override for the data type, or the
// global default.
func (t *Table) TTLFor(dataType string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if ttl, ok := t.ttls[dataType]; ok {
		return ttl
	}
	return t.def
}

// Adjust grows a hot data type's TTL by the configured factor, capped at
// MaxTTL. Returns the new TTL and whether anything changed. A data type
// with no TTL (0 = never expires) is left alone.
func (t *Table) Adjust(dataType string, observedAccess int64) (time.Duration, bool) {
	if !t.cfg.Enabled() || !t.cfg.Adaptive {
		return t.TTLFor(dataType), false
	}
	if observedAccess <= t.cfg.HotAccessThreshold {
		return t.TTLFor(dataType), false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.ttls[dataType]
	if !ok {
		cur = t.def
	}
	if cur == 0 {
		return cur, false
	}

	next := time.Duration(float64(cur) * t.cfg.GrowthFactor)
	if next > t.cfg.MaxTTL {
		next = t.cfg.MaxTTL
	}
	if next <= cur {
		return cur, false
	}
	t.ttls[dataType] = next
	return next, true
}

// Snapshot copies the per-data-type table for metrics export. The
// global default is not listed; it applies to every type absent here.
func (t *Table) Snapshot() map[string]time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]time.Duration, len(t.ttls))
	maps.Copy(out, t.ttls)
	return out
}
