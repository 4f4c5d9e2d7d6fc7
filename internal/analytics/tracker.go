// Package analytics tracks per-key access frequency with recency and
// per-data-type access volume. It feeds the hot/cold key listings and
// the TTL adaptation window consumed by the optimizer. Aggregate
// hit/miss counters live with the cache itself; this tracker only holds
// the bounded per-key state, so it can be switched off wholesale.
package analytics

import (
	"sort"
	"sync"
	"time"

	"github.com/cyx-darren/go-query-cache/config"
	"github.com/cyx-darren/go-query-cache/internal/shared/cachedtime"
)

// KeyStat is one key's standing in the access-frequency table.
type KeyStat struct {
	Key          string
	AccessCount  int64
	LastAccessed time.Time
}

type Tracker interface {
	// RecordAccess notes a successful read of key.
	RecordAccess(key, dataType string)
	// RecordWrite notes a write of key.
	RecordWrite(key, dataType string)
	// Forget drops keys from the tracking table after eviction/deletion.
	Forget(keys ...string)
	// Reset drops all tracked state.
	Reset()
	// HotKeys lists the top n keys by access count touched within the
	// hot window, most accessed first.
	HotKeys(n int) []KeyStat
	// ColdKeys lists up to n keys whose last access is older than the
	// cold cutoff and whose access count is at most the cold maximum.
	ColdKeys(n int) []string
	// TakeDataTypeWindow returns and resets the per-data-type access
	// counts accumulated since the previous call.
	TakeDataTypeWindow() map[string]int64
}

func New(cfg *config.AnalyticsCfg) Tracker {
	if !cfg.Enabled() {
		return &NoOpTracker{}
	}
	return &tracker{
		cfg:    cfg,
		keys:   make(map[string]*keyStat),
		window: make(map[string]int64),
	}
}

type keyStat struct {
	count int64
	last  int64 // unix nano
}

type tracker struct {
	mu     sync.Mutex
	cfg    *config.AnalyticsCfg
	keys   map[string]*keyStat
	window map[string]int64
}

func (t *tracker) RecordAccess(key, dataType string) { t.record(key, dataType) }
func (t *tracker) RecordWrite(key, dataType string)  { t.record(key, dataType) }

func (t *tracker) record(key, dataType string) {
	now := cachedtime.UnixNano()
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.keys[key]; ok {
		s.count++
		s.last = now
	} else if len(t.keys) < t.cfg.TrackedKeys {
		// The table is bounded; keys beyond the cap simply go untracked
		// until space frees up.
		t.keys[key] = &keyStat{count: 1, last: now}
	}
	t.window[dataType]++
}

func (t *tracker) Forget(keys ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		delete(t.keys, k)
	}
}

func (t *tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.keys)
	clear(t.window)
}

func (t *tracker) HotKeys(n int) []KeyStat {
	if n <= 0 {
		return nil
	}
	cutoff := cachedtime.UnixNano() - t.cfg.HotWindow.Nanoseconds()

	t.mu.Lock()
	eligible := make([]KeyStat, 0, len(t.keys))
	for k, s := range t.keys {
		if s.last >= cutoff {
			eligible = append(eligible, KeyStat{Key: k, AccessCount: s.count, LastAccessed: time.Unix(0, s.last)})
		}
	}
	t.mu.Unlock()

	sort.Slice(eligible, func(i, j int) bool { return eligible[i].AccessCount > eligible[j].AccessCount })
	if len(eligible) > n {
		eligible = eligible[:n]
	}
	return eligible
}

func (t *tracker) ColdKeys(n int) []string {
	if n <= 0 {
		return nil
	}
	cutoff := cachedtime.UnixNano() - t.cfg.ColdAfter.Nanoseconds()

	t.mu.Lock()
	defer t.mu.Unlock()
	cold := make([]string, 0, n)
	for k, s := range t.keys {
		if s.last < cutoff && s.count <= t.cfg.ColdMaxAccess {
			cold = append(cold, k)
			if len(cold) == n {
				break
			}
		}
	}
	return cold
}

func (t *tracker) TakeDataTypeWindow() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.window
	t.window = make(map[string]int64, len(out))
	return out
}
