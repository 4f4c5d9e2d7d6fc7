package model

import (
	"sync/atomic"

	"github.com/cyx-darren/go-query-cache/internal/shared/cachedtime"
)

// State is the freshness of an entry at a point in time. Exactly one of
// the three holds for any live entry.
type State uint8

const (
	// Fresh: now < createdAt + ttl. Served as a plain hit.
	Fresh State = iota

	// Stale: createdAt+ttl <= now < createdAt+ttl+grace. Served while a
	// background refresh is triggered, when stale-while-revalidate is on.
	Stale

	// Expired: now >= createdAt+ttl+grace. Treated as a miss and deleted.
	Expired
)

// State classifies the entry against its TTL and the given grace window
// (nanos). grace == 0 collapses Stale into Expired, which is exactly the
// behavior with stale-while-revalidate disabled.
func (e *Entry) State(grace int64) State {
	ttl := atomic.LoadInt64(&e.ttl)
	if ttl == 0 {
		return Fresh
	}

	elapsed := cachedtime.UnixNano() - atomic.LoadInt64(&e.createdAt)
	switch {
	case elapsed < ttl:
		return Fresh
	case elapsed < ttl+grace:
		return Stale
	default:
		return Expired
	}
}

// RemainingFraction reports how much of the TTL is left, in [0,1].
// Entries past their TTL report 0; entries without a TTL report 1.
func (e *Entry) RemainingFraction() float64 {
	ttl := atomic.LoadInt64(&e.ttl)
	if ttl == 0 {
		return 1
	}
	elapsed := cachedtime.UnixNano() - atomic.LoadInt64(&e.createdAt)
	if elapsed >= ttl {
		return 0
	}
	return float64(ttl-elapsed) / float64(ttl)
}
