package model

import (
	"context"
	"time"
)

// Priority hints how aggressively a write may evict under pressure.
type Priority int32

const (
	// PriorityNormal writes may evict any entry from the LRU tail.
	PriorityNormal Priority = iota

	// PriorityHigh writes may not evict entries touched within the
	// configured protection window, so hot data survives bursts of
	// high-priority inserts.
	PriorityHigh
)

// Options customizes a single Set call. The zero value means: TTL from
// the strategy table, empty data type, no tags, normal priority.
type Options struct {
	// TTL overrides the strategy table for this entry when positive.
	TTL time.Duration

	// DataType selects the TTL policy and the analytics bucket.
	DataType string

	// Tags label the entry for group invalidation via ClearByTag.
	Tags []string

	// Priority is the eviction hint for this write.
	Priority Priority
}

// Fetcher produces a fresh value for a key. It is invoked only by the
// background revalidation path for stale entries; ordinary misses are
// the caller's responsibility.
type Fetcher func(ctx context.Context, key, dataType string) (any, error)
