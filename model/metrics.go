package model

import "time"

// Metrics is a point-in-time snapshot of cache state and lifetime
// counters. Counters are cumulative since the cache was constructed.
type Metrics struct {
	Entries    int64
	TotalBytes int64

	Hits    int64
	Misses  int64
	HitRate float64 // hits / (hits+misses); 0 when there were no lookups

	Sets               int64
	Evictions          int64
	EvictedBytes       int64
	Expirations        int64
	CapacityRejections int64

	Refreshes       int64
	RefreshFailures int64

	EncodeFailures int64
	DecodeFailures int64

	// CompressionRawBytes / CompressionStoredBytes accumulate the raw and
	// stored sizes of every encoded payload; their quotient is the ratio.
	CompressionRawBytes    int64
	CompressionStoredBytes int64
	CompressionRatio       float64 // stored / raw; 1.0 when nothing was encoded

	// NearExpiry counts entries with at most 10% of their TTL remaining,
	// stale entries included.
	NearExpiry int64

	// TTLByDataType is the current strategy table, adaptive growth
	// applied.
	TTLByDataType map[string]time.Duration
}

// HealthState classifies the cache's operational condition.
type HealthState string

const (
	Healthy  HealthState = "healthy"
	Warning  HealthState = "warning"
	Critical HealthState = "critical"
)

// Health is the derived health report: hit rate below 60% or utilization
// above 90% is critical; hit rate below 80% or utilization above 80% is
// a warning. Hit-rate thresholds only apply once lookups happened.
type Health struct {
	Status  HealthState
	Details map[string]string
}
