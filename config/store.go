package config

import "time"

type StoreCfg struct {
	// MaxEntries bounds the number of entries held at once.
	// Writes above the bound evict from the LRU tail first.
	MaxEntries int64 `yaml:"max_entries"`

	// MaxBytes optionally bounds the total stored payload size.
	// Zero means the store is bounded by MaxEntries only.
	MaxBytes int64 `yaml:"max_bytes"`

	// DefaultTTL applies to entries whose data type has no override and
	// whose write carries no explicit TTL. Zero disables expiry.
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// EvictionBatchFraction defines how large a single eviction pass is,
	// as a fraction of MaxEntries. Batching amortizes eviction cost under
	// sustained write pressure. Defaults to 0.10.
	EvictionBatchFraction float64 `yaml:"eviction_batch_fraction"`

	// ProtectionWindow shields entries touched within the window from
	// eviction by high-priority writes. Defaults to 60s.
	ProtectionWindow time.Duration `yaml:"protection_window"`

	// IsTelemetryLogsEnabled turns on the periodic stats logger.
	IsTelemetryLogsEnabled bool `yaml:"stat_logs_enabled"`

	// TelemetryLogsInterval is the stats logger period. Defaults to 5s.
	TelemetryLogsInterval time.Duration `yaml:"stat_logs_interval"`

	// CacheTimeEnabled turns on the coarse cached time source used on
	// hot paths instead of calling time.Now() per operation.
	CacheTimeEnabled bool `yaml:"cache_time_enabled"`

	// EvictionBatch is derived from MaxEntries and EvictionBatchFraction
	// during initialization. It is not read from YAML.
	EvictionBatch int64
}
